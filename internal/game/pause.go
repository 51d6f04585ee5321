package game

import "fmt"

// Phase is the play state of a session.
type Phase uint8

const (
	PhaseNotStarted Phase = iota
	PhasePlaying
	PhasePaused
	PhaseGameOver
)

var phaseNames = [...]string{
	PhaseNotStarted: "not_started",
	PhasePlaying:    "playing",
	PhasePaused:     "paused",
	PhaseGameOver:   "game_over",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// MarshalText lets phases encode as their names.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Trigger is an external happening that may move the phase.
type Trigger uint8

const (
	TriggerStart           Trigger = iota // Player pressed start
	TriggerEscape                         // Escape key
	TriggerResume                         // Resume button / click to resume
	TriggerLockLost                       // Pointer capture lost without the player asking
	TriggerHidden                         // Page hidden
	TriggerHealthDepleted                 // Session health reached zero
	TriggerRestart                        // Reset and play again
	TriggerReset                          // Reset to the start screen
)

var triggerNames = [...]string{
	TriggerStart:          "start",
	TriggerEscape:         "escape",
	TriggerResume:         "resume",
	TriggerLockLost:       "lock_lost",
	TriggerHidden:         "hidden",
	TriggerHealthDepleted: "health_depleted",
	TriggerRestart:        "restart",
	TriggerReset:          "reset",
}

func (t Trigger) String() string {
	if int(t) < len(triggerNames) {
		return triggerNames[t]
	}
	return "unknown"
}

type phaseTrigger struct {
	from    Phase
	trigger Trigger
}

// transitions lists every legal move. Anything absent is ignored, which
// is how Escape before start and input after game over are dropped.
var transitions = map[phaseTrigger]Phase{
	{PhaseNotStarted, TriggerStart}:       PhasePlaying,
	{PhasePlaying, TriggerEscape}:         PhasePaused,
	{PhasePaused, TriggerEscape}:          PhasePlaying,
	{PhasePaused, TriggerResume}:          PhasePlaying,
	{PhasePlaying, TriggerLockLost}:       PhasePaused,
	{PhasePlaying, TriggerHidden}:         PhasePaused,
	{PhasePlaying, TriggerHealthDepleted}: PhaseGameOver,
}

// PauseController reconciles start, pause, pointer-lock and game-over
// signals into one phase. It only decides; the engine applies the side
// effects of each transition.
type PauseController struct {
	phase Phase
}

// NewPauseController starts in PhaseNotStarted.
func NewPauseController() *PauseController {
	return &PauseController{phase: PhaseNotStarted}
}

// Phase returns the current phase.
func (c *PauseController) Phase() Phase { return c.phase }

// Fire applies a trigger. ok is false when the trigger does not apply to
// the current phase, in which case nothing changes.
func (c *PauseController) Fire(t Trigger) (from, to Phase, ok bool) {
	from = c.phase

	switch t {
	case TriggerRestart:
		c.phase = PhasePlaying
		return from, c.phase, true
	case TriggerReset:
		c.phase = PhaseNotStarted
		return from, c.phase, true
	}

	next, ok := transitions[phaseTrigger{from, t}]
	if !ok {
		return from, from, false
	}
	c.phase = next
	return from, next, true
}

// Active reports whether the simulation should advance.
func (c *PauseController) Active() bool { return c.phase == PhasePlaying }

// AcceptsGameplayInput reports whether key-down and clicks should reach the simulation.
func (p Phase) AcceptsGameplayInput() bool { return p == PhasePlaying }
