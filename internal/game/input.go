package game

import (
	"errors"
	"sync"
	"sync/atomic"

	"game-hub/internal/game/spatial"
)

// Intent is a bitmask of held movement intents.
type Intent uint16

const (
	IntentForward Intent = 1 << iota
	IntentBackward
	IntentLeft
	IntentRight
	IntentJump
	IntentRun
)

// keyBindings maps browser KeyboardEvent.code values to held intents.
var keyBindings = map[string]Intent{
	"KeyW":       IntentForward,
	"ArrowUp":    IntentForward,
	"KeyS":       IntentBackward,
	"ArrowDown":  IntentBackward,
	"KeyA":       IntentLeft,
	"ArrowLeft":  IntentLeft,
	"KeyD":       IntentRight,
	"ArrowRight": IntentRight,
	"Space":      IntentJump,
	"ShiftLeft":  IntentRun,
	"ShiftRight": IntentRun,
}

var slotKeys = map[string]int{
	"Digit1": 1,
	"Digit2": 2,
	"Digit3": 3,
}

const (
	keyInteract = "KeyE"
	keyEscape   = "Escape"

	// SensitivityStep is the change per modified wheel notch.
	SensitivityStep = 0.1
)

// InputKind tags a one-shot input event.
type InputKind uint8

const (
	InputShoot InputKind = iota + 1
	InputInteract
	InputWeaponSlot
	InputEscape
	InputJump
	InputPointerLock
	InputVisibility
	InputSensitivity
	InputStart
	InputResume
	InputRestart
	InputReset
)

var inputKindNames = map[InputKind]string{
	InputShoot:       "shoot",
	InputInteract:    "interact",
	InputWeaponSlot:  "weapon_slot",
	InputEscape:      "escape",
	InputJump:        "jump",
	InputPointerLock: "pointer_lock",
	InputVisibility:  "visibility",
	InputSensitivity: "sensitivity",
	InputStart:       "start",
	InputResume:      "resume",
	InputRestart:     "restart",
	InputReset:       "reset",
}

func (k InputKind) String() string {
	if name, ok := inputKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// InputEvent is a discrete intent pushed from an event handler and
// consumed once by the next frame.
type InputEvent struct {
	Kind   InputKind
	Slot   int     // InputWeaponSlot
	Locked bool    // InputPointerLock
	Hidden bool    // InputVisibility
	Delta  float64 // InputSensitivity
}

// ErrUnknownCommand is returned by Command for names it does not know.
var ErrUnknownCommand = errors.New("unknown command")

// FrameInput is the input seen by one frame.
type FrameInput struct {
	Held          Intent
	MouseDX       float64
	MouseDY       float64
	PointerLocked bool
	Events        []InputEvent
}

// Has reports whether intent i is held.
func (f FrameInput) Has(i Intent) bool { return f.Held&i != 0 }

// InputAggregator collects browser input from any goroutine and hands the
// simulation one consistent view per frame.
//
// Held keys and mouse deltas sit behind a mutex and are read once in
// Drain. Discrete intents go through a lock-free queue. While gated
// (not playing) key-down and clicks are dropped, but key-up is always
// applied so no key is left held across a pause.
type InputAggregator struct {
	mu     sync.Mutex
	held   Intent
	dx, dy float64
	locked bool

	gated   atomic.Bool
	dropped atomic.Uint64
	queue   *spatial.LockFreeQueue[InputEvent]
	events  []InputEvent // consumer-owned scratch
}

// NewInputAggregator creates an aggregator whose event queue holds capacity events.
func NewInputAggregator(capacity int) *InputAggregator {
	a := &InputAggregator{
		queue:  spatial.NewLockFreeQueue[InputEvent](capacity),
		events: make([]InputEvent, 0, 32),
	}
	a.gated.Store(true)
	return a
}

func (a *InputAggregator) push(ev InputEvent) {
	if !a.queue.TryPush(ev) {
		a.dropped.Add(1)
	}
}

// KeyDown handles a keydown event.
func (a *InputAggregator) KeyDown(code string) {
	if code == keyEscape {
		a.push(InputEvent{Kind: InputEscape})
		return
	}
	if a.gated.Load() {
		return
	}
	if slot, ok := slotKeys[code]; ok {
		a.push(InputEvent{Kind: InputWeaponSlot, Slot: slot})
		return
	}
	if code == keyInteract {
		a.push(InputEvent{Kind: InputInteract})
		return
	}

	intent, ok := keyBindings[code]
	if !ok {
		return
	}

	a.mu.Lock()
	already := a.held&intent != 0
	a.held |= intent
	a.mu.Unlock()

	// Auto-repeat keydowns do not re-trigger a jump.
	if intent == IntentJump && !already {
		a.push(InputEvent{Kind: InputJump})
	}
}

// KeyUp handles a keyup event. Never gated.
func (a *InputAggregator) KeyUp(code string) {
	intent, ok := keyBindings[code]
	if !ok {
		return
	}
	a.mu.Lock()
	a.held &^= intent
	a.mu.Unlock()
}

// MouseMove accumulates raw pointer deltas until the next frame.
func (a *InputAggregator) MouseMove(dx, dy float64) {
	a.mu.Lock()
	a.dx += dx
	a.dy += dy
	a.mu.Unlock()
}

// MouseDown handles a mouse button press. Button 0 fires.
func (a *InputAggregator) MouseDown(button int) {
	if button != 0 || a.gated.Load() {
		return
	}
	a.push(InputEvent{Kind: InputShoot})
}

// Wheel adjusts sensitivity when a modifier (Ctrl/Cmd) is held.
// Wheel up (negative deltaY) raises sensitivity. Works while paused.
func (a *InputAggregator) Wheel(deltaY float64, modifier bool) {
	if !modifier || deltaY == 0 {
		return
	}
	step := SensitivityStep
	if deltaY > 0 {
		step = -step
	}
	a.push(InputEvent{Kind: InputSensitivity, Delta: step})
}

// PointerLockChange records an OS pointer capture transition.
func (a *InputAggregator) PointerLockChange(locked bool) {
	a.mu.Lock()
	a.locked = locked
	if !locked {
		a.dx, a.dy = 0, 0
	}
	a.mu.Unlock()
	a.push(InputEvent{Kind: InputPointerLock, Locked: locked})
}

// VisibilityChange records the page being hidden or shown.
func (a *InputAggregator) VisibilityChange(hidden bool) {
	if hidden {
		a.ClearKeys()
	}
	a.push(InputEvent{Kind: InputVisibility, Hidden: hidden})
}

// Blur clears held keys when the window loses focus.
func (a *InputAggregator) Blur() {
	a.ClearKeys()
}

// Command pushes a UI command: "start", "resume", "restart" or "reset".
func (a *InputAggregator) Command(name string) error {
	switch name {
	case "start":
		a.push(InputEvent{Kind: InputStart})
	case "resume":
		a.push(InputEvent{Kind: InputResume})
	case "restart":
		a.push(InputEvent{Kind: InputRestart})
	case "reset":
		a.push(InputEvent{Kind: InputReset})
	default:
		return ErrUnknownCommand
	}
	return nil
}

// SetGated turns key-down and click handling off (true) or on (false).
func (a *InputAggregator) SetGated(gated bool) {
	a.gated.Store(gated)
}

// Gated reports whether key-down and clicks are currently dropped.
func (a *InputAggregator) Gated() bool { return a.gated.Load() }

// ClearKeys releases every held key and discards pending mouse motion.
func (a *InputAggregator) ClearKeys() {
	a.mu.Lock()
	a.held = 0
	a.dx, a.dy = 0, 0
	a.mu.Unlock()
}

// PointerLocked reports the last known pointer-lock state.
func (a *InputAggregator) PointerLocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locked
}

// Dropped returns how many events were lost to a full queue.
func (a *InputAggregator) Dropped() uint64 { return a.dropped.Load() }

// Drain returns this frame's input and resets the mouse accumulator.
// Only the simulation goroutine may call it; the returned Events slice is
// reused by the next call.
func (a *InputAggregator) Drain() FrameInput {
	a.mu.Lock()
	in := FrameInput{
		Held:          a.held,
		MouseDX:       a.dx,
		MouseDY:       a.dy,
		PointerLocked: a.locked,
	}
	a.dx, a.dy = 0, 0
	a.mu.Unlock()

	a.events = a.queue.Drain(a.events[:0])
	in.Events = a.events
	return in
}
