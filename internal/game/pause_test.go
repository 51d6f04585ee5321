package game

import "testing"

func TestPauseTransitions(t *testing.T) {
	tests := []struct {
		name     string
		triggers []Trigger
		want     Phase
	}{
		{"starts not started", nil, PhaseNotStarted},
		{"escape before start ignored", []Trigger{TriggerEscape}, PhaseNotStarted},
		{"lock lost before start ignored", []Trigger{TriggerLockLost}, PhaseNotStarted},
		{"start", []Trigger{TriggerStart}, PhasePlaying},
		{"escape pauses", []Trigger{TriggerStart, TriggerEscape}, PhasePaused},
		{"escape toggles back", []Trigger{TriggerStart, TriggerEscape, TriggerEscape}, PhasePlaying},
		{"resume", []Trigger{TriggerStart, TriggerEscape, TriggerResume}, PhasePlaying},
		{"resume while playing ignored", []Trigger{TriggerStart, TriggerResume}, PhasePlaying},
		{"lock lost pauses", []Trigger{TriggerStart, TriggerLockLost}, PhasePaused},
		{"lock lost while paused stays", []Trigger{TriggerStart, TriggerEscape, TriggerLockLost}, PhasePaused},
		{"hidden pauses", []Trigger{TriggerStart, TriggerHidden}, PhasePaused},
		{"death", []Trigger{TriggerStart, TriggerHealthDepleted}, PhaseGameOver},
		{"game over is terminal", []Trigger{TriggerStart, TriggerHealthDepleted, TriggerEscape, TriggerResume, TriggerStart}, PhaseGameOver},
		{"restart from game over", []Trigger{TriggerStart, TriggerHealthDepleted, TriggerRestart}, PhasePlaying},
		{"reset from paused", []Trigger{TriggerStart, TriggerEscape, TriggerReset}, PhaseNotStarted},
		{"restart before start", []Trigger{TriggerRestart}, PhasePlaying},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewPauseController()
			for _, tr := range tt.triggers {
				c.Fire(tr)
			}
			if c.Phase() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, c.Phase())
			}
			if c.Active() != (tt.want == PhasePlaying) {
				t.Errorf("Active() = %v in %s", c.Active(), c.Phase())
			}
		})
	}
}

func TestFireReportsTransition(t *testing.T) {
	c := NewPauseController()

	if _, _, ok := c.Fire(TriggerEscape); ok {
		t.Error("Escape before start should not apply")
	}

	from, to, ok := c.Fire(TriggerStart)
	if !ok || from != PhaseNotStarted || to != PhasePlaying {
		t.Errorf("Expected NotStarted->Playing, got %s->%s ok=%v", from, to, ok)
	}
}

func TestPhaseText(t *testing.T) {
	b, err := PhaseGameOver.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != PhaseGameOver.String() {
		t.Errorf("Expected %q, got %q", PhaseGameOver.String(), b)
	}
	if !PhasePlaying.AcceptsGameplayInput() || PhasePaused.AcceptsGameplayInput() {
		t.Error("Only Playing should accept gameplay input")
	}
}

func TestPhaseTextRoundTrip(t *testing.T) {
	for _, p := range []Phase{PhaseNotStarted, PhasePlaying, PhasePaused, PhaseGameOver} {
		b, _ := p.MarshalText()
		var got Phase
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%s) failed: %v", b, err)
		}
		if got != p {
			t.Errorf("Expected %s, got %s", p, got)
		}
	}

	var p Phase
	if err := p.UnmarshalText([]byte("dancing")); err == nil {
		t.Error("Expected error for unknown phase")
	}
}
