package game

import "testing"

func TestEffectLifetime(t *testing.T) {
	fx := NewEffects(16)
	fx.Trigger(EffectDamageFlash, "", 1.0, DamageFlashDuration)

	if !fx.Active(EffectDamageFlash, "", 1.1) {
		t.Error("Expected damage flash active at 1.1")
	}
	if fx.Active(EffectDamageFlash, "", 1.3) {
		t.Error("Expected damage flash over at 1.3")
	}
	if fx.Active(EffectHitMarker, "", 1.1) {
		t.Error("Hit marker was never triggered")
	}
}

func TestEffectRetriggerRestarts(t *testing.T) {
	fx := NewEffects(16)
	fx.Trigger(EffectEnemyHitFlash, "e1", 0, EnemyHitFlashDuration)
	fx.Trigger(EffectEnemyHitFlash, "e1", 0.1, EnemyHitFlashDuration)

	if fx.Len() != 1 {
		t.Errorf("Expected one tracked effect, got %d", fx.Len())
	}
	if !fx.Active(EffectEnemyHitFlash, "e1", 0.2) {
		t.Error("Retrigger should extend the flash")
	}
	if fx.Active(EffectEnemyHitFlash, "e2", 0.05) {
		t.Error("Keys are independent")
	}
}

func TestEffectSweepFiresOnce(t *testing.T) {
	fx := NewEffects(16)
	fx.Trigger(EffectAutoLock, "", 0, AutoLockDelay)
	fx.Trigger(EffectPickupRespawn, "p1", 0, PickupRespawnDelay)

	var fired []EffectKind
	collect := func(e TimedEffect) { fired = append(fired, e.Kind) }

	fx.Sweep(0.05, collect)
	if len(fired) != 0 {
		t.Errorf("Nothing should fire yet, got %v", fired)
	}

	fx.Sweep(0.1, collect)
	fx.Sweep(0.2, collect)
	if len(fired) != 1 || fired[0] != EffectAutoLock {
		t.Errorf("Expected auto lock to fire once, got %v", fired)
	}
	if !fx.Pending(EffectPickupRespawn, "p1") {
		t.Error("Respawn should still be pending")
	}
}

func TestEffectTriggerFromSweepKeptForNextSweep(t *testing.T) {
	fx := NewEffects(16)
	fx.Trigger(EffectAutoLock, "", 0, AutoLockDelay)

	fx.Sweep(1, func(e TimedEffect) {
		fx.Trigger(EffectAutoLock, "", 1, AutoLockDelay)
	})
	if !fx.Pending(EffectAutoLock, "") {
		t.Error("Effect triggered during sweep should survive")
	}
}

func TestEffectCancelAndClear(t *testing.T) {
	fx := NewEffects(16)
	fx.Trigger(EffectPickupPrompt, "p1", 0, PickupPromptDuration)
	fx.Trigger(EffectPickupPrompt, "p2", 0, PickupPromptDuration)

	fx.Cancel(EffectPickupPrompt, "p1")
	if fx.Pending(EffectPickupPrompt, "p1") || !fx.Pending(EffectPickupPrompt, "p2") {
		t.Error("Cancel should drop only p1")
	}

	fired := false
	fx.Clear()
	fx.Sweep(100, func(TimedEffect) { fired = true })
	if fired || fx.Len() != 0 {
		t.Error("Cleared effects must not fire")
	}
}

func TestEffectCapacity(t *testing.T) {
	fx := NewEffects(2)
	fx.Trigger(EffectEnemyHitFlash, "a", 0, 1)
	fx.Trigger(EffectEnemyHitFlash, "b", 0, 1)
	fx.Trigger(EffectEnemyHitFlash, "c", 0, 1)

	if fx.Len() != 2 {
		t.Errorf("Expected cap of 2, got %d", fx.Len())
	}
}

func TestKillFeedKeepsNewest(t *testing.T) {
	feed := NewKillFeed(3)
	for i := 1; i <= 5; i++ {
		feed.Push(FeedEntry{Points: i})
	}

	entries := feed.Entries()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	for i, want := range []int{3, 4, 5} {
		if entries[i].Points != want {
			t.Errorf("Entry %d: expected %d, got %d", i, want, entries[i].Points)
		}
	}

	feed.Clear()
	if len(feed.Entries()) != 0 {
		t.Error("Expected empty feed after clear")
	}
}
