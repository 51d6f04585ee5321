package game

import "testing"

func TestWeaponTable(t *testing.T) {
	tests := []struct {
		id       WeaponID
		damage   int
		cooldown float64
		pellets  int
		delivery Delivery
	}{
		{Pistol, 25, 0.3, 1, DeliveryHitscan},
		{Shotgun, 80, 0.8, 5, DeliveryProjectile},
		{Rifle, 40, 0.15, 1, DeliveryHitscan},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			w := GetWeapon(tt.id)
			if w.Damage != tt.damage {
				t.Errorf("Expected damage %d, got %d", tt.damage, w.Damage)
			}
			if w.Cooldown() != tt.cooldown {
				t.Errorf("Expected cooldown %.2f, got %.2f", tt.cooldown, w.Cooldown())
			}
			if w.Pellets != tt.pellets {
				t.Errorf("Expected %d pellets, got %d", tt.pellets, w.Pellets)
			}
			if w.Delivery != tt.delivery {
				t.Errorf("Expected %s delivery, got %s", tt.delivery, w.Delivery)
			}
		})
	}
}

func TestGetWeaponDefaultsToPistol(t *testing.T) {
	if GetWeapon("bazooka").ID != Pistol {
		t.Error("Unknown weapon should fall back to the pistol")
	}
	if IsWeapon("bazooka") {
		t.Error("bazooka is not a weapon")
	}
}

func TestWeaponForSlot(t *testing.T) {
	for slot, want := range map[int]WeaponID{1: Pistol, 2: Shotgun, 3: Rifle} {
		if got, ok := WeaponForSlot(slot); !ok || got != want {
			t.Errorf("Slot %d: expected %s, got %s", slot, want, got)
		}
	}
	for _, slot := range []int{0, 4, -1} {
		if _, ok := WeaponForSlot(slot); ok {
			t.Errorf("Slot %d should not map", slot)
		}
	}
}

func TestPickupTypesExcludePistol(t *testing.T) {
	for _, id := range PickupTypes {
		if id == Pistol {
			t.Error("The pistol is never dropped")
		}
	}
	if len(GetAllWeapons()) != len(WeaponOrder) {
		t.Errorf("Expected %d weapons, got %d", len(WeaponOrder), len(GetAllWeapons()))
	}
}
