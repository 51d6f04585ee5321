package game

// WeaponID names a weapon. Its order in WeaponOrder is also its slot key.
type WeaponID string

const (
	Pistol  WeaponID = "pistol"
	Shotgun WeaponID = "shotgun"
	Rifle   WeaponID = "rifle"
)

// Delivery selects how a trigger pull lands its damage.
type Delivery uint8

const (
	// DeliveryHitscan damages through an instant camera ray; the bullet is a tracer.
	DeliveryHitscan Delivery = iota
	// DeliveryProjectile damages through the first travelling pellet to connect.
	DeliveryProjectile
)

func (d Delivery) String() string {
	if d == DeliveryProjectile {
		return "projectile"
	}
	return "hitscan"
}

// Weapon is a static weapon definition.
type Weapon struct {
	ID          WeaponID `json:"id"`
	Name        string   `json:"name"`
	Damage      int      `json:"damage"`
	CooldownMs  int      `json:"cooldownMs"`
	BulletSpeed float64  `json:"bulletSpeed"`
	BulletSize  float64  `json:"bulletSize"`
	BulletColor string   `json:"bulletColor"`
	Recoil      float64  `json:"recoil"` // radians of pitch kick
	Pellets     int      `json:"pellets"`
	Spread      float64  `json:"spread"`
	PickupAmmo  int      `json:"pickupAmmo"`
	PickupColor string   `json:"pickupColor"`
	Delivery    Delivery `json:"delivery"`
}

// Cooldown returns the minimum time between shots in seconds.
func (w Weapon) Cooldown() float64 {
	return float64(w.CooldownMs) / 1000
}

// Weapons is the table of all weapons.
var Weapons = map[WeaponID]Weapon{
	Pistol: {
		ID:          Pistol,
		Name:        "Pistol",
		Damage:      25,
		CooldownMs:  300,
		BulletSpeed: 50,
		BulletSize:  0.05,
		BulletColor: "#ffff00",
		Recoil:      0.015,
		Pellets:     1,
		PickupAmmo:  15,
		PickupColor: "#555555",
		Delivery:    DeliveryHitscan,
	},
	Shotgun: {
		ID:          Shotgun,
		Name:        "Shotgun",
		Damage:      80,
		CooldownMs:  800,
		BulletSpeed: 40,
		BulletSize:  0.08,
		BulletColor: "#ff6600",
		Recoil:      0.04,
		Pellets:     5,
		Spread:      0.2,
		PickupAmmo:  8,
		PickupColor: "#8B4513",
		Delivery:    DeliveryProjectile,
	},
	Rifle: {
		ID:          Rifle,
		Name:        "Rifle",
		Damage:      40,
		CooldownMs:  150,
		BulletSpeed: 70,
		BulletSize:  0.03,
		BulletColor: "#00ffff",
		Recoil:      0.02,
		Pellets:     1,
		PickupAmmo:  30,
		PickupColor: "#444444",
		Delivery:    DeliveryHitscan,
	},
}

// WeaponOrder is slot order: Digit1 selects index 0.
var WeaponOrder = []WeaponID{Pistol, Shotgun, Rifle}

// PickupTypes are the weapons that can lie in the arena. The pistol is
// never dropped since every session starts with it.
var PickupTypes = []WeaponID{Shotgun, Rifle}

// GetWeapon returns a weapon by ID, defaults to the pistol.
func GetWeapon(id WeaponID) Weapon {
	if w, ok := Weapons[id]; ok {
		return w
	}
	return Weapons[Pistol]
}

// IsWeapon reports whether id names a known weapon.
func IsWeapon(id WeaponID) bool {
	_, ok := Weapons[id]
	return ok
}

// GetAllWeapons returns all weapons in slot order.
func GetAllWeapons() []Weapon {
	weapons := make([]Weapon, 0, len(WeaponOrder))
	for _, id := range WeaponOrder {
		weapons = append(weapons, Weapons[id])
	}
	return weapons
}

// WeaponForSlot maps a 1-based slot to a weapon id.
func WeaponForSlot(slot int) (WeaponID, bool) {
	if slot < 1 || slot > len(WeaponOrder) {
		return "", false
	}
	return WeaponOrder[slot-1], true
}
