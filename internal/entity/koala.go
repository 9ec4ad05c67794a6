package entity

import "github.com/go-gl/mathgl/mgl64"

// Koala is a single playable character. Pos is the center of its AABB;
// feet and head positions derive from the fixed box dimensions.
type Koala struct {
	ID     string
	Team   string
	Pos    mgl64.Vec2
	Vel    mgl64.Vec2
	Width  float64
	Height float64

	Health   float64
	Alive    bool
	OnGround bool

	// FallDistance accumulates while airborne and descending; it is
	// consumed on landing to compute fall damage.
	FallDistance float64

	// SpawnTimer suppresses gravity while positive so a freshly placed
	// koala sticks to its spawn point.
	SpawnTimer float64

	// Jumping is cleared when the koala lands; the renderer keys
	// animations off it.
	Jumping bool
}

// NewKoala constructs a living koala at the given feet position.
func NewKoala(id string, feet mgl64.Vec2) *Koala {
	k := &Koala{
		ID:     id,
		Width:  20,
		Height: 28,
		Health: 100,
		Alive:  true,
	}
	k.SetFeet(feet)
	return k
}

// FeetY returns the Y coordinate of the bottom edge of the AABB.
func (k *Koala) FeetY() float64 { return k.Pos.Y() + k.Height/2 }

// HeadY returns the Y coordinate of the top edge of the AABB.
func (k *Koala) HeadY() float64 { return k.Pos.Y() - k.Height/2 }

// SetFeet positions the koala so its feet rest at the given point.
func (k *Koala) SetFeet(feet mgl64.Vec2) {
	k.Pos = mgl64.Vec2{feet.X(), feet.Y() - k.Height/2}
}

// ApplyDamage subtracts health and kills the koala at zero. Returns true
// when this call was the fatal one.
func (k *Koala) ApplyDamage(amount float64) bool {
	if !k.Alive || amount <= 0 {
		return false
	}
	k.Health -= amount
	if k.Health <= 0 {
		k.Health = 0
		k.Alive = false
		return true
	}
	return false
}

// ApplyKnockback adds an impulse and unsticks the koala from the ground
// so the next physics step lifts it.
func (k *Koala) ApplyKnockback(impulse mgl64.Vec2) {
	k.Vel = k.Vel.Add(impulse)
	k.OnGround = false
}
