package projectile

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"drop-bears/server/weapons/catalog"
)

// Projectile is one in-flight or settled munition. Fields are exported
// for snapshotting; mutation happens only inside Simulation.Step.
type Projectile struct {
	ID      uint64
	Shooter string
	Weapon  catalog.WeaponProfile
	Kind    Kind

	Pos      mgl64.Vec2
	Vel      mgl64.Vec2
	Rotation float64

	// Stationary projectiles skip integration and terrain marching but
	// keep updating their fuses.
	Stationary  bool
	BounceCount int
	Destroyed   bool

	timer     *TimerFuse
	proximity *ProximityFuse
	settle    *SettleFuse
}

func newProjectile(id uint64, shooter string, profile catalog.WeaponProfile, pos, vel mgl64.Vec2, playerTimer float64, dud bool) *Projectile {
	p := &Projectile{
		ID:      id,
		Shooter: shooter,
		Weapon:  profile,
		Kind:    KindFor(profile),
		Pos:     pos,
		Vel:     vel,
	}
	p.Rotation = math.Atan2(vel.Y(), vel.X())
	switch p.Kind {
	case KindBouncing, KindSticking:
		p.timer = NewTimerFuse(profile.ResolvedTimer(playerTimer), profile.TimerStartsOnThrow)
	case KindProximityMine:
		p.proximity = NewProximityFuse(profile.TriggerDelay, dud)
	case KindSettleDetonate:
		p.settle = NewSettleFuse(profile.SettleVelocityThreshold)
	}
	return p
}

// Timer exposes the timer fuse for snapshots; nil for untimed kinds.
func (p *Projectile) Timer() *TimerFuse { return p.timer }

// Proximity exposes the proximity fuse; nil for non-mine kinds.
func (p *Projectile) Proximity() *ProximityFuse { return p.proximity }

// Settle exposes the settle fuse; nil for other kinds.
func (p *Projectile) Settle() *SettleFuse { return p.settle }

// Speed is the magnitude of the current velocity.
func (p *Projectile) Speed() float64 {
	return p.Vel.Len()
}

// updateFuses advances whichever fuse the projectile carries and maps
// the result onto a shared signal.
func (p *Projectile) updateFuses(dt float64) Signal {
	switch p.Kind {
	case KindBouncing, KindSticking:
		if p.timer.Update(dt) {
			return SignalDetonate
		}
	case KindProximityMine:
		return p.proximity.Update(dt)
	case KindSettleDetonate:
		if p.settle.Update(p.Speed(), dt) {
			return SignalDetonate
		}
	}
	return SignalNone
}

// contactFuseHook fires the first-terrain-contact hooks: timed weapons
// start counting, everything else is unaffected.
func (p *Projectile) contactFuseHook() {
	if p.timer != nil {
		p.timer.StartOnContact()
	}
}

// Inert reports whether the projectile can no longer detonate. Only
// activated duds qualify; they stay on the map as scenery.
func (p *Projectile) Inert() bool {
	return p.proximity != nil && p.proximity.Dud && p.proximity.DudActivated
}
