package entity

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"drop-bears/server/internal/terrain"
	"drop-bears/server/logging"
	logcombat "drop-bears/server/logging/combat"
	loglifecycle "drop-bears/server/logging/lifecycle"
)

// Config tunes character integration and collision resolution.
type Config struct {
	Gravity             float64 // px/s^2
	TerminalVelocity    float64 // px/s, downward clamp
	Friction            float64 // horizontal decay per reference tick
	FrictionRefDt       float64 // reference tick the friction factor was tuned at
	FallDamageThreshold float64 // px of fall before damage starts
	FallDamageDivisor   float64 // px of fall per point of damage
	Waterline           float64 // feet at or below this Y is instant death
	WorldWidth          float64
	WorldHeight         float64
	WallBounciness      float64
	ScanBudget          int // cap on every walk-until-clear scan
}

const (
	groundProbeAirborne = 3  // px, shallow window while airborne
	groundProbeGrounded = 10 // px, sticky-feet window while grounded
	slopeHugDepth       = 16 // px probed downward when walking downhill
	stepClimbHeight     = 8  // px probed upward when walking into a step
	boundsMargin        = 10 // px kept clear of the world's side edges
)

// Normalized fills zero fields with defaults.
func (c Config) Normalized() Config {
	if c.Gravity == 0 {
		c.Gravity = 500
	}
	if c.TerminalVelocity == 0 {
		c.TerminalVelocity = 600
	}
	if c.Friction == 0 {
		c.Friction = 0.95
	}
	if c.FrictionRefDt == 0 {
		c.FrictionRefDt = 1.0 / 60.0
	}
	if c.FallDamageThreshold == 0 {
		c.FallDamageThreshold = 260
	}
	if c.FallDamageDivisor == 0 {
		c.FallDamageDivisor = 5
	}
	if c.WallBounciness == 0 {
		c.WallBounciness = 0.3
	}
	if c.ScanBudget == 0 {
		c.ScanBudget = 64
	}
	if c.Waterline == 0 {
		c.Waterline = c.WorldHeight
	}
	return c
}

// FallDamageEvent reports a landing hard enough to hurt. The enclosing
// turn machine ends the current turn when the active koala takes one.
type FallDamageEvent struct {
	ID     string
	Damage float64
}

// StepResult carries the side effects of a physics tick that concern
// collaborators outside the core.
type StepResult struct {
	FallDamage []FallDamageEvent
	Drowned    []string
}

// Physics resolves character motion against the terrain field. All
// resolution is scan-based and capped by the configured pixel budget, so
// a wedged character terminates deterministically instead of looping.
type Physics struct {
	field     *terrain.Field
	cfg       Config
	publisher logging.Publisher
}

func NewPhysics(field *terrain.Field, cfg Config, publisher logging.Publisher) *Physics {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Physics{field: field, cfg: cfg.Normalized(), publisher: publisher}
}

// Step advances every living koala by one tick: integrate, then resolve
// ground, ceiling and walls against the terrain in that order.
func (p *Physics) Step(tick uint64, dt float64, koalas []*Koala) StepResult {
	var out StepResult
	if dt <= 0 {
		return out
	}
	for _, k := range koalas {
		if k == nil || !k.Alive {
			continue
		}
		p.integrate(k, dt)
		p.trackFall(k, dt)
		landed, damage := p.resolveGround(k)
		if landed && damage > 0 {
			k.ApplyDamage(damage)
			out.FallDamage = append(out.FallDamage, FallDamageEvent{ID: k.ID, Damage: damage})
			logcombat.FallDamage(context.Background(), p.publisher, tick,
				logging.EntityRef{ID: k.ID, Kind: logging.EntityKindKoala},
				logcombat.FallDamagePayload{Amount: damage, Health: k.Health})
		}
		p.resolveCeiling(k)
		p.resolveWalls(k)

		if k.FeetY() >= p.cfg.Waterline {
			k.Health = 0
			k.Alive = false
			out.Drowned = append(out.Drowned, k.ID)
			loglifecycle.Drowned(context.Background(), p.publisher, tick,
				logging.EntityRef{ID: k.ID, Kind: logging.EntityKindKoala})
			continue
		}

		p.clampBounds(k)
	}
	return out
}

func (p *Physics) integrate(k *Koala, dt float64) {
	if k.SpawnTimer > 0 {
		// Protected landing: the koala sticks until the timer runs out.
		k.SpawnTimer -= dt
		k.Vel[1] = 0
	} else {
		k.Vel[1] += p.cfg.Gravity * dt
		if k.Vel[1] > p.cfg.TerminalVelocity {
			k.Vel[1] = p.cfg.TerminalVelocity
		}
	}

	k.Pos = k.Pos.Add(k.Vel.Mul(dt))

	// Frame-rate-consistent horizontal decay.
	k.Vel[0] *= math.Pow(p.cfg.Friction, dt/p.cfg.FrictionRefDt)
}

func (p *Physics) trackFall(k *Koala, dt float64) {
	if !k.OnGround && k.Vel.Y() > 0 {
		k.FallDistance += k.Vel.Y() * dt
	}
}

// resolveGround probes a vertical window around the feet and snaps the
// koala onto the first surface found. The window is asymmetric: shallow
// while airborne, deeper while grounded, which keeps feet stuck when
// walking down mild slopes or across single-pixel floors.
func (p *Physics) resolveGround(k *Koala) (landed bool, damage float64) {
	if k.Vel.Y() < 0 {
		// Moving upward: never snap, or jumps would cancel instantly.
		k.OnGround = false
		return false, 0
	}

	below := groundProbeAirborne
	if k.OnGround {
		below = groundProbeGrounded
	}

	footX := k.Pos.X()
	footY := k.FeetY()
	hit := math.NaN()
	for i := -groundProbeAirborne; i <= below; i++ {
		if p.field.CheckCollision(footX, footY+float64(i)) {
			hit = footY + float64(i)
			break
		}
	}
	if math.IsNaN(hit) {
		k.OnGround = false
		return false, 0
	}

	// Walk upward pixel by pixel from the hit to the true surface.
	surface := hit
	for i := 0; i < p.cfg.ScanBudget; i++ {
		if !p.field.CheckCollision(footX, surface-1) {
			break
		}
		surface--
	}

	wasAirborne := !k.OnGround
	k.SetFeet(mgl64.Vec2{footX, surface})
	k.Vel[1] = 0
	k.OnGround = true
	k.Jumping = false

	if wasAirborne {
		landed = true
		if k.FallDistance > p.cfg.FallDamageThreshold {
			damage = math.Floor((k.FallDistance - p.cfg.FallDamageThreshold) / p.cfg.FallDamageDivisor)
		}
		k.FallDistance = 0
	}
	return landed, damage
}

// resolveCeiling pushes the koala below any obstruction over its head and
// dampen-reflects the vertical velocity.
func (p *Physics) resolveCeiling(k *Koala) {
	headX := k.Pos.X()
	headY := k.HeadY()
	if !p.field.CheckCollision(headX, headY) {
		return
	}
	clear := headY
	for i := 0; i < p.cfg.ScanBudget; i++ {
		clear++
		if !p.field.CheckCollision(headX, clear) {
			break
		}
	}
	k.Pos[1] = clear + k.Height/2
	k.Vel[1] = math.Abs(k.Vel.Y()) * 0.5
}

// resolveWalls tests the left and right AABB edges independently, walks
// the koala out to the nearest clear pixel and reflects vx.
func (p *Physics) resolveWalls(k *Koala) {
	half := k.Width / 2
	midY := k.Pos.Y()

	if p.field.CheckCollision(k.Pos.X()-half, midY) {
		edge := k.Pos.X() - half
		for i := 0; i < p.cfg.ScanBudget; i++ {
			edge++
			if !p.field.CheckCollision(edge, midY) {
				break
			}
		}
		k.Pos[0] = edge + half
		k.Vel[0] = -k.Vel.X() * p.cfg.WallBounciness
	}

	if p.field.CheckCollision(k.Pos.X()+half, midY) {
		edge := k.Pos.X() + half
		for i := 0; i < p.cfg.ScanBudget; i++ {
			edge--
			if !p.field.CheckCollision(edge, midY) {
				break
			}
		}
		k.Pos[0] = edge - half
		k.Vel[0] = -k.Vel.X() * p.cfg.WallBounciness
	}
}

func (p *Physics) clampBounds(k *Koala) {
	k.Pos[0] = clamp(k.Pos.X(), boundsMargin, p.cfg.WorldWidth-boundsMargin)
	k.Pos[1] = clamp(k.Pos.Y(), 0, p.cfg.WorldHeight-boundsMargin)
}

// CanWalkUp attempts a horizontal move of dx. A clear destination hugs
// descending slopes by probing downward; a blocked one tries to step
// climb while keeping both foot and head clearance. The returned feet
// position is only meaningful when ok is true.
func (p *Physics) CanWalkUp(k *Koala, dx float64) (feet mgl64.Vec2, ok bool) {
	targetX := k.Pos.X() + dx
	footY := k.FeetY()

	if !p.field.CheckCollision(targetX, footY-1) {
		// Destination clear: hug a descending slope if there is ground
		// within reach, otherwise walk off the edge unsnapped.
		for i := 0; i <= slopeHugDepth; i++ {
			if p.field.CheckCollision(targetX, footY+float64(i)) {
				return mgl64.Vec2{targetX, footY + float64(i)}, true
			}
		}
		return mgl64.Vec2{targetX, footY}, true
	}

	headY := k.HeadY()
	for climb := 1; climb <= stepClimbHeight; climb++ {
		c := float64(climb)
		if !p.field.CheckCollision(targetX, footY-1-c) && !p.field.CheckCollision(targetX, headY-c) {
			return mgl64.Vec2{targetX, footY - c}, true
		}
	}
	return mgl64.Vec2{}, false
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
