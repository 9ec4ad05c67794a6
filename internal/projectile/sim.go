package projectile

import (
	"context"
	"math"
	"math/rand"
	"strconv"

	"github.com/go-gl/mathgl/mgl64"

	"drop-bears/server/internal/entity"
	"drop-bears/server/internal/terrain"
	"drop-bears/server/logging"
	loglifecycle "drop-bears/server/logging/lifecycle"
	"drop-bears/server/weapons/catalog"
)

// Config tunes projectile flight and collision. Zero values are
// replaced with defaults by Normalized.
type Config struct {
	// Gravity is the downward acceleration in px/s^2 applied to
	// projectiles, scaled per weapon by GravityMultiplier.
	Gravity float64
	// WindScale converts the current wind value into horizontal
	// acceleration for wind-affected weapons.
	WindScale float64
	// MarchStep is the sampling pitch of the collision ray march.
	MarchStep float64
	// ProximityRadius is the distance at which a settled mine trips.
	ProximityRadius float64
	// CharacterRadius is the capsule radius used for direct hits.
	CharacterRadius float64
	// BounceLiveSpeed is the post-reflection speed below which a
	// bouncing projectile settles instead of flying on.
	BounceLiveSpeed float64
	// ExitMargin is how far past the world edge a projectile may travel
	// before it is removed without detonating.
	ExitMargin float64
	// RopePull is the impulse magnitude applied to the shooter when a
	// rope anchors.
	RopePull float64
	// RopeLift is the extra upward impulse added on top of the pull so
	// a horizontal rope still clears ledges.
	RopeLift float64

	WorldWidth  float64
	WorldHeight float64
}

// Normalized fills in default tuning for any zero field.
func (c Config) Normalized() Config {
	if c.Gravity <= 0 {
		c.Gravity = 500
	}
	if c.WindScale <= 0 {
		c.WindScale = 1
	}
	if c.MarchStep <= 0 {
		c.MarchStep = 4
	}
	if c.ProximityRadius <= 0 {
		c.ProximityRadius = 50
	}
	if c.CharacterRadius <= 0 {
		c.CharacterRadius = 20
	}
	if c.BounceLiveSpeed <= 0 {
		c.BounceLiveSpeed = 40
	}
	if c.ExitMargin <= 0 {
		c.ExitMargin = 100
	}
	if c.RopePull <= 0 {
		c.RopePull = 420
	}
	if c.RopeLift <= 0 {
		c.RopeLift = 160
	}
	return c
}

// Nudge distances applied after terrain contact, along the surface
// normal, so a projectile never starts its next tick inside the mask.
const (
	bounceNudge = 4.0
	settleNudge = 2.0
)

// Detonation reports one resolved explosion within a step.
type Detonation struct {
	ProjectileID uint64
	Weapon       string
	At           mgl64.Vec2
	Radius       float64
	DirectHit    string
	Hits         []HitReport
}

// RopePull reports a rope anchoring and the impulse it applied.
type RopePull struct {
	Shooter string
	Anchor  mgl64.Vec2
}

// StepOutput aggregates everything a projectile step did to the world.
type StepOutput struct {
	Detonations []Detonation
	Duds        []uint64
	RopePulls   []RopePull
	Removed     []uint64
}

// Simulation owns every live projectile and advances them one fixed
// tick at a time against the terrain field and character roster.
type Simulation struct {
	cfg       Config
	field     *terrain.Field
	resolver  *ImpactResolver
	publisher logging.Publisher
	rng       *rand.Rand

	nextID uint64
	active []*Projectile
}

func NewSimulation(field *terrain.Field, cfg Config, rng *rand.Rand, publisher logging.Publisher) *Simulation {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	cfg = cfg.Normalized()
	return &Simulation{
		cfg:       cfg,
		field:     field,
		resolver:  NewImpactResolver(field, publisher),
		publisher: publisher,
		rng:       rng,
		nextID:    1,
	}
}

// Active returns the live projectile slice. Callers must not mutate it.
func (s *Simulation) Active() []*Projectile { return s.active }

// Count reports how many projectiles are live, including inert duds.
func (s *Simulation) Count() int { return len(s.active) }

// Fire spawns a projectile at the muzzle with the profile's launch
// speed along dir. Power in (0,1] scales the speed; zero means full
// power. playerTimer is the player's timer selection in seconds;
// profiles with a fixed timer ignore it.
func (s *Simulation) Fire(shooter string, profile catalog.WeaponProfile, muzzle, dir mgl64.Vec2, power, playerTimer float64) *Projectile {
	if power <= 0 || power > 1 {
		power = 1
	}
	if dir.Len() == 0 {
		dir = mgl64.Vec2{1, 0}
	} else {
		dir = dir.Normalize()
	}
	vel := dir.Mul(profile.Speed * power)
	return s.Spawn(shooter, profile, muzzle, vel, playerTimer)
}

// Spawn inserts a projectile with an explicit velocity. Salvo drops and
// tests use this directly. The dud roll happens here so the outcome is
// fixed for the projectile's whole life.
func (s *Simulation) Spawn(shooter string, profile catalog.WeaponProfile, pos, vel mgl64.Vec2, playerTimer float64) *Projectile {
	dud := profile.DudChance > 0 && s.rng.Float64() < profile.DudChance
	p := newProjectile(s.nextID, shooter, profile, pos, vel, playerTimer, dud)
	s.nextID++
	s.active = append(s.active, p)
	return p
}

// Step advances every projectile by dt and compacts the active set.
// Detonations carve and damage immediately, so later projectiles in the
// same tick already see the updated terrain.
func (s *Simulation) Step(tick uint64, dt, wind float64, roster []*entity.Koala) StepOutput {
	out := StepOutput{}
	survivors := s.active[:0]
	for _, p := range s.active {
		s.stepOne(tick, dt, wind, p, roster, &out)
		if p.Destroyed {
			out.Removed = append(out.Removed, p.ID)
			continue
		}
		survivors = append(survivors, p)
	}
	// Zero the tail so removed projectiles can be collected.
	for i := len(survivors); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = survivors
	return out
}

func (s *Simulation) stepOne(tick uint64, dt, wind float64, p *Projectile, roster []*entity.Koala, out *StepOutput) {
	prev := p.Pos

	// 1. Integrate. Stationary projectiles hold position but their
	// fuses keep running.
	if !p.Stationary {
		ay := s.cfg.Gravity * p.Weapon.GravityMultiplier
		ax := 0.0
		if p.Weapon.AffectedByWind {
			ax = wind * s.cfg.WindScale
		}
		p.Vel = p.Vel.Add(mgl64.Vec2{ax * dt, ay * dt})
		p.Pos = p.Pos.Add(p.Vel.Mul(dt))
		p.Rotation = math.Atan2(p.Vel.Y(), p.Vel.X())
	}

	// 2. Fuse state machines.
	signal := p.updateFuses(dt)

	// 3. Proximity arming: a settled, untriggered mine trips when any
	// living koala other than its shooter comes within range.
	if p.Kind == KindProximityMine && p.Stationary && !p.proximity.Triggered {
		for _, k := range roster {
			if !k.Alive || k.ID == p.Shooter {
				continue
			}
			if k.Pos.Sub(p.Pos).Len() <= s.cfg.ProximityRadius {
				p.proximity.Trigger()
				break
			}
		}
	}

	// 4. Fuse outcomes.
	switch signal {
	case SignalDetonate:
		s.detonate(tick, p, p.Pos, nil, roster, out)
		return
	case SignalDud:
		out.Duds = append(out.Duds, p.ID)
		loglifecycle.DudActivated(context.Background(), s.publisher, tick, projectileRef(p))
	}

	// 5. Settled projectiles do no collision work.
	if p.Stationary {
		return
	}

	// 6. Terrain ray march over the segment travelled this tick.
	hit, hitAt := s.marchTerrain(prev, p.Pos)
	if hit {
		switch {
		case p.Kind == KindRope:
			s.anchorRope(tick, p, hitAt, roster, out)
			return
		case p.Kind == KindBouncing || (p.Kind == KindSettleDetonate && p.Weapon.Bounces):
			s.bounce(p, hitAt)
			// A bounce that settled the projectile still nudged it
			// clear of the mask; either way it stays live.
		case p.Kind == KindSticking || p.Kind == KindProximityMine || p.Kind == KindSettleDetonate:
			s.stick(p, hitAt)
		default:
			s.detonate(tick, p, hitAt, nil, roster, out)
			return
		}
	}

	// 7. World exit: silently remove once well past the edge.
	if s.outOfBounds(p.Pos) {
		p.Destroyed = true
		loglifecycle.ProjectileDestroyed(context.Background(), s.publisher, tick, projectileRef(p), loglifecycle.ProjectileDestroyedPayload{
			Weapon: p.Weapon.ID,
			Reason: loglifecycle.ReasonOutOfBounds,
		})
		return
	}

	// 8. Character collision along the same segment. Skipped once a
	// terrain contact redirected the path this tick.
	if hit || p.Inert() {
		return
	}
	if target, at, ok := s.marchCharacters(prev, p.Pos, p.Shooter, roster); ok {
		s.detonate(tick, p, at, target, roster, out)
	}
}

// marchTerrain samples the segment at the configured pitch and returns
// the first point inside the mask. The end point is always sampled so
// slow projectiles cannot rest inside terrain.
func (s *Simulation) marchTerrain(from, to mgl64.Vec2) (bool, mgl64.Vec2) {
	delta := to.Sub(from)
	dist := delta.Len()
	samples := int(math.Ceil(dist / s.cfg.MarchStep))
	if samples < 1 {
		samples = 1
	}
	for i := 1; i <= samples; i++ {
		t := float64(i) / float64(samples)
		pt := from.Add(delta.Mul(t))
		if s.field.CheckCollision(pt.X(), pt.Y()) {
			return true, pt
		}
	}
	return false, mgl64.Vec2{}
}

// marchCharacters samples the same segment against the roster. The
// shooter is immune to its own projectile for the projectile's whole
// life, so point-blank shots and dropped mines are safe.
func (s *Simulation) marchCharacters(from, to mgl64.Vec2, shooter string, roster []*entity.Koala) (*entity.Koala, mgl64.Vec2, bool) {
	delta := to.Sub(from)
	dist := delta.Len()
	samples := int(math.Ceil(dist / s.cfg.MarchStep))
	if samples < 1 {
		samples = 1
	}
	for i := 1; i <= samples; i++ {
		t := float64(i) / float64(samples)
		pt := from.Add(delta.Mul(t))
		for _, k := range roster {
			if !k.Alive || k.ID == shooter {
				continue
			}
			if k.Pos.Sub(pt).Len() <= s.cfg.CharacterRadius {
				return k, pt, true
			}
		}
	}
	return nil, mgl64.Vec2{}, false
}

// bounce reflects the velocity about the surface normal and either
// keeps the projectile flying or settles it, depending on the
// post-reflection speed.
func (s *Simulation) bounce(p *Projectile, at mgl64.Vec2) {
	n := s.field.SurfaceNormal(at.X(), at.Y())
	v := p.Vel
	reflected := v.Sub(n.Mul(2 * v.Dot(n))).Mul(p.Weapon.Bounciness)
	p.contactFuseHook()
	if reflected.Len() > s.cfg.BounceLiveSpeed {
		p.BounceCount++
		p.Vel = reflected
		p.Pos = at.Add(n.Mul(bounceNudge))
		return
	}
	p.Vel = mgl64.Vec2{}
	p.Stationary = true
	p.Pos = at.Add(n.Mul(settleNudge))
}

// stick pins the projectile just off the surface it hit.
func (s *Simulation) stick(p *Projectile, at mgl64.Vec2) {
	n := s.field.SurfaceNormal(at.X(), at.Y())
	p.Vel = mgl64.Vec2{}
	p.Stationary = true
	p.Pos = at.Add(n.Mul(settleNudge))
	p.contactFuseHook()
}

// anchorRope yanks the shooter toward the anchor point and removes the
// rope. No crater, no damage.
func (s *Simulation) anchorRope(tick uint64, p *Projectile, at mgl64.Vec2, roster []*entity.Koala, out *StepOutput) {
	for _, k := range roster {
		if k.ID != p.Shooter || !k.Alive {
			continue
		}
		dir := at.Sub(k.Pos)
		if dir.Len() > 0 {
			dir = dir.Normalize()
		}
		impulse := dir.Mul(s.cfg.RopePull).Add(mgl64.Vec2{0, -s.cfg.RopeLift})
		k.ApplyKnockback(impulse)
		out.RopePulls = append(out.RopePulls, RopePull{Shooter: k.ID, Anchor: at})
		break
	}
	p.Destroyed = true
	loglifecycle.ProjectileDestroyed(context.Background(), s.publisher, tick, projectileRef(p), loglifecycle.ProjectileDestroyedPayload{
		Weapon: p.Weapon.ID,
		Reason: loglifecycle.ReasonRopePull,
	})
}

func (s *Simulation) detonate(tick uint64, p *Projectile, at mgl64.Vec2, direct *entity.Koala, roster []*entity.Koala, out *StepOutput) {
	report := s.resolver.Resolve(tick, at, p.Weapon, direct, roster)
	out.Detonations = append(out.Detonations, Detonation{
		ProjectileID: p.ID,
		Weapon:       p.Weapon.ID,
		At:           at,
		Radius:       p.Weapon.ExplosionRadius,
		DirectHit:    report.DirectHit,
		Hits:         report.Hits,
	})
	p.Destroyed = true
	loglifecycle.ProjectileDestroyed(context.Background(), s.publisher, tick, projectileRef(p), loglifecycle.ProjectileDestroyedPayload{
		Weapon: p.Weapon.ID,
		Reason: loglifecycle.ReasonDetonated,
	})
}

func (s *Simulation) outOfBounds(pos mgl64.Vec2) bool {
	return pos.X() < -s.cfg.ExitMargin ||
		pos.X() > s.cfg.WorldWidth+s.cfg.ExitMargin ||
		pos.Y() > s.cfg.WorldHeight+s.cfg.ExitMargin
}

func projectileRef(p *Projectile) logging.EntityRef {
	return logging.EntityRef{ID: strconv.FormatUint(p.ID, 10), Kind: logging.EntityKindProjectile}
}
