package projectile

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"pgregory.net/rapid"

	"drop-bears/server/internal/entity"
	"drop-bears/server/internal/terrain"
	"drop-bears/server/weapons/catalog"
)

func groundField(w, h, groundY int) *terrain.Field {
	f := terrain.NewField(w, h)
	f.FillRect(0, groundY, w-1, h-1, 255)
	return f
}

func newTestSim(f *terrain.Field, seed int64) *Simulation {
	return NewSimulation(f, Config{
		WorldWidth:  float64(f.Width()),
		WorldHeight: float64(f.Height()),
	}, rand.New(rand.NewSource(seed)), nil)
}

func TestBounceReflection(t *testing.T) {
	field := groundField(400, 200, 100)
	s := newTestSim(field, 1)

	profile := catalog.WeaponProfile{
		ID: "grenade", Bounces: true, Bounciness: 0.6,
		UsesTimer: true, DefaultTimer: 10,
	}
	p := s.Spawn("s", profile, mgl64.Vec2{50, 95}, mgl64.Vec2{0, 300}, 0)

	s.Step(1, 0.05, 0, nil)

	if p.BounceCount != 1 {
		t.Fatalf("bounce count = %d, want 1", p.BounceCount)
	}
	if p.Stationary {
		t.Fatalf("a live bounce must keep flying")
	}
	// Flat ground: pure vertical reflection scaled by bounciness.
	if math.Abs(p.Vel.Y()+180) > 1e-6 || math.Abs(p.Vel.X()) > 1e-6 {
		t.Fatalf("reflected velocity = %v, want (0,-180)", p.Vel)
	}
	if field.CheckCollision(p.Pos.X(), p.Pos.Y()) {
		t.Fatalf("bounced projectile must be nudged out of the mask")
	}
	if !p.Timer().Started {
		t.Fatalf("first terrain contact must start the timer")
	}
}

func TestWeakBounceSettles(t *testing.T) {
	field := groundField(400, 200, 100)
	s := newTestSim(field, 1)

	profile := catalog.WeaponProfile{
		ID: "grenade", Bounces: true, Bounciness: 0.1,
		UsesTimer: true, DefaultTimer: 10,
	}
	p := s.Spawn("s", profile, mgl64.Vec2{50, 95}, mgl64.Vec2{0, 300}, 0)

	s.Step(1, 0.05, 0, nil)

	if !p.Stationary {
		t.Fatalf("a dead bounce must settle")
	}
	if p.Vel.Len() != 0 {
		t.Fatalf("settled projectile velocity = %v, want zero", p.Vel)
	}
	if field.CheckCollision(p.Pos.X(), p.Pos.Y()) {
		t.Fatalf("settled projectile must rest outside the mask")
	}
}

func TestThinWallNeverTunnels(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		field := terrain.NewField(2400, 200)
		field.FillRect(1200, 0, 1207, 199, 255) // 8px wall

		s := newTestSim(field, 1)
		profile := catalog.WeaponProfile{ID: "bazooka", Damage: 40, ExplosionRadius: 30}

		startX := rapid.Float64Range(900, 1190).Draw(t, "startX")
		speed := rapid.Float64Range(500, 8000).Draw(t, "speed")
		p := s.Spawn("s", profile, mgl64.Vec2{startX, 50}, mgl64.Vec2{speed, 0}, 0)

		detonated := false
		for tick := uint64(1); tick <= 20 && !detonated; tick++ {
			out := s.Step(tick, 0.05, 0, nil)
			detonated = len(out.Detonations) > 0
			if !detonated && p.Pos.X() > 1210 {
				t.Fatalf("projectile tunnelled through the wall to x=%v at speed %v", p.Pos.X(), speed)
			}
		}
		if !detonated {
			t.Fatalf("projectile never reached the wall")
		}
	})
}

func TestBallisticDetonationCarvesSameTick(t *testing.T) {
	field := terrain.NewField(400, 200)
	field.FillRect(200, 0, 207, 199, 255)
	s := newTestSim(field, 1)

	profile := catalog.WeaponProfile{ID: "bazooka", Damage: 40, ExplosionRadius: 30}
	p := s.Spawn("s", profile, mgl64.Vec2{150, 50}, mgl64.Vec2{2000, 0}, 0)

	out := s.Step(1, 0.05, 0, nil)

	if len(out.Detonations) != 1 {
		t.Fatalf("detonations = %d, want 1", len(out.Detonations))
	}
	if len(out.Removed) != 1 || out.Removed[0] != p.ID {
		t.Fatalf("projectile must be removed the same tick, got %v", out.Removed)
	}
	if s.Count() != 0 {
		t.Fatalf("active projectiles = %d, want 0", s.Count())
	}
	at := out.Detonations[0].At
	if field.CheckCollision(at.X(), at.Y()) {
		t.Fatalf("impact point must be carved to air")
	}
	carves := field.DrainCarves()
	if len(carves) != 1 || carves[0].Radius != 30 {
		t.Fatalf("carve record = %v", carves)
	}
}

func TestRopeAnchorsWithoutDetonating(t *testing.T) {
	field := groundField(400, 200, 100)
	s := newTestSim(field, 1)

	shooter := entity.NewKoala("s", mgl64.Vec2{100, 100})
	roster := []*entity.Koala{shooter}

	profile := catalog.WeaponProfile{ID: "rope", Rope: true}
	s.Spawn("s", profile, mgl64.Vec2{150, 90}, mgl64.Vec2{0, 300}, 0)

	out := s.Step(1, 0.05, 0, roster)

	if len(out.RopePulls) != 1 {
		t.Fatalf("rope pulls = %d, want 1", len(out.RopePulls))
	}
	if len(out.Detonations) != 0 {
		t.Fatalf("rope must never detonate")
	}
	if field.DrainCarves() != nil {
		t.Fatalf("rope must not carve terrain")
	}
	if s.Count() != 0 {
		t.Fatalf("rope must be consumed on anchor")
	}
	if shooter.Vel.Len() == 0 {
		t.Fatalf("shooter must receive a pull impulse")
	}
	if shooter.Vel.X() <= 0 {
		t.Fatalf("pull must point toward the anchor, got %v", shooter.Vel)
	}
	if shooter.OnGround {
		t.Fatalf("pull must unstick the shooter")
	}
}

func TestDirectHitSkipsShooter(t *testing.T) {
	field := terrain.NewField(400, 200)
	s := newTestSim(field, 1)

	shooter := entity.NewKoala("s", mgl64.Vec2{100, 64})
	shooter.Pos = mgl64.Vec2{100, 50}
	target := entity.NewKoala("t", mgl64.Vec2{160, 64})
	target.Pos = mgl64.Vec2{160, 50}
	roster := []*entity.Koala{shooter, target}

	profile := catalog.WeaponProfile{ID: "bazooka", Damage: 40, DirectDamage: 60, ExplosionRadius: 30}
	s.Spawn("s", profile, mgl64.Vec2{100, 50}, mgl64.Vec2{1600, 0}, 0)

	out := s.Step(1, 0.05, 0, roster)

	if len(out.Detonations) != 1 {
		t.Fatalf("detonations = %d, want 1", len(out.Detonations))
	}
	det := out.Detonations[0]
	if det.DirectHit != "t" {
		t.Fatalf("direct hit = %q, want t", det.DirectHit)
	}
	// Area damage at 20px of a 30px radius rounds to 13, plus the 60
	// direct bonus.
	if target.Health != 100-13-60 {
		t.Fatalf("target health = %v, want 27", target.Health)
	}
	if shooter.Health != 100 {
		t.Fatalf("shooter must be immune to its own projectile, health %v", shooter.Health)
	}
}

func TestOutOfBoundsRemovesSilently(t *testing.T) {
	field := terrain.NewField(400, 200)
	s := newTestSim(field, 1)

	profile := catalog.WeaponProfile{ID: "bazooka", Damage: 40, ExplosionRadius: 30}
	s.Spawn("s", profile, mgl64.Vec2{395, 20}, mgl64.Vec2{3000, 0}, 0)

	out := s.Step(1, 0.05, 0, nil)

	if len(out.Detonations) != 0 {
		t.Fatalf("exit must not detonate")
	}
	if len(out.Removed) != 1 {
		t.Fatalf("removed = %v, want one entry", out.Removed)
	}
	if field.DrainCarves() != nil {
		t.Fatalf("exit must not carve")
	}
}

func TestProximityMineLifecycle(t *testing.T) {
	field := groundField(400, 200, 100)
	s := newTestSim(field, 1)

	shooter := entity.NewKoala("s", mgl64.Vec2{40, 100})
	roster := []*entity.Koala{shooter}

	profile := catalog.WeaponProfile{
		ID: "mine", TriggeredByProximity: true, TriggerDelay: 0.5,
		Damage: 40, ExplosionRadius: 30,
	}
	mine := s.Spawn("s", profile, mgl64.Vec2{200, 95}, mgl64.Vec2{0, 200}, 0)

	// Settle the mine and give the shooter time next to it: the shooter
	// never trips its own mine.
	for tick := uint64(1); tick <= 20; tick++ {
		if out := s.Step(tick, 0.05, 0, roster); len(out.Detonations) != 0 {
			t.Fatalf("mine fired without an enemy at tick %d", tick)
		}
	}
	if !mine.Stationary {
		t.Fatalf("mine must settle on the ground")
	}
	if mine.Proximity().Triggered {
		t.Fatalf("shooter proximity must not trigger the mine")
	}

	enemy := entity.NewKoala("e", mgl64.Vec2{220, 100})
	roster = append(roster, enemy)

	var detonated bool
	for tick := uint64(21); tick <= 60 && !detonated; tick++ {
		out := s.Step(tick, 0.05, 0, roster)
		detonated = len(out.Detonations) == 1
	}
	if !detonated {
		t.Fatalf("armed mine must detonate after the trigger delay")
	}
	if enemy.Health == 100 {
		t.Fatalf("enemy in blast radius must take damage")
	}
	if s.Count() != 0 {
		t.Fatalf("detonated mine must be removed")
	}
}

func TestDudMineGoesInertForever(t *testing.T) {
	field := groundField(400, 200, 100)
	s := newTestSim(field, 1)

	profile := catalog.WeaponProfile{
		ID: "mine", TriggeredByProximity: true, TriggerDelay: 0.5,
		DudChance: 1.0, Damage: 40, ExplosionRadius: 30,
	}
	mine := s.Spawn("s", profile, mgl64.Vec2{200, 95}, mgl64.Vec2{0, 200}, 0)

	enemy := entity.NewKoala("e", mgl64.Vec2{210, 100})
	roster := []*entity.Koala{enemy}

	dudSignals := 0
	for tick := uint64(1); tick <= 100; tick++ {
		out := s.Step(tick, 0.05, 0, roster)
		dudSignals += len(out.Duds)
		if len(out.Detonations) != 0 {
			t.Fatalf("dud must never detonate")
		}
	}
	if dudSignals != 1 {
		t.Fatalf("dud signals = %d, want exactly 1", dudSignals)
	}
	if s.Count() != 1 {
		t.Fatalf("dud must stay on the map, count = %d", s.Count())
	}
	if !mine.Inert() {
		t.Fatalf("activated dud must report inert")
	}
}

func TestStickingTimerDetonatesAtRest(t *testing.T) {
	field := groundField(400, 200, 100)
	s := newTestSim(field, 1)

	profile := catalog.WeaponProfile{
		ID: "sticky", UsesTimer: true, FixedTimer: 0.2,
		Damage: 50, ExplosionRadius: 30,
	}
	sticky := s.Spawn("s", profile, mgl64.Vec2{120, 95}, mgl64.Vec2{0, 250}, 0)

	var rest mgl64.Vec2
	var detonated bool
	for tick := uint64(1); tick <= 20 && !detonated; tick++ {
		out := s.Step(tick, 0.05, 0, nil)
		if sticky.Stationary && rest.Len() == 0 {
			rest = sticky.Pos
		}
		if len(out.Detonations) == 1 {
			detonated = true
			if out.Detonations[0].At.Sub(rest).Len() > 1e-9 {
				t.Fatalf("detonation at %v, want rest position %v", out.Detonations[0].At, rest)
			}
		}
	}
	if !detonated {
		t.Fatalf("sticky bomb never detonated")
	}
}

func TestSettleDetonateAfterCalm(t *testing.T) {
	field := groundField(400, 200, 100)
	s := newTestSim(field, 1)

	profile := catalog.WeaponProfile{
		ID: "holy", ExplodesOnSettle: true, SettleVelocityThreshold: 25,
		Bounces: true, Bounciness: 0.3, GravityMultiplier: 1.0,
		Damage: 75, ExplosionRadius: 40,
	}
	s.Spawn("s", profile, mgl64.Vec2{120, 60}, mgl64.Vec2{40, 200}, 0)

	var detonated bool
	for tick := uint64(1); tick <= 200 && !detonated; tick++ {
		out := s.Step(tick, 0.05, 0, nil)
		detonated = len(out.Detonations) == 1
	}
	if !detonated {
		t.Fatalf("settle weapon never detonated")
	}
}

func TestFireUsesProfileSpeedAndPower(t *testing.T) {
	field := terrain.NewField(400, 200)
	s := newTestSim(field, 1)

	profile := catalog.WeaponProfile{ID: "bazooka", Speed: 700, Damage: 40, ExplosionRadius: 30}

	full := s.Fire("s", profile, mgl64.Vec2{50, 50}, mgl64.Vec2{1, 0}, 1.0, 0)
	if math.Abs(full.Vel.X()-700) > 1e-9 {
		t.Fatalf("full power velocity = %v", full.Vel)
	}

	half := s.Fire("s", profile, mgl64.Vec2{50, 50}, mgl64.Vec2{0, -2}, 0.5, 0)
	if math.Abs(half.Vel.Y()+350) > 1e-9 || half.Vel.X() != 0 {
		t.Fatalf("half power velocity = %v, want (0,-350)", half.Vel)
	}
}
