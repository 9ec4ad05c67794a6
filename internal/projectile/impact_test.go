package projectile

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"drop-bears/server/internal/entity"
	"drop-bears/server/internal/terrain"
	"drop-bears/server/weapons/catalog"
)

func TestImpactDamageFalloff(t *testing.T) {
	field := terrain.NewField(400, 400)
	r := NewImpactResolver(field, nil)

	weapon := catalog.WeaponProfile{ID: "test", Damage: 40, ExplosionRadius: 40, Knockback: 200}
	at := mgl64.Vec2{200, 200}

	near := entity.NewKoala("near", mgl64.Vec2{0, 0})
	near.Pos = mgl64.Vec2{210, 200} // 10px: 75% strength
	mid := entity.NewKoala("mid", mgl64.Vec2{0, 0})
	mid.Pos = mgl64.Vec2{200, 220} // 20px: 50% strength
	far := entity.NewKoala("far", mgl64.Vec2{0, 0})
	far.Pos = mgl64.Vec2{200, 245} // 45px: outside
	rim := entity.NewKoala("rim", mgl64.Vec2{0, 0})
	rim.Pos = mgl64.Vec2{240, 200} // exactly at radius: zero

	report := r.Resolve(1, at, weapon, nil, []*entity.Koala{near, mid, far, rim})

	if len(report.Hits) != 2 {
		t.Fatalf("hits = %d, want 2", len(report.Hits))
	}
	if near.Health != 70 {
		t.Fatalf("near health = %v, want 70", near.Health)
	}
	if mid.Health != 80 {
		t.Fatalf("mid health = %v, want 80", mid.Health)
	}
	if far.Health != 100 || rim.Health != 100 {
		t.Fatalf("koalas at or beyond the radius must be untouched")
	}

	// Knockback points from the blast to the victim and scales with the
	// same falloff.
	if near.Vel.X() <= 0 || math.Abs(near.Vel.X()-150) > 1e-9 {
		t.Fatalf("near knockback = %v, want (150,0)", near.Vel)
	}
	if mid.Vel.Y() <= 0 || math.Abs(mid.Vel.Y()-100) > 1e-9 {
		t.Fatalf("mid knockback = %v, want (0,100)", mid.Vel)
	}
	if near.OnGround || mid.OnGround {
		t.Fatalf("knockback must unstick victims")
	}
}

func TestImpactPointBlankKnockbackGoesUp(t *testing.T) {
	field := terrain.NewField(100, 100)
	r := NewImpactResolver(field, nil)

	weapon := catalog.WeaponProfile{ID: "test", Damage: 40, ExplosionRadius: 40, Knockback: 200}
	k := entity.NewKoala("k", mgl64.Vec2{0, 0})
	k.Pos = mgl64.Vec2{50, 50}

	r.Resolve(1, mgl64.Vec2{50, 50}, weapon, nil, []*entity.Koala{k})

	if k.Vel.Y() >= 0 {
		t.Fatalf("zero-distance knockback must default upward, got %v", k.Vel)
	}
	if k.Health != 60 {
		t.Fatalf("zero-distance damage must be full strength, health %v", k.Health)
	}
}

func TestImpactDirectBonusFallsBackToDamage(t *testing.T) {
	field := terrain.NewField(100, 100)
	r := NewImpactResolver(field, nil)

	k := entity.NewKoala("k", mgl64.Vec2{0, 0})
	k.Pos = mgl64.Vec2{50, 50}

	// No explosion payload, no directDamage: the direct hit falls back
	// to the base damage.
	weapon := catalog.WeaponProfile{ID: "dart", Damage: 25}
	report := r.Resolve(1, mgl64.Vec2{48, 50}, weapon, k, []*entity.Koala{k})

	if report.DirectHit != "k" {
		t.Fatalf("direct hit = %q", report.DirectHit)
	}
	if k.Health != 75 {
		t.Fatalf("health = %v, want 75", k.Health)
	}
}

func TestImpactFatalHitReported(t *testing.T) {
	field := terrain.NewField(100, 100)
	r := NewImpactResolver(field, nil)

	k := entity.NewKoala("k", mgl64.Vec2{0, 0})
	k.Pos = mgl64.Vec2{50, 50}
	k.Health = 10

	weapon := catalog.WeaponProfile{ID: "test", Damage: 40, ExplosionRadius: 40}
	report := r.Resolve(1, mgl64.Vec2{50, 50}, weapon, nil, []*entity.Koala{k})

	if len(report.Hits) != 1 || !report.Hits[0].Fatal {
		t.Fatalf("fatal hit must be reported, got %+v", report.Hits)
	}
	if k.Alive {
		t.Fatalf("koala must be dead")
	}
}

func TestImpactCarvesOnlyWithRadius(t *testing.T) {
	field := terrain.NewField(100, 100)
	field.FillRect(0, 0, 99, 99, 255)
	r := NewImpactResolver(field, nil)

	r.Resolve(1, mgl64.Vec2{50, 50}, catalog.WeaponProfile{ID: "dart", Damage: 10}, nil, nil)
	if field.DrainCarves() != nil {
		t.Fatalf("zero-radius weapon must not carve")
	}

	r.Resolve(1, mgl64.Vec2{50, 50}, catalog.WeaponProfile{ID: "boom", Damage: 10, ExplosionRadius: 20}, nil, nil)
	if len(field.DrainCarves()) != 1 {
		t.Fatalf("explosive weapon must carve")
	}
}
