package projectile

import (
	"context"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"drop-bears/server/internal/entity"
	"drop-bears/server/internal/terrain"
	"drop-bears/server/logging"
	logcombat "drop-bears/server/logging/combat"
	"drop-bears/server/weapons/catalog"
)

// HitReport is one koala affected by a detonation.
type HitReport struct {
	KoalaID string
	Damage  float64
	Fatal   bool
}

// ImpactReport summarizes one resolved detonation.
type ImpactReport struct {
	DirectHit string
	Hits      []HitReport
}

// ImpactResolver turns a detonation point into terrain and character
// consequences: carve first, then damage and knockback, so the crater
// exists before anyone reacts to it.
type ImpactResolver struct {
	field     *terrain.Field
	publisher logging.Publisher
}

func NewImpactResolver(field *terrain.Field, publisher logging.Publisher) *ImpactResolver {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &ImpactResolver{field: field, publisher: publisher}
}

// Resolve applies one detonation. direct, when non-nil, is a koala the
// projectile struck in flight; it takes bonus damage on top of any area
// damage. Area damage falls off linearly with distance from the
// detonation point and is zero at or beyond the radius.
func (r *ImpactResolver) Resolve(tick uint64, at mgl64.Vec2, weapon catalog.WeaponProfile, direct *entity.Koala, roster []*entity.Koala) ImpactReport {
	report := ImpactReport{}
	radius := weapon.ExplosionRadius

	if radius > 0 {
		r.field.CarveCrater(at.X(), at.Y(), radius)
	}

	if radius > 0 {
		for _, k := range roster {
			if !k.Alive {
				continue
			}
			dist := k.Pos.Sub(at).Len()
			if dist >= radius {
				continue
			}
			falloff := 1 - dist/radius
			damage := math.Round(weapon.Damage * falloff)
			dir := k.Pos.Sub(at)
			if dir.Len() == 0 {
				dir = mgl64.Vec2{0, -1}
			} else {
				dir = dir.Normalize()
			}
			k.ApplyKnockback(dir.Mul(weapon.Knockback * falloff))
			fatal := k.ApplyDamage(damage)
			report.Hits = append(report.Hits, HitReport{KoalaID: k.ID, Damage: damage, Fatal: fatal})
			if fatal {
				logcombat.Defeat(context.Background(), r.publisher, tick, koalaRef(k), logcombat.DefeatPayload{Weapon: weapon.ID})
			}
		}
	}

	if direct != nil && direct.Alive {
		bonus := weapon.DirectDamage
		if bonus <= 0 {
			bonus = weapon.Damage
		}
		fatal := direct.ApplyDamage(bonus)
		report.DirectHit = direct.ID
		report.Hits = append(report.Hits, HitReport{KoalaID: direct.ID, Damage: bonus, Fatal: fatal})
		logcombat.DirectHit(context.Background(), r.publisher, tick, logging.EntityRef{Kind: logging.EntityKindProjectile, ID: weapon.ID}, koalaRef(direct), logcombat.DirectHitPayload{
			Weapon: weapon.ID,
			Amount: bonus,
		})
		if fatal {
			logcombat.Defeat(context.Background(), r.publisher, tick, koalaRef(direct), logcombat.DefeatPayload{Weapon: weapon.ID})
		}
	}

	logcombat.Detonation(context.Background(), r.publisher, tick, logging.EntityRef{Kind: logging.EntityKindProjectile, ID: weapon.ID}, hitRefs(report.Hits), logcombat.DetonationPayload{
		Weapon: weapon.ID,
		X:      at.X(),
		Y:      at.Y(),
		Radius: radius,
		Hits:   len(report.Hits),
	})
	return report
}

func koalaRef(k *entity.Koala) logging.EntityRef {
	return logging.EntityRef{ID: k.ID, Kind: logging.EntityKindKoala}
}

func hitRefs(hits []HitReport) []logging.EntityRef {
	if len(hits) == 0 {
		return nil
	}
	refs := make([]logging.EntityRef, 0, len(hits))
	for _, h := range hits {
		refs = append(refs, logging.EntityRef{ID: h.KoalaID, Kind: logging.EntityKindKoala})
	}
	return refs
}
