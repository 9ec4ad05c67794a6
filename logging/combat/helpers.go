package combat

import (
	"context"

	"drop-bears/server/logging"
)

const (
	// EventDetonation is emitted once per resolved explosion.
	EventDetonation logging.EventType = "combat.detonation"
	// EventDirectHit is emitted when a projectile strikes a koala before
	// any terrain contact.
	EventDirectHit logging.EventType = "combat.direct_hit"
	// EventFallDamage is emitted when a landing exceeds the fall threshold.
	EventFallDamage logging.EventType = "combat.fall_damage"
	// EventDefeat is emitted when a koala's health reaches zero.
	EventDefeat logging.EventType = "combat.defeat"
)

// DetonationPayload summarizes an explosion and its area victims.
type DetonationPayload struct {
	Weapon string  `json:"weapon"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Hits   int     `json:"hits"`
}

// DirectHitPayload captures the bonus damage of a confirmed direct hit.
type DirectHitPayload struct {
	Weapon string  `json:"weapon"`
	Amount float64 `json:"amount"`
}

// FallDamagePayload captures damage applied by a hard landing.
type FallDamagePayload struct {
	Amount float64 `json:"amount"`
	Health float64 `json:"health"`
}

// DefeatPayload describes the source of a fatal blow.
type DefeatPayload struct {
	Weapon string `json:"weapon,omitempty"`
}

func Detonation(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, payload DetonationPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDetonation,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func DirectHit(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, target logging.EntityRef, payload DirectHitPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDirectHit,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func FallDamage(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FallDamagePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFallDamage,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

func Defeat(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DefeatPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDefeat,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}
