package lifecycle

import (
	"context"

	"drop-bears/server/logging"
)

const (
	// EventProjectileDestroyed is emitted when a projectile leaves the
	// active set for any reason.
	EventProjectileDestroyed logging.EventType = "lifecycle.projectile_destroyed"
	// EventDudActivated is emitted exactly once when a dud mine triggers.
	EventDudActivated logging.EventType = "lifecycle.dud_activated"
	// EventDrowned is emitted when a koala sinks below the waterline.
	EventDrowned logging.EventType = "lifecycle.drowned"
	// EventKoalaSpawned is emitted when a koala is placed on the map.
	EventKoalaSpawned logging.EventType = "lifecycle.koala_spawned"
)

// Destruction reasons carried on projectile_destroyed events.
const (
	ReasonDetonated   = "detonated"
	ReasonOutOfBounds = "out_of_bounds"
	ReasonRopePull    = "rope_pull"
)

type ProjectileDestroyedPayload struct {
	Weapon string `json:"weapon"`
	Reason string `json:"reason"`
}

func ProjectileDestroyed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload ProjectileDestroyedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventProjectileDestroyed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

func DudActivated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDudActivated,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	})
}

func Drowned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDrowned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	})
}

type KoalaSpawnedPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func KoalaSpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload KoalaSpawnedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventKoalaSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}
