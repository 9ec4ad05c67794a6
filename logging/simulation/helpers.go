package simulation

import (
	"context"

	"drop-bears/server/logging"
)

const (
	// EventWindChanged is emitted when the per-turn wind is rerolled.
	EventWindChanged logging.EventType = "simulation.wind_changed"
	// EventSalvoScheduled is emitted when a salvo weapon stages future
	// spawns on the simulation-time scheduler.
	EventSalvoScheduled logging.EventType = "simulation.salvo_scheduled"
)

type WindChangedPayload struct {
	Wind float64 `json:"wind"`
}

func WindChanged(ctx context.Context, pub logging.Publisher, tick uint64, payload WindChangedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventWindChanged,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindWorld},
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

type SalvoScheduledPayload struct {
	Weapon string `json:"weapon"`
	Count  int    `json:"count"`
}

func SalvoScheduled(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SalvoScheduledPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSalvoScheduled,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}
