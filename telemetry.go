package main

import "sync/atomic"

// telemetryCounters tracks cheap process-lifetime counters for the
// diagnostics endpoint. Everything is atomic; there is no lock shared
// with the simulation.
type telemetryCounters struct {
	ticksProcessed     atomic.Uint64
	projectilesFired   atomic.Uint64
	detonations        atomic.Uint64
	cratersCarved      atomic.Uint64
	commandsDropped    atomic.Uint64
	broadcastBytes     atomic.Uint64
	tickDurationMillis atomic.Int64
}

func (t *telemetryCounters) RecordTick(durationMillis int64) {
	t.ticksProcessed.Add(1)
	t.tickDurationMillis.Store(durationMillis)
}

func (t *telemetryCounters) RecordFire() { t.projectilesFired.Add(1) }

func (t *telemetryCounters) RecordDetonations(n int) {
	if n > 0 {
		t.detonations.Add(uint64(n))
	}
}

func (t *telemetryCounters) RecordCarves(n int) {
	if n > 0 {
		t.cratersCarved.Add(uint64(n))
	}
}
func (t *telemetryCounters) RecordDroppedCommand() { t.commandsDropped.Add(1) }

func (t *telemetryCounters) RecordBroadcast(bytes int) {
	if bytes > 0 {
		t.broadcastBytes.Add(uint64(bytes))
	}
}

type telemetrySnapshot struct {
	TicksProcessed     uint64 `json:"ticksProcessed"`
	ProjectilesFired   uint64 `json:"projectilesFired"`
	Detonations        uint64 `json:"detonations"`
	CratersCarved      uint64 `json:"cratersCarved"`
	CommandsDropped    uint64 `json:"commandsDropped"`
	BroadcastBytes     uint64 `json:"broadcastBytes"`
	TickDurationMillis int64  `json:"tickDurationMillis"`
}

func (t *telemetryCounters) Snapshot() telemetrySnapshot {
	return telemetrySnapshot{
		TicksProcessed:     t.ticksProcessed.Load(),
		ProjectilesFired:   t.projectilesFired.Load(),
		Detonations:        t.detonations.Load(),
		CratersCarved:      t.cratersCarved.Load(),
		CommandsDropped:    t.commandsDropped.Load(),
		BroadcastBytes:     t.broadcastBytes.Load(),
		TickDurationMillis: t.tickDurationMillis.Load(),
	}
}
