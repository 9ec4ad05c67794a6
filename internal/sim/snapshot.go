package sim

import (
	"drop-bears/server/internal/terrain"
)

// KoalaSnapshot is the wire form of one character.
type KoalaSnapshot struct {
	ID       string  `json:"id"`
	Team     string  `json:"team,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Health   float64 `json:"health"`
	Alive    bool    `json:"alive"`
	OnGround bool    `json:"onGround"`
	Jumping  bool    `json:"jumping,omitempty"`
}

// ProjectileSnapshot is the wire form of one projectile.
type ProjectileSnapshot struct {
	ID          uint64  `json:"id"`
	Weapon      string  `json:"weapon"`
	Kind        string  `json:"kind"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	VX          float64 `json:"vx"`
	VY          float64 `json:"vy"`
	Rotation    float64 `json:"rotation"`
	Stationary  bool    `json:"stationary,omitempty"`
	BounceCount int     `json:"bounceCount,omitempty"`
}

// Snapshot is one tick's broadcast state. Terrain travels as carve
// deltas plus a revision counter; clients that miss a revision request
// the full alpha buffer out of band.
type Snapshot struct {
	Tick            uint64               `json:"tick"`
	Wind            float64              `json:"wind"`
	TerrainRevision uint64               `json:"terrainRevision"`
	Carves          []terrain.Carve      `json:"carves,omitempty"`
	Koalas          []KoalaSnapshot      `json:"koalas"`
	Projectiles     []ProjectileSnapshot `json:"projectiles"`
}

// Snapshot captures the current world state. carves is the delta list
// drained by the tick that produced this snapshot.
func (w *World) Snapshot(carves []terrain.Carve) Snapshot {
	snap := Snapshot{
		Tick:            w.tick,
		Wind:            w.wind,
		TerrainRevision: w.field.Revision(),
		Carves:          carves,
		Koalas:          make([]KoalaSnapshot, 0, len(w.koalas)),
		Projectiles:     make([]ProjectileSnapshot, 0, w.projectiles.Count()),
	}
	for _, k := range w.koalas {
		snap.Koalas = append(snap.Koalas, KoalaSnapshot{
			ID:       k.ID,
			Team:     k.Team,
			X:        k.Pos.X(),
			Y:        k.Pos.Y(),
			VX:       k.Vel.X(),
			VY:       k.Vel.Y(),
			Health:   k.Health,
			Alive:    k.Alive,
			OnGround: k.OnGround,
			Jumping:  k.Jumping,
		})
	}
	for _, p := range w.projectiles.Active() {
		snap.Projectiles = append(snap.Projectiles, ProjectileSnapshot{
			ID:          p.ID,
			Weapon:      p.Weapon.ID,
			Kind:        p.Kind.String(),
			X:           p.Pos.X(),
			Y:           p.Pos.Y(),
			VX:          p.Vel.X(),
			VY:          p.Vel.Y(),
			Rotation:    p.Rotation,
			Stationary:  p.Stationary,
			BounceCount: p.BounceCount,
		})
	}
	return snap
}
