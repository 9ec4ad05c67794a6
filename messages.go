package main

import "drop-bears/server/internal/sim"

// joinResponse seeds a client with its identity and the full world.
type joinResponse struct {
	ID      string       `json:"id"`
	Width   int          `json:"width"`
	Height  int          `json:"height"`
	State   sim.Snapshot `json:"state"`
	Weapons []string     `json:"weapons"`
}

// stateMessage is the per-tick broadcast.
type stateMessage struct {
	Type       string       `json:"type"`
	State      sim.Snapshot `json:"state"`
	ServerTime int64        `json:"serverTime"`
}

// clientMessage is the single envelope for everything a client sends
// over the socket. Type selects which fields matter.
type clientMessage struct {
	Type   string  `json:"type"` // move | jump | fire | setTimer | heartbeat
	Dir    float64 `json:"dir,omitempty"`
	Weapon string  `json:"weapon,omitempty"`
	AimX   float64 `json:"aimX,omitempty"`
	AimY   float64 `json:"aimY,omitempty"`
	Power  float64 `json:"power,omitempty"`
	Timer  float64 `json:"timer,omitempty"`
	SentAt int64   `json:"sentAt,omitempty"`
}

// heartbeatMessage acknowledges a client heartbeat.
type heartbeatMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
}
