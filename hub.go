package main

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"drop-bears/server/internal/sim"
)

const writeWait = 10 * time.Second

// Hub owns the world and every connected client. The simulation loop is
// the only goroutine that steps the world; socket readers just enqueue
// commands.
type Hub struct {
	mu          sync.Mutex
	world       *sim.World
	subscribers map[string]*subscriber
	commands    *sim.CommandBuffer
	telemetry   *telemetryCounters
	tickRate    int
	weaponIDs   []string
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newHub(world *sim.World, tickRate int, weaponIDs []string, telemetry *telemetryCounters) *Hub {
	if tickRate <= 0 {
		tickRate = 30
	}
	return &Hub{
		world:       world,
		subscribers: make(map[string]*subscriber),
		commands:    sim.NewCommandBuffer(0),
		telemetry:   telemetry,
		tickRate:    tickRate,
		weaponIDs:   weaponIDs,
	}
}

// Join places a new koala and returns the initial full state. The
// session ID doubles as the koala ID.
func (h *Hub) Join() (joinResponse, error) {
	id := uuid.NewString()

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.world.AddKoala(id, ""); err != nil {
		return joinResponse{}, err
	}
	return joinResponse{
		ID:      id,
		Width:   h.world.Field().Width(),
		Height:  h.world.Field().Height(),
		State:   h.world.Snapshot(nil),
		Weapons: h.weaponIDs,
	}, nil
}

// Subscribe attaches a socket to an existing session, replacing any
// previous connection for the same ID.
func (h *Hub) Subscribe(id string, conn *websocket.Conn) (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.world.Koala(id); !ok {
		return nil, false
	}
	if existing, ok := h.subscribers[id]; ok {
		existing.conn.Close()
	}
	sub := &subscriber{conn: conn}
	h.subscribers[id] = sub
	return sub, true
}

// Disconnect drops a subscriber. The koala stays in the world so a
// reconnect resumes the same character.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// HandleMessage translates one client envelope into a queued command.
func (h *Hub) HandleMessage(id string, msg clientMessage) {
	var cmd sim.Command
	switch msg.Type {
	case "move":
		cmd = sim.Command{Actor: id, Kind: sim.CommandMove, Dir: msg.Dir}
	case "jump":
		cmd = sim.Command{Actor: id, Kind: sim.CommandJump}
	case "fire":
		cmd = sim.Command{
			Actor:  id,
			Kind:   sim.CommandFire,
			Weapon: msg.Weapon,
			Aim:    mgl64.Vec2{msg.AimX, msg.AimY},
			Power:  msg.Power,
		}
		h.telemetry.RecordFire()
	case "setTimer":
		cmd = sim.Command{Actor: id, Kind: sim.CommandSetTimer, Timer: msg.Timer}
	default:
		return
	}
	if !h.commands.Enqueue(cmd) {
		h.telemetry.RecordDroppedCommand()
	}
}

// RunSimulation drives the fixed-rate tick loop until ctx is cancelled.
func (h *Hub) RunSimulation(ctx context.Context) error {
	interval := time.Second / time.Duration(h.tickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = interval.Seconds()
			}
			last = now

			started := time.Now()
			h.mu.Lock()
			result := h.world.Step(dt, h.commands.Drain())
			snap := h.world.Snapshot(result.Carves)
			h.mu.Unlock()

			h.telemetry.RecordTick(time.Since(started).Milliseconds())
			h.telemetry.RecordDetonations(len(result.Detonations))
			h.telemetry.RecordCarves(len(result.Carves))

			h.broadcastState(snap)
		}
	}
}

func (h *Hub) broadcastState(snap sim.Snapshot) {
	msg := stateMessage{Type: "state", State: snap, ServerTime: time.Now().UnixMilli()}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal state message: %v", err)
		return
	}
	h.telemetry.RecordBroadcast(len(data))

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			log.Printf("failed to send update to %s: %v", id, err)
			h.Disconnect(id)
		}
	}
}

func (h *Hub) writeJSON(sub *subscriber, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return sub.conn.WriteMessage(websocket.TextMessage, data)
}
