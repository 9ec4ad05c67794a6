package sim

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// CommandKind discriminates the player intents a tick can apply.
type CommandKind int

const (
	CommandMove CommandKind = iota + 1
	CommandJump
	CommandFire
	CommandSetTimer
)

// Command is one player intent, applied at the start of a tick before
// any physics runs.
type Command struct {
	Actor string
	Kind  CommandKind

	// Move
	Dir float64 // -1 left, +1 right

	// Fire
	Weapon string
	Aim    mgl64.Vec2 // unit aim direction, or target point for salvo weapons
	Power  float64    // (0,1]; zero means full power

	// SetTimer
	Timer float64 // seconds
}

// defaultCommandCap bounds how many commands one actor may queue per
// tick. Excess input is dropped, not buffered across ticks.
const defaultCommandCap = 16

// CommandBuffer collects commands from transport goroutines and hands
// them to the simulation loop in arrival order.
type CommandBuffer struct {
	mu       sync.Mutex
	pending  []Command
	perActor map[string]int
	cap      int
}

func NewCommandBuffer(perActorCap int) *CommandBuffer {
	if perActorCap <= 0 {
		perActorCap = defaultCommandCap
	}
	return &CommandBuffer{
		perActor: make(map[string]int),
		cap:      perActorCap,
	}
}

// Enqueue adds a command unless the actor already hit its per-tick cap.
// Returns false when the command was dropped.
func (b *CommandBuffer) Enqueue(cmd Command) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.perActor[cmd.Actor] >= b.cap {
		return false
	}
	b.perActor[cmd.Actor]++
	b.pending = append(b.pending, cmd)
	return true
}

// Drain returns the queued commands and resets the buffer.
func (b *CommandBuffer) Drain() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.pending) == 0 {
		return nil
	}
	out := b.pending
	b.pending = nil
	b.perActor = make(map[string]int)
	return out
}

// Len reports how many commands are queued.
func (b *CommandBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
