package projectile

import "drop-bears/server/weapons/catalog"

// Kind is the behavior category of a projectile. Every projectile is in
// exactly one category, derived from its weapon profile at creation, so
// illegal flag combinations are unrepresentable at runtime.
type Kind int

const (
	// KindBallistic detonates on first terrain contact.
	KindBallistic Kind = iota
	// KindBouncing reflects off terrain and detonates on a timer.
	KindBouncing
	// KindSticking settles on first contact and detonates on a timer.
	KindSticking
	// KindProximityMine settles on first contact and arms a proximity
	// fuse; it may be a dud.
	KindProximityMine
	// KindSettleDetonate detonates after sustained low speed.
	KindSettleDetonate
	// KindRope pulls the shooter toward the impact point and never
	// detonates.
	KindRope
)

func (k Kind) String() string {
	switch k {
	case KindBallistic:
		return "ballistic"
	case KindBouncing:
		return "bouncing"
	case KindSticking:
		return "sticking"
	case KindProximityMine:
		return "proximity-mine"
	case KindSettleDetonate:
		return "settle-detonate"
	case KindRope:
		return "rope"
	default:
		return "unknown"
	}
}

// KindFor derives the behavior category from a weapon profile. Utility
// flags win over fuses, fuses win over plain bouncing.
func KindFor(p catalog.WeaponProfile) Kind {
	switch {
	case p.Rope:
		return KindRope
	case p.TriggeredByProximity:
		return KindProximityMine
	case p.ExplodesOnSettle:
		return KindSettleDetonate
	case p.UsesTimer && p.Bounces:
		return KindBouncing
	case p.UsesTimer:
		return KindSticking
	case p.Bounces:
		return KindBouncing
	default:
		return KindBallistic
	}
}

// Signal is the outcome of one fuse update.
type Signal int

const (
	// SignalNone means keep simulating.
	SignalNone Signal = iota
	// SignalDetonate requests detonation this tick.
	SignalDetonate
	// SignalDud is returned exactly once when a dud mine triggers; the
	// projectile then stays inert forever.
	SignalDud
)

// TimerFuse accumulates ground time once started and fires when the
// resolved duration elapses. Timers are simulation-time counters, never
// wall-clock callbacks, so replays stay deterministic.
type TimerFuse struct {
	Duration     float64
	Started      bool
	TimeOnGround float64
}

func NewTimerFuse(duration float64, startsOnThrow bool) *TimerFuse {
	return &TimerFuse{Duration: duration, Started: startsOnThrow}
}

// StartOnContact starts the timer on the first terrain hit. Idempotent.
func (f *TimerFuse) StartOnContact() {
	f.Started = true
}

// Update advances the timer and reports whether it elapsed. Before the
// timer starts the counter never advances.
func (f *TimerFuse) Update(dt float64) bool {
	if !f.Started {
		return false
	}
	f.TimeOnGround += dt
	return f.TimeOnGround >= f.Duration
}

// ProximityFuse counts down a trigger delay once armed and tripped. A
// dud signals activation once and then never does anything again.
type ProximityFuse struct {
	Delay        float64
	Triggered    bool
	TriggerTimer float64
	Dud          bool
	DudActivated bool
}

func NewProximityFuse(delay float64, dud bool) *ProximityFuse {
	return &ProximityFuse{Delay: delay, Dud: dud}
}

// Trigger trips the fuse. Idempotent; a tripped fuse stays tripped.
func (f *ProximityFuse) Trigger() {
	f.Triggered = true
}

func (f *ProximityFuse) Update(dt float64) Signal {
	if !f.Triggered {
		return SignalNone
	}
	if f.Dud {
		if !f.DudActivated {
			f.DudActivated = true
			return SignalDud
		}
		return SignalNone
	}
	f.TriggerTimer += dt
	if f.TriggerTimer >= f.Delay {
		return SignalDetonate
	}
	return SignalNone
}

// settleRequired is how long a projectile must stay below its settle
// threshold before detonating, in seconds.
const settleRequired = 0.3

// SettleFuse detonates after sustained low speed, regardless of whether
// the projectile has touched terrain.
type SettleFuse struct {
	Threshold  float64
	SettleTime float64
}

func NewSettleFuse(threshold float64) *SettleFuse {
	return &SettleFuse{Threshold: threshold}
}

// Update compares the current speed to the threshold: below it the
// settle clock accumulates, at or above it the clock resets.
func (f *SettleFuse) Update(speed, dt float64) bool {
	if speed < f.Threshold {
		f.SettleTime += dt
		return f.SettleTime >= settleRequired
	}
	f.SettleTime = 0
	return false
}
