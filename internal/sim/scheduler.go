package sim

// Scheduler runs callbacks at target ticks. All deferred gameplay (salvo
// drops, turn transitions) goes through it instead of wall-clock timers,
// so a paused or replayed simulation stays correct.
type Scheduler struct {
	tasks []task
	seq   uint64
}

type task struct {
	tick uint64
	seq  uint64
	fn   func(tick uint64)
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// At registers fn to run when the simulation reaches tick. Registering
// for a tick that already passed runs fn on the next Fire.
func (s *Scheduler) At(tick uint64, fn func(tick uint64)) {
	if fn == nil {
		return
	}
	s.seq++
	s.tasks = append(s.tasks, task{tick: tick, seq: s.seq, fn: fn})
}

// After registers fn to run delay ticks after current.
func (s *Scheduler) After(current, delay uint64, fn func(tick uint64)) {
	s.At(current+delay, fn)
}

// Fire runs every task due at or before tick, in registration order, and
// returns how many ran. Tasks registered during Fire run no earlier than
// the next call.
func (s *Scheduler) Fire(tick uint64) int {
	if len(s.tasks) == 0 {
		return 0
	}
	due := make([]task, 0, len(s.tasks))
	keep := s.tasks[:0]
	for _, t := range s.tasks {
		if t.tick <= tick {
			due = append(due, t)
		} else {
			keep = append(keep, t)
		}
	}
	s.tasks = keep
	for i := 1; i < len(due); i++ {
		for j := i; j > 0 && due[j].seq < due[j-1].seq; j-- {
			due[j], due[j-1] = due[j-1], due[j]
		}
	}
	for _, t := range due {
		t.fn(tick)
	}
	return len(due)
}

// Pending reports how many tasks are still queued.
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}
