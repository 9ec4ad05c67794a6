package sim

import "testing"

func TestSchedulerFiresInRegistrationOrder(t *testing.T) {
	s := NewScheduler()
	var order []int
	s.At(5, func(uint64) { order = append(order, 1) })
	s.At(3, func(uint64) { order = append(order, 2) })
	s.At(5, func(uint64) { order = append(order, 3) })

	if n := s.Fire(2); n != 0 {
		t.Fatalf("nothing due at tick 2, ran %d", n)
	}
	if n := s.Fire(5); n != 3 {
		t.Fatalf("ran %d tasks, want 3", n)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("order = %v, want registration order", order)
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d", s.Pending())
	}
}

func TestSchedulerPastDueRunsNextFire(t *testing.T) {
	s := NewScheduler()
	ran := false
	s.At(1, func(uint64) { ran = true })
	s.Fire(10)
	if !ran {
		t.Fatalf("past-due task must run on the next fire")
	}
}

func TestSchedulerTasksRegisteredDuringFireDefer(t *testing.T) {
	s := NewScheduler()
	nested := false
	s.At(1, func(tick uint64) {
		s.At(tick, func(uint64) { nested = true })
	})

	s.Fire(1)
	if nested {
		t.Fatalf("task registered during fire must not run in the same fire")
	}
	s.Fire(1)
	if !nested {
		t.Fatalf("deferred task must run on the next fire")
	}
}

func TestSchedulerAfter(t *testing.T) {
	s := NewScheduler()
	ran := false
	s.After(10, 5, func(uint64) { ran = true })
	s.Fire(14)
	if ran {
		t.Fatalf("task ran before its delay elapsed")
	}
	s.Fire(15)
	if !ran {
		t.Fatalf("task must run at current+delay")
	}
}

func TestCommandBufferCapsPerActor(t *testing.T) {
	b := NewCommandBuffer(2)

	if !b.Enqueue(Command{Actor: "a", Kind: CommandJump}) {
		t.Fatalf("first command must be accepted")
	}
	if !b.Enqueue(Command{Actor: "a", Kind: CommandJump}) {
		t.Fatalf("second command must be accepted")
	}
	if b.Enqueue(Command{Actor: "a", Kind: CommandJump}) {
		t.Fatalf("third command must be dropped")
	}
	if !b.Enqueue(Command{Actor: "b", Kind: CommandJump}) {
		t.Fatalf("other actors keep their own budget")
	}

	drained := b.Drain()
	if len(drained) != 3 {
		t.Fatalf("drained = %d, want 3", len(drained))
	}
	if b.Len() != 0 {
		t.Fatalf("buffer must be empty after drain")
	}

	// Drain resets the per-actor counters.
	if !b.Enqueue(Command{Actor: "a", Kind: CommandJump}) {
		t.Fatalf("cap must reset after drain")
	}
}
