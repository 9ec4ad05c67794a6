package terrain

import (
	"math"
	"testing"
)

func TestSurfaceNormalFlatGround(t *testing.T) {
	f := solidField(100, 100, 50)
	n := f.SurfaceNormal(50, 50)
	if n.Y() >= 0 {
		t.Fatalf("normal on flat ground must point up, got %v", n)
	}
	if math.Abs(n.X()) > 1e-9 {
		t.Fatalf("normal on flat ground must be vertical, got %v", n)
	}
	if math.Abs(n.Len()-1) > 1e-9 {
		t.Fatalf("normal must be unit length, got %v", n.Len())
	}
}

func TestSurfaceNormalWall(t *testing.T) {
	f := NewField(100, 100)
	f.FillRect(60, 0, 99, 99, 255)
	n := f.SurfaceNormal(60, 50)
	if n.X() >= 0 {
		t.Fatalf("normal on a left-facing wall must point left, got %v", n)
	}
}

func TestSurfaceNormalDegenerateFallsBackUp(t *testing.T) {
	f := NewField(100, 100)
	// Open air: zero accumulation.
	n := f.SurfaceNormal(50, 20)
	if n.X() != 0 || n.Y() != -1 {
		t.Fatalf("degenerate normal = %v, want (0,-1)", n)
	}
}

func TestLineOfSight(t *testing.T) {
	f := NewField(200, 100)
	f.FillRect(95, 0, 105, 99, 255)

	if f.LineOfSight(10, 50, 190, 50) {
		t.Fatalf("sight through a wall must be blocked")
	}
	if !f.LineOfSight(10, 50, 90, 50) {
		t.Fatalf("sight in open air must be clear")
	}
	if !f.LineOfSight(10, 50, 10, 50) {
		t.Fatalf("zero-length sight in air must be clear")
	}
}

func TestGroundYSentinel(t *testing.T) {
	f := solidField(100, 100, 70)
	if got := f.GroundY(50); got != 70 {
		t.Fatalf("GroundY = %v, want 70", got)
	}

	empty := NewField(100, 100)
	if got := empty.GroundY(50); got != 100 {
		t.Fatalf("GroundY over bottomless column = %v, want height sentinel 100", got)
	}
}

func TestGroundBelowSkipsCeilingAbove(t *testing.T) {
	f := solidField(100, 100, 70)
	f.FillRect(0, 10, 99, 20, 255) // ceiling slab

	if got := f.GroundBelow(50, 30); got != 70 {
		t.Fatalf("GroundBelow(30) = %v, want 70", got)
	}
	// Starting inside the ceiling: the slab does not count because the
	// scan needs an air-to-solid transition.
	if got := f.GroundBelow(50, 15); got != 70 {
		t.Fatalf("GroundBelow(15) = %v, want 70", got)
	}
}

func TestSpawnPointsNeedClearance(t *testing.T) {
	f := solidField(100, 200, 100)
	points := f.SpawnPoints()
	if len(points) != 100 {
		t.Fatalf("flat ground must yield one point per column, got %d", len(points))
	}
	for _, pt := range points {
		if pt.Y() != 100 {
			t.Fatalf("spawn point not on surface: %v", pt)
		}
	}

	// A shelf 20px above the floor removes the floor's headroom; the
	// shelf itself has plenty and stays eligible.
	cramped := NewField(100, 200)
	cramped.FillRect(0, 100, 99, 199, 255)
	cramped.FillRect(40, 80, 60, 82, 255)
	shelfPoints := 0
	for _, pt := range cramped.SpawnPoints() {
		if pt.Y() == 100 && pt.X() >= 40 && pt.X() <= 60 {
			t.Fatalf("floor under a low shelf must not be a spawn point: %v", pt)
		}
		if pt.Y() == 80 {
			shelfPoints++
		}
	}
	if shelfPoints != 21 {
		t.Fatalf("shelf columns eligible = %d, want 21", shelfPoints)
	}
}
