package terrain

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// normalSampleRadius is the neighborhood sampled when estimating a
	// surface normal.
	normalSampleRadius = 5
	// sightStep is the march step for line-of-sight checks, in pixels.
	sightStep = 2.0
	// spawnClearance is the clear air required above a candidate spawn
	// surface, in pixels.
	spawnClearance = 40
)

// SurfaceNormal estimates the outward surface normal at a point by
// accumulating the negated offsets of every solid sample in a fixed
// neighborhood. A degenerate sample (fully enclosed or fully in open
// air) returns straight up; callers can always normalize against it.
func (f *Field) SurfaceNormal(x, y float64) mgl64.Vec2 {
	var sum mgl64.Vec2
	for dy := -normalSampleRadius; dy <= normalSampleRadius; dy++ {
		for dx := -normalSampleRadius; dx <= normalSampleRadius; dx++ {
			if dx*dx+dy*dy > normalSampleRadius*normalSampleRadius {
				continue
			}
			if f.CheckCollision(x+float64(dx), y+float64(dy)) {
				sum = sum.Sub(mgl64.Vec2{float64(dx), float64(dy)})
			}
		}
	}
	if sum.X() == 0 && sum.Y() == 0 {
		return mgl64.Vec2{0, -1}
	}
	return sum.Normalize()
}

// LineOfSight reports whether the segment between the two points is free
// of solid terrain. The segment is marched in ~2px steps.
func (f *Field) LineOfSight(x1, y1, x2, y2 float64) bool {
	dist := math.Hypot(x2-x1, y2-y1)
	steps := int(math.Ceil(dist / sightStep))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		if f.CheckCollision(x1+(x2-x1)*t, y1+(y2-y1)*t) {
			return false
		}
	}
	return true
}

// GroundY scans the column at x from the top of the world down and
// returns the Y of the first air-to-solid transition. The world height
// is the "no ground" sentinel; absence of ground is never an error.
func (f *Field) GroundY(x float64) float64 {
	return f.GroundBelow(x, 0)
}

// GroundBelow scans downward from y and returns the Y of the first
// air-to-solid transition at or below it, or the world height sentinel.
func (f *Field) GroundBelow(x, y float64) float64 {
	start := int(y)
	if start < 0 {
		start = 0
	}
	prevSolid := f.CheckCollision(x, float64(start-1)) && start > 0
	for yi := start; yi < f.height; yi++ {
		solid := f.CheckCollision(x, float64(yi))
		if solid && !prevSolid {
			return float64(yi)
		}
		prevSolid = solid
	}
	return float64(f.height)
}

// SpawnPoints scans the whole bitmap for standable surfaces: air-to-solid
// transitions with at least 40px of clear air directly above. The
// returned points sit on the first solid pixel of each surface.
func (f *Field) SpawnPoints() []mgl64.Vec2 {
	points := make([]mgl64.Vec2, 0)
	for x := 0; x < f.width; x++ {
		prevSolid := false
		for y := 0; y < f.height; y++ {
			solid := f.solid[y*f.width+x]
			if solid && !prevSolid && f.clearAbove(x, y, spawnClearance) {
				points = append(points, mgl64.Vec2{float64(x), float64(y)})
			}
			prevSolid = solid
		}
	}
	return points
}

func (f *Field) clearAbove(x, y, clearance int) bool {
	if y < clearance {
		return false
	}
	for i := 1; i <= clearance; i++ {
		if f.solid[(y-i)*f.width+x] {
			return false
		}
	}
	return true
}
