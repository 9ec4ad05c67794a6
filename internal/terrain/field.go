package terrain

import "fmt"

// MaskThreshold is the alpha cutoff above which a pixel counts as solid.
// The collision mask is always derived from the visual alpha buffer with
// this rule, so partial-alpha pixels never leak into collision queries.
const MaskThreshold = 128

// SolidAlpha reports whether an alpha value thresholds to solid terrain.
func SolidAlpha(alpha uint8) bool {
	return alpha >= MaskThreshold
}

// Field owns the world's destructible terrain: a per-pixel visual alpha
// buffer and the binary solid/air mask derived from it. Dimensions are
// fixed at construction; only carve and import operations mutate state.
type Field struct {
	width  int
	height int
	alpha  []uint8
	solid  []bool

	revision uint64
	carves   []Carve
}

// Carve records a single crater so collaborators (broadcast, renderer)
// can replay terrain mutations without shipping the whole bitmap.
type Carve struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

// NewField constructs an all-air field of the given dimensions.
func NewField(width, height int) *Field {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return &Field{
		width:  width,
		height: height,
		alpha:  make([]uint8, width*height),
		solid:  make([]bool, width*height),
	}
}

func (f *Field) Width() int  { return f.width }
func (f *Field) Height() int { return f.height }

// Revision increments on every mutating operation. Snapshot consumers use
// it to detect stale terrain without comparing buffers.
func (f *Field) Revision() uint64 { return f.revision }

// ImportAlpha replaces the visual buffer wholesale and rebuilds the
// collision mask. The buffer length must match width*height.
func (f *Field) ImportAlpha(buf []uint8) error {
	if len(buf) != f.width*f.height {
		return fmt.Errorf("terrain: alpha buffer size %d does not match %dx%d", len(buf), f.width, f.height)
	}
	copy(f.alpha, buf)
	f.rebuildMask(0, 0, f.width-1, f.height-1)
	f.revision++
	return nil
}

// FillRect paints a rectangle of the visual buffer with the given alpha
// and re-thresholds the touched region. Coordinates are clamped.
func (f *Field) FillRect(x0, y0, x1, y1 int, alpha uint8) {
	x0, y0 = f.clampPoint(x0, y0)
	x1, y1 = f.clampPoint(x1, y1)
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		row := y * f.width
		for x := x0; x <= x1; x++ {
			f.alpha[row+x] = alpha
		}
	}
	f.rebuildMask(x0, y0, x1, y1)
	f.revision++
}

// AlphaAt returns the raw visual alpha at integer coordinates, zero when
// out of range.
func (f *Field) AlphaAt(x, y int) uint8 {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return 0
	}
	return f.alpha[y*f.width+x]
}

// CheckCollision reports whether the point is inside solid terrain.
// Coordinates are floored to the pixel grid. Anything at or below the
// bottom edge is solid (the floor of the world); above the top edge is
// air; X is clamped into range. Total over all inputs, never fails.
func (f *Field) CheckCollision(x, y float64) bool {
	xi := int(x)
	yi := int(y)
	if x < 0 {
		xi--
	}
	if y < 0 {
		yi--
	}
	if yi >= f.height {
		return true
	}
	if yi < 0 {
		return false
	}
	if xi < 0 {
		xi = 0
	} else if xi >= f.width {
		xi = f.width - 1
	}
	return f.solid[yi*f.width+xi]
}

// DrainCarves returns the craters carved since the last drain and clears
// the list.
func (f *Field) DrainCarves() []Carve {
	if len(f.carves) == 0 {
		return nil
	}
	drained := make([]Carve, len(f.carves))
	copy(drained, f.carves)
	f.carves = f.carves[:0]
	return drained
}

// rebuildMask re-thresholds the inclusive region so the collision mask
// stays strictly binary after any alpha mutation.
func (f *Field) rebuildMask(x0, y0, x1, y1 int) {
	for y := y0; y <= y1; y++ {
		row := y * f.width
		for x := x0; x <= x1; x++ {
			f.solid[row+x] = SolidAlpha(f.alpha[row+x])
		}
	}
}

func (f *Field) clampPoint(x, y int) (int, int) {
	if x < 0 {
		x = 0
	} else if x >= f.width {
		x = f.width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= f.height {
		y = f.height - 1
	}
	return x, y
}
