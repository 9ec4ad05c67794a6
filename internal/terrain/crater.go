package terrain

import "math"

// craterCoreFraction is the share of the radius that is removed outright;
// between the core and the rim the removal fades linearly to nothing.
const craterCoreFraction = 0.7

// CarveCrater subtracts a radially feathered mask from the visual buffer
// around (cx, cy) and re-thresholds the crater's bounding box. Pixels
// within 0.7*radius become air, pixels beyond radius are untouched.
func (f *Field) CarveCrater(cx, cy, radius float64) {
	if radius <= 0 {
		return
	}

	x0 := int(math.Floor(cx - radius))
	y0 := int(math.Floor(cy - radius))
	x1 := int(math.Ceil(cx + radius))
	y1 := int(math.Ceil(cy + radius))
	x0, y0 = f.clampPoint(x0, y0)
	x1, y1 = f.clampPoint(x1, y1)

	core := radius * craterCoreFraction
	fadeBand := radius - core

	for y := y0; y <= y1; y++ {
		row := y * f.width
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			dist := math.Hypot(dx, dy)
			if dist > radius {
				continue
			}

			idx := row + x
			if dist <= core {
				f.alpha[idx] = 0
				continue
			}

			// Linear fade of the removal strength from the core edge
			// out to the rim.
			strength := 1 - (dist-core)/fadeBand
			removal := int(math.Round(strength * 255))
			remaining := int(f.alpha[idx]) - removal
			if remaining < 0 {
				remaining = 0
			}
			f.alpha[idx] = uint8(remaining)
		}
	}

	f.rebuildMask(x0, y0, x1, y1)
	f.revision++
	f.carves = append(f.carves, Carve{X: cx, Y: cy, Radius: radius})
}
