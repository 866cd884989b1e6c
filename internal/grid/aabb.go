package grid

import (
	"math"

	"github.com/jakecoffman/cp/v2"
)

const axisTolerance = 1e-9

type AABB struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

func BoxAround(center cp.Vector, halfWidth, halfHeight float64) AABB {
	return AABB{
		MinX: center.X - halfWidth,
		MinY: center.Y - halfHeight,
		MaxX: center.X + halfWidth,
		MaxY: center.Y + halfHeight,
	}
}

func TileAABB(x, y int) AABB {
	return AABB{
		MinX: float64(x),
		MinY: float64(y),
		MaxX: float64(x + 1),
		MaxY: float64(y + 1),
	}
}

func (a AABB) Intersects(b AABB) bool {
	return a.MinX < b.MaxX &&
		a.MaxX > b.MinX &&
		a.MinY < b.MaxY &&
		a.MaxY > b.MinY
}

// ExpandTowards grows the box in the direction of movement so it covers the
// whole swept region.
func (a AABB) ExpandTowards(dx, dy float64) AABB {
	if dx < 0 {
		a.MinX += dx
	} else {
		a.MaxX += dx
	}
	if dy < 0 {
		a.MinY += dy
	} else {
		a.MaxY += dy
	}
	return a
}

// Sweep moves a by move and reports the fraction of move at which it first
// touches b, with b's surface normal. Boxes that already overlap, or only
// graze along an edge, do not report a hit.
func Sweep(a AABB, move cp.Vector, b AABB) (float64, cp.Vector, bool) {
	entryX, exitX, ok := axisWindow(a.MinX, a.MaxX, b.MinX, b.MaxX, move.X)
	if !ok {
		return 0, cp.Vector{}, false
	}
	entryY, exitY, ok := axisWindow(a.MinY, a.MaxY, b.MinY, b.MaxY, move.Y)
	if !ok {
		return 0, cp.Vector{}, false
	}

	entry := math.Max(entryX, entryY)
	exit := math.Min(exitX, exitY)
	if entry > exit || entry < -axisTolerance || entry > 1 || exit <= 0 {
		return 0, cp.Vector{}, false
	}
	if entry < 0 {
		entry = 0
	}

	if entryX > entryY {
		return entry, cp.Vector{X: -sign(move.X)}, true
	}
	return entry, cp.Vector{Y: -sign(move.Y)}, true
}

func axisWindow(aMin, aMax, bMin, bMax, d float64) (float64, float64, bool) {
	if nearlyZero(d) {
		if aMax <= bMin+axisTolerance || aMin >= bMax-axisTolerance {
			return 0, 0, false
		}
		return math.Inf(-1), math.Inf(1), true
	}
	if d > 0 {
		return (bMin - aMax) / d, (bMax - aMin) / d, true
	}
	return (bMax - aMin) / d, (bMin - aMax) / d, true
}

func floorForMin(v float64) int {
	return int(math.Floor(v + axisTolerance))
}

func floorForMax(v float64) int {
	return int(math.Floor(v - axisTolerance))
}

func nearlyZero(v float64) bool {
	return math.Abs(v) <= axisTolerance
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
