package world

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcraft/internal/profiling"
)

// RaycastResult stores the result of a raycast operation.
type RaycastResult struct {
	Hit              bool
	HitPosition      [3]int
	AdjacentPosition [3]int // cell in front of the hit face
	Face             BlockFace
	Block            BlockType
	Distance         float32
}

// Normal is the outward normal of the face that was hit.
func (r RaycastResult) Normal() [3]int { return faceNormals[r.Face] }

// targetable blocks stop a ray. Liquids and air let it through.
func targetable(b BlockType) bool {
	return b != BlockTypeAir && !b.IsLiquid()
}

// Raycast walks the grid cell by cell from origin along direction
// (Amanatides-Woo DDA) and returns the first targetable block within
// maxDistance. Unloaded cells are passed through. The ray stops once it
// leaves the vertical range heading away from it.
func (w *World) Raycast(origin, direction mgl32.Vec3, maxDistance float32) (RaycastResult, error) {
	if direction.Len() == 0 || !finite(direction) || !finite(origin) {
		return RaycastResult{}, fmt.Errorf("%w: ray direction %v", ErrInvalidArgument, direction)
	}
	if maxDistance < 0 || math.IsNaN(float64(maxDistance)) {
		return RaycastResult{}, fmt.Errorf("%w: max distance %v", ErrInvalidArgument, maxDistance)
	}
	defer profiling.Track("world.Raycast")()

	d := direction.Normalize()
	o := [3]float64{float64(origin[0]), float64(origin[1]), float64(origin[2])}
	dir := [3]float64{float64(d[0]), float64(d[1]), float64(d[2])}
	limit := float64(maxDistance)

	var cell, step [3]int
	var tMax, tDelta [3]float64
	for i := range 3 {
		f := math.Floor(o[i])
		cell[i] = int(f)
		switch {
		case dir[i] > 0:
			step[i] = 1
			tMax[i] = (f + 1 - o[i]) / dir[i]
			tDelta[i] = 1 / dir[i]
		case dir[i] < 0:
			step[i] = -1
			tMax[i] = (o[i] - f) / -dir[i]
			tDelta[i] = -1 / dir[i]
		default:
			tMax[i] = math.Inf(1)
			tDelta[i] = math.Inf(1)
		}
	}

	// Before the first step, report the face opposite the dominant axis.
	face := faceAgainst(dominantAxis(dir), step)
	t := 0.0
	maxSteps := int(math.Ceil(limit*math.Sqrt(3))) + 3

	w.mu.RLock()
	defer w.mu.RUnlock()

	for range maxSteps {
		y := cell[1]
		if y < 0 && step[1] <= 0 || y >= ChunkHeight && step[1] >= 0 {
			break
		}
		if b, ok := w.blockAt(cell[0], y, cell[2]); ok && targetable(b) {
			n := faceNormals[face]
			return RaycastResult{
				Hit:              true,
				HitPosition:      cell,
				AdjacentPosition: [3]int{cell[0] + n[0], cell[1] + n[1], cell[2] + n[2]},
				Face:             face,
				Block:            b,
				Distance:         float32(t),
			}, nil
		}

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		t = tMax[axis]
		if t > limit {
			break
		}
		cell[axis] += step[axis]
		tMax[axis] += tDelta[axis]
		face = faceAgainst(axis, step)
	}
	return RaycastResult{}, nil
}

// faceAgainst is the face whose normal is the negated step along axis.
func faceAgainst(axis int, step [3]int) BlockFace {
	switch axis {
	case 0:
		if step[0] > 0 {
			return FaceWest
		}
		return FaceEast
	case 1:
		if step[1] > 0 {
			return FaceBottom
		}
		return FaceTop
	}
	if step[2] > 0 {
		return FaceNorth
	}
	return FaceSouth
}

func dominantAxis(d [3]float64) int {
	axis := 0
	for i := 1; i < 3; i++ {
		if math.Abs(d[i]) > math.Abs(d[axis]) {
			axis = i
		}
	}
	return axis
}

func finite(v mgl32.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(float64(c)) || math.IsInf(float64(c), 0) {
			return false
		}
	}
	return true
}
