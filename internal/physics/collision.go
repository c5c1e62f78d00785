package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcraft/internal/world"
)

// skin keeps boundary tests off exact cell edges so a box resting flush
// against a face does not count as overlapping the cell behind it.
const skin = 1e-4

// SolidQuery is the voxel field collision runs against. *world.World
// implements it: below the world is solid, unloaded cells are not.
type SolidQuery interface {
	IsSolid(x, y, z int) bool
}

// AABB is an axis-aligned box in world space.
type AABB struct {
	Min, Max mgl32.Vec3
}

// BoxAt returns a box of the given half width and height standing on feet.
func BoxAt(feet mgl32.Vec3, halfWidth, height float32) AABB {
	return AABB{
		Min: mgl32.Vec3{feet.X() - halfWidth, feet.Y(), feet.Z() - halfWidth},
		Max: mgl32.Vec3{feet.X() + halfWidth, feet.Y() + height, feet.Z() + halfWidth},
	}
}

// BlockBox returns the unit box of cell (x, y, z).
func BlockBox(x, y, z int) AABB {
	return AABB{
		Min: mgl32.Vec3{float32(x), float32(y), float32(z)},
		Max: mgl32.Vec3{float32(x + 1), float32(y + 1), float32(z + 1)},
	}
}

// Feet returns the bottom center of the box.
func (a AABB) Feet() mgl32.Vec3 {
	return mgl32.Vec3{(a.Min.X() + a.Max.X()) / 2, a.Min.Y(), (a.Min.Z() + a.Max.Z()) / 2}
}

// Offset translates the box.
func (a AABB) Offset(d mgl32.Vec3) AABB {
	return AABB{Min: a.Min.Add(d), Max: a.Max.Add(d)}
}

// Intersects reports a strictly positive overlap on all three axes.
func (a AABB) Intersects(b AABB) bool {
	return a.Min.X() < b.Max.X() && a.Max.X() > b.Min.X() &&
		a.Min.Y() < b.Max.Y() && a.Max.Y() > b.Min.Y() &&
		a.Min.Z() < b.Max.Z() && a.Max.Z() > b.Min.Z()
}

// cellSpan returns the cells a box edge pair [lo, hi] occupies.
func cellSpan(lo, hi float64) (int, int) {
	return int(math.Floor(lo + skin)), int(math.Ceil(hi-skin)) - 1
}

// Collides checks if the box overlaps any solid cell.
func Collides(w SolidQuery, box AABB) bool {
	x0, x1 := cellSpan(float64(box.Min.X()), float64(box.Max.X()))
	y0, y1 := cellSpan(float64(box.Min.Y()), float64(box.Max.Y()))
	z0, z1 := cellSpan(float64(box.Min.Z()), float64(box.Max.Z()))
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				if w.IsSolid(x, y, z) {
					return true
				}
			}
		}
	}
	return false
}

// MoveResult is the outcome of a swept move.
type MoveResult struct {
	Box AABB
	// Moved is the displacement actually applied.
	Moved mgl32.Vec3
	// Blocked marks axes where the box hit a face; the caller zeroes that
	// velocity component.
	Blocked  [3]bool
	OnGround bool
}

// ApplyTo zeroes the velocity components of blocked axes.
func (r MoveResult) ApplyTo(velocity mgl32.Vec3) mgl32.Vec3 {
	for i, b := range r.Blocked {
		if b {
			velocity[i] = 0
		}
	}
	return velocity
}

// axisOrder resolves horizontal motion before vertical.
var axisOrder = [3]int{0, 2, 1}

// Move sweeps box by delta one axis at a time (X, Z, then Y). On each axis the
// slab of cells between the leading face and its destination is scanned
// nearest first; the first solid cell stops the box flush against its face.
// Every cell crossed is tested, so no displacement tunnels through a block.
func Move(w SolidQuery, box AABB, delta mgl32.Vec3) MoveResult {
	res := MoveResult{Box: box}
	for _, axis := range axisOrder {
		d := float64(delta[axis])
		if d == 0 {
			continue
		}
		allowed, hit := sweepAxis(w, res.Box, axis, d)
		var off mgl32.Vec3
		off[axis] = float32(allowed)
		res.Box = res.Box.Offset(off)
		res.Moved[axis] = float32(allowed)
		if hit {
			res.Blocked[axis] = true
			if axis == 1 && d < 0 {
				res.OnGround = true
			}
		}
	}
	return res
}

func sweepAxis(w SolidQuery, box AABB, axis int, d float64) (float64, bool) {
	// The two cross axes.
	u, v := (axis+1)%3, (axis+2)%3
	u0, u1 := cellSpan(float64(box.Min[u]), float64(box.Max[u]))
	v0, v1 := cellSpan(float64(box.Min[v]), float64(box.Max[v]))

	solidLayer := func(i int) bool {
		var c [3]int
		c[axis] = i
		for a := u0; a <= u1; a++ {
			for b := v0; b <= v1; b++ {
				c[u], c[v] = a, b
				if w.IsSolid(c[0], c[1], c[2]) {
					return true
				}
			}
		}
		return false
	}

	if d > 0 {
		lead := float64(box.Max[axis])
		first := int(math.Ceil(lead - skin))
		last := int(math.Floor(lead + d - skin))
		for i := first; i <= last; i++ {
			if solidLayer(i) {
				return math.Max(float64(i)-lead, 0), true
			}
		}
		return d, false
	}

	lead := float64(box.Min[axis])
	first := int(math.Floor(lead+skin)) - 1
	last := int(math.Floor(lead + d + skin))
	for i := first; i >= last; i-- {
		if solidLayer(i) {
			return math.Min(float64(i+1)-lead, 0), true
		}
	}
	return d, false
}

// GroundBelow returns the top of the highest solid cell under the box within
// maxDrop, and whether one was found.
func GroundBelow(w SolidQuery, box AABB, maxDrop float32) (float32, bool) {
	res := Move(w, box, mgl32.Vec3{0, -maxDrop, 0})
	if !res.OnGround {
		return 0, false
	}
	return res.Box.Min.Y(), true
}

var _ SolidQuery = (*world.World)(nil)
