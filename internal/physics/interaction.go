package physics

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcraft/internal/world"
)

const (
	// MinReachDistance ignores hits inside the eye cell.
	MinReachDistance = 0.1
	// MaxReachDistance is the maximum distance the player can reach.
	MaxReachDistance = 5.0
)

var (
	ErrUnbreakable = errors.New("block is unbreakable")
	ErrOccupied    = errors.New("cell is occupied")
	ErrObstructed  = errors.New("placement intersects an occupant")
)

// Pick finds the block the player is looking at within reach.
func Pick(w *world.World, eye, look mgl32.Vec3) (world.RaycastResult, error) {
	hit, err := w.Raycast(eye, look, MaxReachDistance)
	if err != nil {
		return world.RaycastResult{}, err
	}
	if hit.Hit && hit.Distance < MinReachDistance {
		return world.RaycastResult{}, nil
	}
	return hit, nil
}

// target resolves a dig or place cell. Unknown cells are refused rather than
// treated as air.
func target(w *world.World, x, y, z int) (world.BlockType, error) {
	if y < 0 || y >= world.ChunkHeight {
		return world.BlockTypeAir, fmt.Errorf("cell (%d,%d,%d): %w", x, y, z, world.ErrOutOfRangeY)
	}
	b, ok := w.Block(x, y, z)
	if !ok {
		return world.BlockTypeAir, fmt.Errorf("cell (%d,%d,%d): %w", x, y, z, world.ErrChunkNotLoaded)
	}
	return b, nil
}

// Break removes the block at (x, y, z) and returns what it drops. ok is false
// when the block drops nothing.
func Break(w *world.World, x, y, z int) (drop world.BlockType, ok bool, err error) {
	b, err := target(w, x, y, z)
	if err != nil {
		return world.BlockTypeAir, false, err
	}
	switch {
	case b == world.BlockTypeAir || b.IsLiquid():
		return world.BlockTypeAir, false, fmt.Errorf("break %v at (%d,%d,%d): %w", b, x, y, z, world.ErrInvalidArgument)
	case b.Unbreakable():
		return world.BlockTypeAir, false, fmt.Errorf("break %v at (%d,%d,%d): %w", b, x, y, z, ErrUnbreakable)
	}
	w.SetBlock(x, y, z, world.BlockTypeAir)
	drop, ok = b.Drop()
	return drop, ok, nil
}

// Place puts kind at (x, y, z). The cell must hold air or liquid, and a solid
// block may not overlap any of the given occupant boxes.
func Place(w *world.World, x, y, z int, kind world.BlockType, occupants ...AABB) error {
	if !kind.Valid() || kind == world.BlockTypeAir {
		return fmt.Errorf("place %v: %w", kind, world.ErrInvalidArgument)
	}
	cur, err := target(w, x, y, z)
	if err != nil {
		return err
	}
	if cur != world.BlockTypeAir && !cur.IsLiquid() {
		return fmt.Errorf("place %v over %v at (%d,%d,%d): %w", kind, cur, x, y, z, ErrOccupied)
	}
	if kind.IsSolid() {
		cell := BlockBox(x, y, z)
		for _, o := range occupants {
			if cell.Intersects(o) {
				return fmt.Errorf("place %v at (%d,%d,%d): %w", kind, x, y, z, ErrObstructed)
			}
		}
	}
	w.SetBlock(x, y, z, kind)
	return nil
}

// PlaceAgainst places kind on the face of the block hit by a pick.
func PlaceAgainst(w *world.World, hit world.RaycastResult, kind world.BlockType, occupants ...AABB) error {
	if !hit.Hit {
		return fmt.Errorf("place %v: no target: %w", kind, world.ErrInvalidArgument)
	}
	p := hit.AdjacentPosition
	return Place(w, p[0], p[1], p[2], kind, occupants...)
}
