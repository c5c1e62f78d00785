package meshing

import "voxelcraft/internal/world"

// span covers the center chunk plus a one-cell ring.
const span = world.ChunkWidth + 2

// sampler reads cells around the center chunk of a neighborhood and caches
// the top solid cell of each column for sky light.
type sampler struct {
	n   world.Neighborhood
	top [span][span]int
}

func newSampler(n world.Neighborhood) *sampler {
	s := &sampler{n: n}
	for x := -1; x <= world.ChunkWidth; x++ {
		for z := -1; z <= world.ChunkWidth; z++ {
			top := -1
			for y := world.ChunkHeight - 1; y >= 0; y-- {
				if b, _ := n.Block(x, y, z); b.IsSolid() {
					top = y
					break
				}
			}
			s.top[x+1][z+1] = top
		}
	}
	return s
}

// block treats below the world as solid, and above it or in absent chunks as air.
func (s *sampler) block(x, y, z int) world.BlockType {
	if y < 0 {
		return world.BlockTypeBedrock
	}
	b, ok := s.n.Block(x, y, z)
	if !ok {
		return world.BlockTypeAir
	}
	return b
}

func (s *sampler) skyLight(x, y, z int) float32 {
	if x < -1 || x > world.ChunkWidth || z < -1 || z > world.ChunkWidth {
		return world.SkyLightFull
	}
	return world.SkyLightFor(y > s.top[x+1][z+1])
}

func (s *sampler) occludes(x, y, z int) bool {
	b := s.block(x, y, z)
	return b.IsSolid() && !b.IsTransparent()
}

// cornerAO returns the classic vertex occlusion level, 3 for open down to 0.
// (fx, fy, fz) is the cell in front of the face and c the corner offset.
func (s *sampler) cornerAO(face world.BlockFace, fx, fy, fz int, c [3]int) int {
	var normalAxis int
	n := face.Normal()
	for i := range 3 {
		if n[i] != 0 {
			normalAxis = i
		}
	}
	var d [2][3]int
	k := 0
	for i := range 3 {
		if i == normalAxis {
			continue
		}
		d[k][i] = c[i]*2 - 1
		k++
	}
	f := [3]int{fx, fy, fz}
	at := func(o [3]int) bool {
		return s.occludes(f[0]+o[0], f[1]+o[1], f[2]+o[2])
	}
	side1, side2 := at(d[0]), at(d[1])
	if side1 && side2 {
		return 0
	}
	corner := at([3]int{d[0][0] + d[1][0], d[0][1] + d[1][1], d[0][2] + d[1][2]})
	return 3 - btoi(side1) - btoi(side2) - btoi(corner)
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// quadIndices splits the quad along the diagonal with the brighter ends so
// occlusion interpolates without a crease.
func quadIndices(first uint32, ao [4]int) []uint32 {
	if ao[0]+ao[2] < ao[1]+ao[3] {
		return []uint32{first + 1, first + 2, first + 3, first + 1, first + 3, first}
	}
	return []uint32{first, first + 1, first + 2, first, first + 2, first + 3}
}
