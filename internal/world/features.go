package world

// Features that can cross chunk borders (trees, structures) are anchored at a
// world column. Every chunk re-derives all anchors whose footprint reaches it,
// in one global order, and keeps only the cells inside itself. A chunk is
// therefore identical no matter which neighbors were generated first.

// stamper writes world-space cells into one chunk, clipping everything else.
// The bedrock floor is never overwritten.
type stamper struct {
	c      *Chunk
	ox, oz int
}

func newStamper(c *Chunk) *stamper {
	ox, oz := c.Pos.Origin()
	return &stamper{c: c, ox: ox, oz: oz}
}

func (s *stamper) contains(x, y, z int) bool {
	lx, lz := x-s.ox, z-s.oz
	return lx >= 0 && lx < ChunkWidth && lz >= 0 && lz < ChunkWidth && y > 0 && y < ChunkHeight
}

// reaches reports whether the box [x0,x1]x[z0,z1] overlaps the chunk.
func (s *stamper) reaches(x0, z0, x1, z1 int) bool {
	return x1 >= s.ox && x0 < s.ox+ChunkWidth && z1 >= s.oz && z0 < s.oz+ChunkWidth
}

func (s *stamper) get(x, y, z int) BlockType {
	if !s.contains(x, y, z) {
		return BlockTypeAir
	}
	return s.c.Get(x-s.ox, y, z-s.oz)
}

func (s *stamper) set(x, y, z int, b BlockType) {
	if s.contains(x, y, z) {
		s.c.Set(x-s.ox, y, z-s.oz, b)
	}
}

// setIfAir only fills empty cells.
func (s *stamper) setIfAir(x, y, z int, b BlockType) {
	if s.contains(x, y, z) && s.get(x, y, z) == BlockTypeAir {
		s.c.Set(x-s.ox, y, z-s.oz, b)
	}
}

func (s *stamper) box(x0, y0, z0, x1, y1, z1 int, b BlockType) {
	for y := y0; y <= y1; y++ {
		for z := z0; z <= z1; z++ {
			for x := x0; x <= x1; x++ {
				s.set(x, y, z, b)
			}
		}
	}
}

const (
	treeCrownRadius = 2
	treeMinTrunk    = 4
)

type tree struct {
	x, z   int
	ground int
	trunk  int
}

// treeAt decides whether a tree grows on column (x, z).
func (g *Generator) treeAt(x, z int) (tree, bool) {
	h := g.hash2(int64(x), int64(z), g.hashSeed(saltTree))
	col := g.column(x, z)
	if col.props.TreeDensity <= 0 || unit(h) >= col.props.TreeDensity*0.1 {
		return tree{}, false
	}
	if col.props.Surface != BlockTypeGrass || col.height < col.props.WaterLevel {
		return tree{}, false
	}
	return tree{x: x, z: z, ground: col.height, trunk: treeMinTrunk + int((h>>40)%3)}, true
}

func (g *Generator) plantTrees(s *stamper) {
	r := treeCrownRadius
	for x := s.ox - r; x < s.ox+ChunkWidth+r; x++ {
		for z := s.oz - r; z < s.oz+ChunkWidth+r; z++ {
			if t, ok := g.treeAt(x, z); ok {
				stampTree(s, t)
			}
		}
	}
}

func stampTree(s *stamper, t tree) {
	top := t.ground + t.trunk
	for y := t.ground + 1; y <= top; y++ {
		if b := s.get(t.x, y, t.z); b == BlockTypeAir || b == BlockTypeLeaves {
			s.set(t.x, y, t.z, BlockTypeWood)
		}
	}
	for dy := -2; dy <= 1; dy++ {
		r := 1
		if dy < 0 {
			r = 2
		}
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				corner := abs(dx) == r && abs(dz) == r
				if corner && (r == 2 || dy == 1) {
					continue
				}
				s.setIfAir(t.x+dx, top+dy, t.z+dz, BlockTypeLeaves)
			}
		}
	}
	s.setIfAir(t.x, top+1, t.z, BlockTypeLeaves)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
