package world

import "fmt"

const (
	// Chunk dimensions
	ChunkWidth  = 16
	ChunkHeight = 128

	LayerSize   = ChunkWidth * ChunkWidth
	ChunkVolume = LayerSize * ChunkHeight
)

// ChunkPos is a chunk coordinate on the horizontal plane.
type ChunkPos struct {
	X, Z int
}

func (p ChunkPos) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Z) }

// Origin returns the world coordinates of the chunk's (0,0) column.
func (p ChunkPos) Origin() (x, z int) { return p.X * ChunkWidth, p.Z * ChunkWidth }

// DistSq is the squared chunk distance between p and o.
func (p ChunkPos) DistSq(o ChunkPos) int {
	dx, dz := p.X-o.X, p.Z-o.Z
	return dx*dx + dz*dz
}

// Chunk is a dense 16x128x16 block volume stored y, z, x so each layer is contiguous.
type Chunk struct {
	Pos ChunkPos

	blocks    [ChunkVolume]BlockType
	dirty     bool
	meshValid bool
	revision  uint64
}

// NewChunk creates an all-air chunk at the given chunk coordinates.
func NewChunk(cx, cz int) *Chunk {
	return &Chunk{Pos: ChunkPos{X: cx, Z: cz}}
}

// index converts local coordinates to a flat offset.
func index(x, y, z int) int {
	return y*LayerSize + z*ChunkWidth + x
}

func inBounds(x, y, z int) bool {
	return x >= 0 && x < ChunkWidth && z >= 0 && z < ChunkWidth && y >= 0 && y < ChunkHeight
}

// Get returns the block at local coordinates, or Air when out of bounds.
func (c *Chunk) Get(x, y, z int) BlockType {
	if !inBounds(x, y, z) {
		return BlockTypeAir
	}
	return c.blocks[index(x, y, z)]
}

// Set writes a block at local coordinates. Out-of-bounds writes are ignored.
func (c *Chunk) Set(x, y, z int, b BlockType) {
	if !inBounds(x, y, z) {
		return
	}
	c.blocks[index(x, y, z)] = b
	c.touch()
}

// FillLayer sets every cell at height y.
func (c *Chunk) FillLayer(y int, b BlockType) {
	if y < 0 || y >= ChunkHeight {
		return
	}
	layer := c.blocks[y*LayerSize : (y+1)*LayerSize]
	for i := range layer {
		layer[i] = b
	}
	c.touch()
}

// FillColumn sets the cells [y0, y1) of one column, clamped to the chunk height.
func (c *Chunk) FillColumn(x, z, y0, y1 int, b BlockType) {
	if x < 0 || x >= ChunkWidth || z < 0 || z >= ChunkWidth {
		return
	}
	y0 = max(y0, 0)
	y1 = min(y1, ChunkHeight)
	if y0 >= y1 {
		return
	}
	for y := y0; y < y1; y++ {
		c.blocks[index(x, y, z)] = b
	}
	c.touch()
}

func (c *Chunk) touch() {
	c.dirty = true
	c.meshValid = false
	c.revision++
}

// IsEmpty reports whether every cell is air.
func (c *Chunk) IsEmpty() bool {
	for _, b := range c.blocks {
		if b != BlockTypeAir {
			return false
		}
	}
	return true
}

// Count returns the number of non-air cells.
func (c *Chunk) Count() int {
	n := 0
	for _, b := range c.blocks {
		if b != BlockTypeAir {
			n++
		}
	}
	return n
}

// IsDirty reports whether the contents changed since the last persist.
func (c *Chunk) IsDirty() bool { return c.dirty }

// SetClean clears the persistence dirty flag.
func (c *Chunk) SetClean() { c.dirty = false }

// MeshValid reports whether the last built mesh reflects the contents.
func (c *Chunk) MeshValid() bool { return c.meshValid }

// InvalidateMesh forces a rebuild without touching the contents.
func (c *Chunk) InvalidateMesh() {
	c.meshValid = false
	c.revision++
}

// Revision increases on every content change or mesh invalidation.
func (c *Chunk) Revision() uint64 { return c.revision }

// Clone returns a detached copy used as an immutable meshing snapshot.
func (c *Chunk) Clone() *Chunk {
	cp := *c
	return &cp
}

// Bytes returns the block ordinals in storage order.
func (c *Chunk) Bytes() []byte {
	out := make([]byte, ChunkVolume)
	for i, b := range c.blocks {
		out[i] = byte(b)
	}
	return out
}

// SetBytes replaces the contents from ordinals in storage order.
// It rejects payloads of the wrong size or with unknown ordinals.
func (c *Chunk) SetBytes(data []byte) error {
	if len(data) != ChunkVolume {
		return fmt.Errorf("%w: chunk payload is %d bytes, want %d", ErrInvalidArgument, len(data), ChunkVolume)
	}
	for i, v := range data {
		if !BlockType(v).Valid() {
			return fmt.Errorf("%w: unknown block ordinal %d at offset %d", ErrInvalidArgument, v, i)
		}
	}
	for i, v := range data {
		c.blocks[i] = BlockType(v)
	}
	c.touch()
	return nil
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// mod is the Euclidean remainder, always in [0, b).
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// WorldToLocal decomposes world block coordinates into a chunk and local offsets.
func WorldToLocal(x, y, z int) (cx, cz, lx, ly, lz int) {
	return floorDiv(x, ChunkWidth), floorDiv(z, ChunkWidth), mod(x, ChunkWidth), y, mod(z, ChunkWidth)
}

// ChunkPosAt returns the chunk containing world column (x, z).
func ChunkPosAt(x, z int) ChunkPos {
	return ChunkPos{X: floorDiv(x, ChunkWidth), Z: floorDiv(z, ChunkWidth)}
}
