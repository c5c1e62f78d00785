package world

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"voxelcraft/internal/profiling"
)

// EvictMargin is how far beyond the load radius a chunk may drift before it
// is evicted.
const EvictMargin = 2

// ChunkArchive persists chunks that leave memory. Implementations must be
// safe for concurrent use.
type ChunkArchive interface {
	// Load returns the archived chunk at pos; ok is false if none exists.
	Load(pos ChunkPos) (c *Chunk, ok bool, err error)
	// Store writes c, replacing any previous version.
	Store(c *Chunk) error
}

// Option configures a World.
type Option func(*World)

// WithGeneratorOptions selects the noise basis and cave carving of the
// default generator.
func WithGeneratorOptions(opts GeneratorOptions) Option {
	return func(w *World) { w.genOpts = opts }
}

// WithGenerator replaces the default seeded generator.
func WithGenerator(g TerrainGenerator) Option {
	return func(w *World) { w.gen = g }
}

// WithArchive enables persistence of evicted dirty chunks.
func WithArchive(a ChunkArchive) Option {
	return func(w *World) { w.archive = a }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(w *World) { w.log = l }
}

// WithWorkers bounds the parallelism of chunk generation.
func WithWorkers(n int) Option {
	return func(w *World) { w.workers = n }
}

// World owns the loaded chunk set. All mutation goes through its methods,
// which are serialized by mu; streaming updates are further serialized by
// streamMu so a second update queues behind the first.
type World struct {
	seed    uint64
	genOpts GeneratorOptions
	gen     TerrainGenerator
	archive ChunkArchive
	log     *slog.Logger
	workers int

	mu       sync.RWMutex
	chunks   map[ChunkPos]*Chunk
	modCount uint64 // increases on any chunk add/remove

	streamMu sync.Mutex
}

// New creates an empty world. Chunks appear through UpdateAround, Load or Install.
func New(seed uint64, opts ...Option) *World {
	w := &World{
		seed:    seed,
		workers: runtime.NumCPU(),
		chunks:  make(map[ChunkPos]*Chunk),
	}
	for _, o := range opts {
		o(w)
	}
	if w.gen == nil {
		w.gen = NewGenerator(seed, w.genOpts)
	}
	if w.log == nil {
		w.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	w.workers = max(w.workers, 1)
	return w
}

// Seed returns the immutable world seed.
func (w *World) Seed() uint64 { return w.seed }

// Options returns the generator options persisted with the world.
func (w *World) Options() GeneratorOptions { return w.genOpts }

// Generator returns the terrain generator.
func (w *World) Generator() TerrainGenerator { return w.gen }

// BiomeAt returns the biome of world column (x, z).
func (w *World) BiomeAt(x, z int) Biome { return w.gen.BiomeAt(x, z) }

// chunkAt requires mu to be held.
func (w *World) chunkAt(x, z int) *Chunk {
	return w.chunks[ChunkPosAt(x, z)]
}

// blockAt requires mu to be held.
func (w *World) blockAt(x, y, z int) (BlockType, bool) {
	if y < 0 || y >= ChunkHeight {
		return BlockTypeAir, false
	}
	c := w.chunkAt(x, z)
	if c == nil {
		return BlockTypeAir, false
	}
	return c.Get(mod(x, ChunkWidth), y, mod(z, ChunkWidth)), true
}

// Block returns the block at world coordinates. ok is false when y is out of
// range or the chunk is not loaded; callers must not read that as air.
func (w *World) Block(x, y, z int) (b BlockType, ok bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.blockAt(x, y, z)
}

// SetBlock writes a block. It is a no-op out of the vertical range or when
// the chunk is not loaded. Editing a border cell invalidates the neighbor's mesh.
func (w *World) SetBlock(x, y, z int, b BlockType) {
	if y < 0 || y >= ChunkHeight {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	c := w.chunkAt(x, z)
	if c == nil {
		return
	}
	lx, lz := mod(x, ChunkWidth), mod(z, ChunkWidth)
	c.Set(lx, y, lz, b)

	// Mark neighbor chunks for remeshing if we touched a border block.
	// A corner cell also shades the diagonal chunk.
	dx, dz := borderStep(lx), borderStep(lz)
	if dx != 0 {
		w.invalidateMesh(ChunkPos{c.Pos.X + dx, c.Pos.Z})
	}
	if dz != 0 {
		w.invalidateMesh(ChunkPos{c.Pos.X, c.Pos.Z + dz})
	}
	if dx != 0 && dz != 0 {
		w.invalidateMesh(ChunkPos{c.Pos.X + dx, c.Pos.Z + dz})
	}
}

// borderStep returns the chunk step toward the border a local coordinate
// touches, or 0 inside the chunk.
func borderStep(l int) int {
	switch l {
	case 0:
		return -1
	case ChunkWidth - 1:
		return 1
	}
	return 0
}

func (w *World) invalidateMesh(pos ChunkPos) {
	if nb := w.chunks[pos]; nb != nil {
		nb.InvalidateMesh()
	}
}

// HeightAt returns the highest non-air y of column (x, z), or 0 when the
// column is empty or unloaded.
func (w *World) HeightAt(x, z int) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c := w.chunkAt(x, z)
	if c == nil {
		return 0
	}
	lx, lz := mod(x, ChunkWidth), mod(z, ChunkWidth)
	for y := ChunkHeight - 1; y >= 0; y-- {
		if c.Get(lx, y, lz) != BlockTypeAir {
			return y
		}
	}
	return 0
}

// IsSolid is a total solidity query for physics: below the world is solid,
// above the world and unloaded chunks are not.
func (w *World) IsSolid(x, y, z int) bool {
	if y < 0 {
		return true
	}
	b, ok := w.Block(x, y, z)
	return ok && b.IsSolid()
}

// HasChunk reports whether the chunk at pos is loaded.
func (w *World) HasChunk(pos ChunkPos) bool {
	w.mu.RLock()
	_, ok := w.chunks[pos]
	w.mu.RUnlock()
	return ok
}

// Chunk returns a snapshot of the loaded chunk at pos.
func (w *World) Chunk(pos ChunkPos) (*Chunk, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.chunks[pos]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Chunks returns snapshots of every loaded chunk ordered by position.
func (w *World) Chunks() []*Chunk {
	w.mu.RLock()
	out := make([]*Chunk, 0, len(w.chunks))
	for _, c := range w.chunks {
		out = append(out, c.Clone())
	}
	w.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Chunk) int { return comparePos(a.Pos, b.Pos) })
	return out
}

// Loaded returns the positions of every loaded chunk ordered by position.
func (w *World) Loaded() []ChunkPos {
	w.mu.RLock()
	out := make([]ChunkPos, 0, len(w.chunks))
	for pos := range w.chunks {
		out = append(out, pos)
	}
	w.mu.RUnlock()
	slices.SortFunc(out, comparePos)
	return out
}

// Len returns the number of loaded chunks.
func (w *World) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}

// ModCount increases whenever a chunk is added or removed.
func (w *World) ModCount() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.modCount
}

func comparePos(a, b ChunkPos) int {
	if a.X != b.X {
		return a.X - b.X
	}
	return a.Z - b.Z
}

// Install adds c if no chunk occupies its position and reports whether it was
// added. The eight surrounding chunks are marked for remeshing.
func (w *World) Install(c *Chunk) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.install(c)
}

// install requires mu to be held.
func (w *World) install(c *Chunk) bool {
	if _, ok := w.chunks[c.Pos]; ok {
		return false
	}
	c.meshValid = false
	w.chunks[c.Pos] = c
	w.modCount++
	p := c.Pos
	for dx := -1; dx <= 1; dx++ {
		for dz := -1; dz <= 1; dz++ {
			if dx != 0 || dz != 0 {
				w.invalidateMesh(ChunkPos{p.X + dx, p.Z + dz})
			}
		}
	}
	return true
}

// produce returns the archived chunk at pos, or generates it.
func (w *World) produce(pos ChunkPos) (c *Chunk, restored bool) {
	if w.archive != nil {
		c, ok, err := w.archive.Load(pos)
		if err != nil {
			w.log.Warn("chunk archive load failed, regenerating", "chunk", pos, "err", err)
		} else if ok {
			c.Pos = pos
			c.SetClean()
			return c, true
		}
	}
	defer profiling.Track("world.Generate")()
	return w.gen.Generate(pos), false
}

// Load makes the chunk at pos resident, restoring it from the archive or
// generating it, and reports whether it was already loaded.
func (w *World) Load(pos ChunkPos) bool {
	if w.HasChunk(pos) {
		return true
	}
	c, _ := w.produce(pos)
	return !w.Install(c)
}

// StreamStats summarizes one streaming update.
type StreamStats struct {
	Generated int
	Restored  int
	Evicted   int
	Persisted int
}

// UpdateAround loads every chunk within the square of the given radius around
// center and evicts every chunk farther than radius+EvictMargin. Dirty chunks
// are written to the archive before eviction; a chunk whose write fails stays
// loaded and the error is returned.
func (w *World) UpdateAround(center ChunkPos, radius int) (StreamStats, error) {
	if radius < 0 {
		return StreamStats{}, fmt.Errorf("%w: negative radius %d", ErrInvalidArgument, radius)
	}
	defer profiling.Track("world.UpdateAround")()
	w.streamMu.Lock()
	defer w.streamMu.Unlock()

	var stats StreamStats
	evictErr := w.evictFar(center, radius+EvictMargin, &stats)

	var missing []ChunkPos
	w.mu.RLock()
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			pos := ChunkPos{center.X + dx, center.Z + dz}
			if _, ok := w.chunks[pos]; !ok {
				missing = append(missing, pos)
			}
		}
	}
	w.mu.RUnlock()

	// Generation is pure, so it runs outside the lock; results merge in one step.
	produced := make([]*Chunk, len(missing))
	restored := make([]bool, len(missing))
	var g errgroup.Group
	g.SetLimit(w.workers)
	for i, pos := range missing {
		g.Go(func() error {
			produced[i], restored[i] = w.produce(pos)
			return nil
		})
	}
	_ = g.Wait()

	w.mu.Lock()
	for i, c := range produced {
		if !w.install(c) {
			continue
		}
		if restored[i] {
			stats.Restored++
		} else {
			stats.Generated++
		}
	}
	loaded := len(w.chunks)
	w.mu.Unlock()

	w.log.Debug("chunks streamed",
		"center", center, "radius", radius, "loaded", loaded,
		"generated", stats.Generated, "restored", stats.Restored,
		"evicted", stats.Evicted, "persisted", stats.Persisted)
	return stats, evictErr
}

// evictFar removes chunks whose squared distance from center exceeds limit².
func (w *World) evictFar(center ChunkPos, limit int, stats *StreamStats) error {
	defer profiling.Track("world.EvictFarChunks")()
	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	for pos, c := range w.chunks {
		if pos.DistSq(center) <= limit*limit {
			continue
		}
		if c.IsDirty() && w.archive != nil {
			if err := w.archive.Store(c); err != nil {
				w.log.Warn("chunk archive store failed, keeping chunk", "chunk", pos, "err", err)
				errs = append(errs, fmt.Errorf("persist chunk %v: %w", pos, err))
				continue
			}
			c.SetClean()
			stats.Persisted++
		}
		delete(w.chunks, pos)
		w.modCount++
		stats.Evicted++
	}
	return errors.Join(errs...)
}

// Flush writes every dirty chunk to the archive and returns how many were written.
func (w *World) Flush() (int, error) {
	if w.archive == nil {
		return 0, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	var errs []error
	for pos, c := range w.chunks {
		if !c.IsDirty() {
			continue
		}
		if err := w.archive.Store(c); err != nil {
			errs = append(errs, fmt.Errorf("persist chunk %v: %w", pos, err))
			continue
		}
		c.SetClean()
		n++
	}
	return n, errors.Join(errs...)
}

// Neighborhood is an immutable snapshot of a chunk and the eight chunks
// around it, taken for meshing. Face culling only looks at the four edge
// neighbors; the diagonals feed ambient occlusion and sky light at the chunk
// corners. Absent chunks are nil.
type Neighborhood struct {
	Center                   *Chunk
	North, South, East, West *Chunk
	NorthEast, NorthWest     *Chunk
	SouthEast, SouthWest     *Chunk
	// Revision of Center when the snapshot was taken.
	Revision uint64
}

// Neighborhood snapshots the chunk at pos with its neighbors.
func (w *World) Neighborhood(pos ChunkPos) (Neighborhood, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.chunks[pos]
	if !ok {
		return Neighborhood{}, false
	}
	snap := func(dx, dz int) *Chunk {
		if nb := w.chunks[ChunkPos{pos.X + dx, pos.Z + dz}]; nb != nil {
			return nb.Clone()
		}
		return nil
	}
	return Neighborhood{
		Center:    c.Clone(),
		North:     snap(0, -1),
		South:     snap(0, 1),
		East:      snap(1, 0),
		West:      snap(-1, 0),
		NorthEast: snap(1, -1),
		NorthWest: snap(-1, -1),
		SouthEast: snap(1, 1),
		SouthWest: snap(-1, 1),
		Revision:  c.Revision(),
	}, true
}

// chunk returns the snapshot at chunk offset (dx, dz) from the center.
func (n Neighborhood) chunk(dx, dz int) *Chunk {
	switch [2]int{dx, dz} {
	case [2]int{0, 0}:
		return n.Center
	case [2]int{0, -1}:
		return n.North
	case [2]int{0, 1}:
		return n.South
	case [2]int{1, 0}:
		return n.East
	case [2]int{-1, 0}:
		return n.West
	case [2]int{1, -1}:
		return n.NorthEast
	case [2]int{-1, -1}:
		return n.NorthWest
	case [2]int{1, 1}:
		return n.SouthEast
	case [2]int{-1, 1}:
		return n.SouthWest
	}
	return nil
}

// Block reads a cell in center-local coordinates; x and z may step one chunk
// outside the center. ok is false for cells in absent chunks or further out.
func (n Neighborhood) Block(x, y, z int) (BlockType, bool) {
	if y < 0 || y >= ChunkHeight {
		return BlockTypeAir, false
	}
	c := n.chunk(floorDiv(x, ChunkWidth), floorDiv(z, ChunkWidth))
	if c == nil {
		return BlockTypeAir, false
	}
	return c.Get(mod(x, ChunkWidth), y, mod(z, ChunkWidth)), true
}

// MarkMeshValid records that a mesh built from the given revision is current.
// It reports false if the chunk changed or left memory in the meantime.
func (w *World) MarkMeshValid(pos ChunkPos, revision uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	c, ok := w.chunks[pos]
	if !ok || c.Revision() != revision {
		return false
	}
	c.meshValid = true
	return true
}

// InvalidMeshes lists loaded chunks whose mesh must be rebuilt, ordered by position.
func (w *World) InvalidMeshes() []ChunkPos {
	w.mu.RLock()
	var out []ChunkPos
	for pos, c := range w.chunks {
		if !c.meshValid {
			out = append(out, pos)
		}
	}
	w.mu.RUnlock()
	slices.SortFunc(out, comparePos)
	return out
}
