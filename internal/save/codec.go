// Package save persists whole worlds: the loaded chunk set, the seed and
// generator settings, the observer and the calendar.
//
// A save is a little-endian length-prefixed record:
//
//	u32 body length
//	u32 version
//	u64 seed
//	u8  generator flags (version 2 and later)
//	f32 x, y, z, yaw, pitch
//	f32 time of day
//	u32 day count
//	u32 chunk count
//	chunk count times: i32 cx, i32 cz, ChunkVolume block ordinals
package save

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"voxelcraft/internal/world"
)

// Version is the format written by Encode. Version 3 changed the terrain
// lattice hash; older saves restore with GeneratorOptions.LegacyLattice.
const Version uint32 = 3

const (
	flagSimplex uint8 = 1 << iota
	flagCaves
	flagLegacyLattice
)

// knownFlags returns the generator flags defined by a format version.
func knownFlags(version uint32) uint8 {
	if version >= 3 {
		return flagSimplex | flagCaves | flagLegacyLattice
	}
	return flagSimplex | flagCaves
}

const chunkRecordSize = 8 + world.ChunkVolume

// ErrSerializationMismatch reports an unsupported version or a corrupt payload.
// Nothing is constructed from a record that fails with it.
var ErrSerializationMismatch = errors.New("save format mismatch")

// Record is one decoded save.
type Record struct {
	// Version the record was read as. Encode ignores it.
	Version   uint32
	Seed      uint64
	Generator world.GeneratorOptions
	Observer  Observer
	Calendar  Calendar
	Chunks    []*world.Chunk
}

func headerSize(version uint32) int {
	n := 4 + 8 + 5*4 + 4 + 4 + 4
	if version >= 2 {
		n++
	}
	return n
}

func encodeFlags(o world.GeneratorOptions) uint8 {
	var f uint8
	if o.Noise == world.NoiseSimplex {
		f |= flagSimplex
	}
	if o.Caves {
		f |= flagCaves
	}
	if o.LegacyLattice {
		f |= flagLegacyLattice
	}
	return f
}

func decodeFlags(f uint8, version uint32) (world.GeneratorOptions, error) {
	if f&^knownFlags(version) != 0 {
		return world.GeneratorOptions{}, fmt.Errorf("%w: unknown generator flags %#x", ErrSerializationMismatch, f)
	}
	o := world.GeneratorOptions{
		Noise:         world.NoiseValue,
		Caves:         f&flagCaves != 0,
		LegacyLattice: version < 3 || f&flagLegacyLattice != 0,
	}
	if f&flagSimplex != 0 {
		o.Noise = world.NoiseSimplex
	}
	return o, nil
}

// Encode writes rec in the current format.
func Encode(w io.Writer, rec Record) error {
	body := headerSize(Version) + len(rec.Chunks)*chunkRecordSize
	if uint64(body) > math.MaxUint32 {
		return fmt.Errorf("save of %d chunks is too large: %w", len(rec.Chunks), world.ErrInvalidArgument)
	}

	var hdr bytes.Buffer
	hdr.Grow(4 + headerSize(Version))
	le := binary.LittleEndian
	hdr.Write(le.AppendUint32(nil, uint32(body)))
	hdr.Write(le.AppendUint32(nil, Version))
	hdr.Write(le.AppendUint64(nil, rec.Seed))
	hdr.WriteByte(encodeFlags(rec.Generator))
	for _, f := range []float32{
		rec.Observer.Position.X(), rec.Observer.Position.Y(), rec.Observer.Position.Z(),
		rec.Observer.Yaw, rec.Observer.Pitch, rec.Calendar.TimeOfDay,
	} {
		hdr.Write(le.AppendUint32(nil, math.Float32bits(f)))
	}
	hdr.Write(le.AppendUint32(nil, rec.Calendar.Day))
	hdr.Write(le.AppendUint32(nil, uint32(len(rec.Chunks))))
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("write save header: %w", err)
	}

	pos := make([]byte, 0, 8)
	for _, c := range rec.Chunks {
		if c.Pos.X != int(int32(c.Pos.X)) || c.Pos.Z != int(int32(c.Pos.Z)) {
			return fmt.Errorf("chunk %v outside the 32-bit range: %w", c.Pos, world.ErrInvalidArgument)
		}
		pos = le.AppendUint32(pos[:0], uint32(int32(c.Pos.X)))
		pos = le.AppendUint32(pos, uint32(int32(c.Pos.Z)))
		if _, err := w.Write(pos); err != nil {
			return fmt.Errorf("write chunk %v: %w", c.Pos, err)
		}
		if _, err := w.Write(c.Bytes()); err != nil {
			return fmt.Errorf("write chunk %v: %w", c.Pos, err)
		}
	}
	return nil
}

// decoder reads fixed-width fields from a body of known length.
type decoder struct {
	r   io.Reader
	buf [8]byte
	err error
}

func (d *decoder) read(n int) []byte {
	if d.err != nil {
		return d.buf[:n]
	}
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		d.err = err
	}
	return d.buf[:n]
}

func (d *decoder) u8() uint8   { return d.read(1)[0] }
func (d *decoder) u32() uint32 { return binary.LittleEndian.Uint32(d.read(4)) }
func (d *decoder) u64() uint64 { return binary.LittleEndian.Uint64(d.read(8)) }
func (d *decoder) f32() float32 {
	return math.Float32frombits(d.u32())
}

func (d *decoder) fail(what string) error {
	if errors.Is(d.err, io.EOF) || errors.Is(d.err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated %s", ErrSerializationMismatch, what)
	}
	return fmt.Errorf("read %s: %w", what, d.err)
}

// Decode reads a record written by Encode in any supported version. Version 1
// saves predate generator flags and decode as value noise without caves.
// Saves older than version 3 keep the legacy lattice hash.
func Decode(r io.Reader) (Record, error) {
	d := &decoder{r: r}
	body := d.u32()
	if d.err != nil {
		return Record{}, d.fail("save length")
	}
	d.r = io.LimitReader(r, int64(body))

	var rec Record
	rec.Version = d.u32()
	if d.err != nil {
		return Record{}, d.fail("save header")
	}
	if rec.Version < 1 || rec.Version > Version {
		return Record{}, fmt.Errorf("%w: unsupported version %d", ErrSerializationMismatch, rec.Version)
	}
	if int64(body) < int64(headerSize(rec.Version)) {
		return Record{}, fmt.Errorf("%w: body of %d bytes is shorter than the header", ErrSerializationMismatch, body)
	}

	rec.Seed = d.u64()
	if rec.Version >= 2 {
		opts, err := decodeFlags(d.u8(), rec.Version)
		if err != nil {
			return Record{}, err
		}
		rec.Generator = opts
	} else {
		rec.Generator = world.GeneratorOptions{Noise: world.NoiseValue, LegacyLattice: true}
	}
	rec.Observer.Position = [3]float32{d.f32(), d.f32(), d.f32()}
	rec.Observer.Yaw = d.f32()
	rec.Observer.Pitch = d.f32()
	rec.Calendar.TimeOfDay = d.f32()
	rec.Calendar.Day = d.u32()
	count := d.u32()
	if d.err != nil {
		return Record{}, d.fail("save header")
	}
	if want := int64(headerSize(rec.Version)) + int64(count)*chunkRecordSize; want != int64(body) {
		return Record{}, fmt.Errorf("%w: %d chunks need a %d byte body, have %d", ErrSerializationMismatch, count, want, body)
	}

	seen := make(map[world.ChunkPos]struct{}, count)
	rec.Chunks = make([]*world.Chunk, 0, count)
	blocks := make([]byte, world.ChunkVolume)
	for i := range count {
		pos := world.ChunkPos{X: int(int32(d.u32())), Z: int(int32(d.u32()))}
		if d.err == nil {
			if _, err := io.ReadFull(d.r, blocks); err != nil {
				d.err = err
			}
		}
		if d.err != nil {
			return Record{}, d.fail(fmt.Sprintf("chunk %d", i))
		}
		if _, dup := seen[pos]; dup {
			return Record{}, fmt.Errorf("%w: chunk %v appears twice", ErrSerializationMismatch, pos)
		}
		seen[pos] = struct{}{}
		c := world.NewChunk(pos.X, pos.Z)
		if err := c.SetBytes(blocks); err != nil {
			return Record{}, fmt.Errorf("%w: chunk %v: %w", ErrSerializationMismatch, pos, err)
		}
		rec.Chunks = append(rec.Chunks, c)
	}
	return rec, nil
}

// Capture snapshots every loaded chunk of w along with the observer and calendar.
func Capture(w *world.World, obs Observer, cal Calendar) Record {
	return Record{
		Version:   Version,
		Seed:      w.Seed(),
		Generator: w.Options(),
		Observer:  obs,
		Calendar:  cal,
		Chunks:    w.Chunks(),
	}
}

// Restore builds a world from rec. The saved generator settings come first so
// opts may still replace the archive, logger or worker count. Restored chunks
// are dirty so that eviction keeps their edits, and their meshes start invalid.
func Restore(rec Record, opts ...world.Option) (*world.World, error) {
	all := append([]world.Option{world.WithGeneratorOptions(rec.Generator)}, opts...)
	w := world.New(rec.Seed, all...)
	for _, c := range rec.Chunks {
		nc := world.NewChunk(c.Pos.X, c.Pos.Z)
		if err := nc.SetBytes(c.Bytes()); err != nil {
			return nil, fmt.Errorf("%w: chunk %v: %w", ErrSerializationMismatch, c.Pos, err)
		}
		if !w.Install(nc) {
			return nil, fmt.Errorf("%w: chunk %v appears twice", ErrSerializationMismatch, c.Pos)
		}
	}
	return w, nil
}
