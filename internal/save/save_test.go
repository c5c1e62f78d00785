package save

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcraft/internal/world"
)

func testWorld(t testing.TB, opts world.GeneratorOptions) *world.World {
	t.Helper()
	w := world.New(0xCAFEBABE, world.WithGeneratorOptions(opts), world.WithWorkers(2))
	if _, err := w.UpdateAround(world.ChunkPos{}, 1); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestRoundTripKeepsEdits(t *testing.T) {
	w := testWorld(t, world.GeneratorOptions{})
	w.SetBlock(7, 65, 7, world.BlockTypeDiamond)
	obs := Observer{Position: mgl32.Vec3{7.5, 66, 7.5}, Yaw: 1.25, Pitch: -0.5}
	cal := Calendar{TimeOfDay: 0.6, Day: 3}

	var buf bytes.Buffer
	if err := Encode(&buf, Capture(w, obs, cal)); err != nil {
		t.Fatal(err)
	}
	rec, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Version != Version || rec.Observer != obs || rec.Calendar != cal {
		t.Errorf("header mismatch: %+v", rec)
	}

	got, err := Restore(rec)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seed() != w.Seed() {
		t.Errorf("seed = %#x, want %#x", got.Seed(), w.Seed())
	}
	if b, ok := got.Block(7, 65, 7); !ok || b != world.BlockTypeDiamond {
		t.Errorf("Block(7,65,7) = %v, %v; want Diamond", b, ok)
	}
	if got.Len() != w.Len() {
		t.Fatalf("Expected %d chunks, got %d", w.Len(), got.Len())
	}
	for _, c := range w.Chunks() {
		rc, ok := got.Chunk(c.Pos)
		if !ok || !bytes.Equal(rc.Bytes(), c.Bytes()) {
			t.Errorf("chunk %v differs after restore", c.Pos)
		}
	}
	// Meshes are rebuilt lazily.
	if n := len(got.InvalidMeshes()); n != got.Len() {
		t.Errorf("Expected every restored mesh invalid, got %d of %d", n, got.Len())
	}
}

func TestRoundTripGeneratorFlags(t *testing.T) {
	for _, opts := range []world.GeneratorOptions{
		{Noise: world.NoiseSimplex},
		{Caves: true},
		{Noise: world.NoiseSimplex, Caves: true},
		{LegacyLattice: true},
		{Noise: world.NoiseSimplex, LegacyLattice: true},
	} {
		w := world.New(9, world.WithGeneratorOptions(opts))
		var buf bytes.Buffer
		if err := Encode(&buf, Capture(w, Observer{}, NewCalendar())); err != nil {
			t.Fatal(err)
		}
		rec, err := Decode(&buf)
		if err != nil {
			t.Fatal(err)
		}
		if rec.Generator != opts {
			t.Errorf("generator = %+v, want %+v", rec.Generator, opts)
		}
		restored, _ := Restore(rec)
		if restored.Options() != opts {
			t.Errorf("restored world options = %+v, want %+v", restored.Options(), opts)
		}
	}
}

// encodeV1 writes the original layout, which has no generator flags byte.
func encodeV1(seed uint64, chunks ...*world.Chunk) []byte {
	return encodeOld(1, 0, seed, chunks...)
}

// encodeOld writes a version 1 or 2 save. flags is only written for version 2.
func encodeOld(version uint32, flags uint8, seed uint64, chunks ...*world.Chunk) []byte {
	le := binary.LittleEndian
	var body []byte
	body = le.AppendUint32(body, version)
	body = le.AppendUint64(body, seed)
	if version >= 2 {
		body = append(body, flags)
	}
	for _, f := range []float32{1, 2, 3, 0.5, 0.25, 0.3} {
		body = le.AppendUint32(body, math.Float32bits(f))
	}
	body = le.AppendUint32(body, 4)
	body = le.AppendUint32(body, uint32(len(chunks)))
	for _, c := range chunks {
		body = le.AppendUint32(body, uint32(int32(c.Pos.X)))
		body = le.AppendUint32(body, uint32(int32(c.Pos.Z)))
		body = append(body, c.Bytes()...)
	}
	return append(le.AppendUint32(nil, uint32(len(body))), body...)
}

func TestDecodeVersion1(t *testing.T) {
	c := world.NewChunk(-2, 5)
	c.Set(1, 2, 3, world.BlockTypeGold)
	rec, err := Decode(bytes.NewReader(encodeV1(42, c)))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Version != 1 || rec.Seed != 42 {
		t.Errorf("header = %+v", rec)
	}
	if rec.Generator != (world.GeneratorOptions{Noise: world.NoiseValue, LegacyLattice: true}) {
		t.Errorf("Expected legacy value noise without caves, got %+v", rec.Generator)
	}
	want := Observer{Position: mgl32.Vec3{1, 2, 3}, Yaw: 0.5, Pitch: 0.25}
	if rec.Observer != want || rec.Calendar != (Calendar{TimeOfDay: 0.3, Day: 4}) {
		t.Errorf("state = %+v %+v", rec.Observer, rec.Calendar)
	}
	if len(rec.Chunks) != 1 || rec.Chunks[0].Pos != c.Pos || rec.Chunks[0].Get(1, 2, 3) != world.BlockTypeGold {
		t.Errorf("chunks = %+v", rec.Chunks)
	}
}

func TestDecodeVersion2KeepsLegacyTerrain(t *testing.T) {
	const seed = 0xCAFEBABE
	legacy := world.NewGenerator(seed, world.GeneratorOptions{Caves: true, LegacyLattice: true})
	saved := legacy.Generate(world.ChunkPos{})

	rec, err := Decode(bytes.NewReader(encodeOld(2, 0x02, seed, saved)))
	if err != nil {
		t.Fatal(err)
	}
	want := world.GeneratorOptions{Caves: true, LegacyLattice: true}
	if rec.Generator != want {
		t.Fatalf("generator = %+v, want %+v", rec.Generator, want)
	}

	// Chunks generated next to the saved ones must come from the same terrain.
	w, err := Restore(rec, world.WithWorkers(2))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.UpdateAround(world.ChunkPos{}, 1); err != nil {
		t.Fatal(err)
	}
	east, _ := w.Chunk(world.ChunkPos{X: 1})
	if !bytes.Equal(east.Bytes(), legacy.Generate(world.ChunkPos{X: 1}).Bytes()) {
		t.Error("chunk next to a version 2 save was not generated with the legacy lattice")
	}

	// Version 3 defines the legacy bit; version 2 does not.
	if _, err := Decode(bytes.NewReader(encodeOld(2, 0x04, seed))); !errors.Is(err, ErrSerializationMismatch) {
		t.Errorf("Expected ErrSerializationMismatch for a version 2 legacy bit, got %v", err)
	}
}

func TestNewWorldsUseCurrentLattice(t *testing.T) {
	w := world.New(5)
	var buf bytes.Buffer
	if err := Encode(&buf, Capture(w, Observer{}, NewCalendar())); err != nil {
		t.Fatal(err)
	}
	rec, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Version != 3 || rec.Generator.LegacyLattice {
		t.Errorf("Expected a version 3 save on the current lattice, got version %d %+v", rec.Version, rec.Generator)
	}
}

func TestDecodeRejectsMismatch(t *testing.T) {
	var good bytes.Buffer
	w := world.New(1, world.WithGenerator(world.EmptyGenerator{}))
	w.Load(world.ChunkPos{})
	if err := Encode(&good, Capture(w, Observer{}, Calendar{})); err != nil {
		t.Fatal(err)
	}
	valid := good.Bytes()

	mutate := func(f func(b []byte) []byte) []byte {
		return f(bytes.Clone(valid))
	}
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short length", valid[:2]},
		{"future version", mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[4:], Version+1)
			return b
		})},
		{"version zero", mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[4:], 0)
			return b
		})},
		{"unknown flags", mutate(func(b []byte) []byte {
			b[16] = 0x80
			return b
		})},
		{"truncated chunk", valid[:len(valid)-100]},
		{"chunk count too large", mutate(func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[4+headerSize(Version)-4:], 2)
			return b
		})},
		{"bad ordinal", mutate(func(b []byte) []byte {
			b[len(b)-1] = 250
			return b
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(bytes.NewReader(tt.data)); !errors.Is(err, ErrSerializationMismatch) {
				t.Errorf("Expected ErrSerializationMismatch, got %v", err)
			}
		})
	}

	dup := encodeV1(1, world.NewChunk(0, 0), world.NewChunk(0, 0))
	if _, err := Decode(bytes.NewReader(dup)); !errors.Is(err, ErrSerializationMismatch) {
		t.Errorf("duplicate chunk: expected ErrSerializationMismatch, got %v", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := testWorld(t, world.GeneratorOptions{Caves: true})
	w.SetBlock(-3, 70, 4, world.BlockTypeBrick)
	rec := Capture(w, Observer{Position: mgl32.Vec3{0, 80, 0}}, NewCalendar())

	for _, compress := range []bool{false, true} {
		path := PathFor(dir, "world")
		if err := WriteFile(path, rec, compress); err != nil {
			t.Fatal(err)
		}
		head, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if got := bytes.HasPrefix(head, zstdMagic); got != compress {
			t.Errorf("compress=%v: zstd magic present = %v", compress, got)
		}
		got, err := ReadFile(path)
		if err != nil {
			t.Fatalf("compress=%v: %v", compress, err)
		}
		if len(got.Chunks) != len(rec.Chunks) || got.Seed != rec.Seed || got.Generator != rec.Generator {
			t.Errorf("compress=%v: record differs", compress)
		}
		restored, err := Restore(got)
		if err != nil {
			t.Fatal(err)
		}
		if b, _ := restored.Block(-3, 70, 4); b != world.BlockTypeBrick {
			t.Errorf("compress=%v: edit lost, got %v", compress, b)
		}
	}

	// No temp files are left behind.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the save in %s, got %d entries", dir, len(entries))
	}
}

func TestListAndDelete(t *testing.T) {
	dir := t.TempDir()
	if saves, err := List(filepath.Join(dir, "missing")); err != nil || saves != nil {
		t.Errorf("missing dir: %v, %v", saves, err)
	}

	rec := Capture(world.New(5), Observer{}, NewCalendar())
	for _, name := range []string{"alpha", "beta"} {
		if err := WriteFile(PathFor(dir, name), rec, false); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(PathFor(dir, "alpha"), old, old); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	saves, err := List(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(saves) != 2 || saves[0].Name != "beta" || saves[1].Name != "alpha" {
		t.Fatalf("Expected beta then alpha, got %+v", saves)
	}
	if saves[0].Size != int64(4+headerSize(Version)) {
		t.Errorf("empty save size = %d", saves[0].Size)
	}

	if err := Delete(saves[1].Path); err != nil {
		t.Fatal(err)
	}
	if err := Delete(saves[1].Path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected ErrNotExist on second delete, got %v", err)
	}
	if saves, _ := List(dir); len(saves) != 1 {
		t.Errorf("Expected one save left, got %d", len(saves))
	}
}

func TestCalendarAdvance(t *testing.T) {
	c := NewCalendar()
	c.Advance(300, DefaultDayLength)
	if c.Day != 1 || math.Abs(float64(c.TimeOfDay-0.75)) > 1e-6 {
		t.Errorf("after half a day: %+v", c)
	}
	c.Advance(300, DefaultDayLength)
	if c.Day != 2 || math.Abs(float64(c.TimeOfDay-0.25)) > 1e-6 {
		t.Errorf("after wrap: %+v", c)
	}
	c.Advance(1200, DefaultDayLength)
	if c.Day != 4 {
		t.Errorf("Expected two more days, got %+v", c)
	}
	before := c
	c.Advance(10, 0)
	if c != before {
		t.Error("zero day length should not advance")
	}
}

func TestCalendarLight(t *testing.T) {
	tests := []struct {
		time  float32
		night bool
		light float32
	}{
		{0.1, true, 0.1},
		{0.5, false, 1.0},
		{0.25, false, 0.65},
		{0.9, true, 0.1},
	}
	for _, tt := range tests {
		c := Calendar{TimeOfDay: tt.time}
		if c.IsNight() != tt.night {
			t.Errorf("IsNight(%v) = %v", tt.time, c.IsNight())
		}
		if l := c.AmbientLight(); math.Abs(float64(l-tt.light)) > 1e-5 {
			t.Errorf("AmbientLight(%v) = %f, want %f", tt.time, l, tt.light)
		}
	}
}

func TestAutoSave(t *testing.T) {
	a := NewAutoSave(0)
	if a.Interval() != DefaultAutoSaveInterval {
		t.Errorf("interval = %v", a.Interval())
	}
	if a.Update(59 * time.Second) {
		t.Error("fired early")
	}
	if !a.Update(time.Second) {
		t.Error("Expected a save after 60s")
	}
	if a.Update(30 * time.Second) {
		t.Error("timer did not restart")
	}

	a.SetEnabled(false)
	if a.Update(time.Hour) || a.Enabled() {
		t.Error("disabled timer fired")
	}
	a.SetEnabled(true)
	a.Reset()
	if a.Update(59 * time.Second) {
		t.Error("Reset did not clear elapsed time")
	}
}
