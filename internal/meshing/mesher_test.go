package meshing

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcraft/internal/world"
)

// stoneGenerator fills every cell up to Top with stone.
type stoneGenerator struct{ Top int }

func (g stoneGenerator) Generate(pos world.ChunkPos) *world.Chunk {
	c := world.NewChunk(pos.X, pos.Z)
	for y := 0; y <= g.Top; y++ {
		c.FillLayer(y, world.BlockTypeStone)
	}
	c.SetClean()
	return c
}

func (stoneGenerator) BiomeAt(int, int) world.Biome { return world.BiomePlains }

func emptyWorld(t testing.TB, chunks ...world.ChunkPos) *world.World {
	t.Helper()
	w := world.New(1, world.WithGenerator(world.EmptyGenerator{}))
	for _, p := range chunks {
		w.Load(p)
	}
	return w
}

func build(t testing.TB, w *world.World, pos world.ChunkPos) ChunkMesh {
	t.Helper()
	m, ok := MeshChunk(w, pos.X, pos.Z)
	if !ok {
		t.Fatalf("chunk %v not loaded", pos)
	}
	return m
}

// countFaces counts quads whose four vertices all satisfy pred.
func countFaces(s VertexStream, pred func(Vertex) bool) int {
	n := 0
	for i := 0; i+3 < len(s.Vertices); i += 4 {
		if pred(s.Vertices[i]) && pred(s.Vertices[i+1]) && pred(s.Vertices[i+2]) && pred(s.Vertices[i+3]) {
			n++
		}
	}
	return n
}

func TestSingleBlockMesh(t *testing.T) {
	w := emptyWorld(t, world.ChunkPos{})
	w.SetBlock(3, 10, 3, world.BlockTypeStone)
	m := build(t, w, world.ChunkPos{})
	if len(m.Opaque.Vertices) != 24 || len(m.Opaque.Indices) != 36 {
		t.Fatalf("single block: got %d vertices, %d indices, want 24, 36",
			len(m.Opaque.Vertices), len(m.Opaque.Indices))
	}
	if len(m.Translucent.Vertices) != 0 {
		t.Errorf("Expected no translucent geometry, got %d vertices", len(m.Translucent.Vertices))
	}
}

func TestTouchingBlocksCullSharedFace(t *testing.T) {
	w := emptyWorld(t, world.ChunkPos{})
	w.SetBlock(3, 10, 3, world.BlockTypeStone)
	w.SetBlock(4, 10, 3, world.BlockTypeDirt)
	m := build(t, w, world.ChunkPos{})
	if got := m.Opaque.Faces(); got != 10 {
		t.Fatalf("two touching blocks: got %d faces, want 10", got)
	}
}

func TestBottomOfWorldIsClosed(t *testing.T) {
	w := emptyWorld(t, world.ChunkPos{})
	w.SetBlock(0, 0, 0, world.BlockTypeBedrock)
	m := build(t, w, world.ChunkPos{})
	if got := m.Opaque.Faces(); got != 5 {
		t.Errorf("block on y=0: got %d faces, want 5", got)
	}
}

func TestMeshSeamBetweenLoadedChunks(t *testing.T) {
	w := world.New(1, world.WithGenerator(stoneGenerator{Top: 63}))
	a, b := world.ChunkPos{X: 0, Z: 0}, world.ChunkPos{X: 1, Z: 0}
	w.Load(a)
	w.Load(b)

	onPlane := func(v Vertex) bool { return v.Pos.X() == 16 }
	ma, mb := build(t, w, a), build(t, w, b)
	if n := countFaces(ma.Opaque, onPlane); n != 0 {
		t.Errorf("chunk A emitted %d faces on the shared plane", n)
	}
	if n := countFaces(mb.Opaque, onPlane); n != 0 {
		t.Errorf("chunk B emitted %d faces on the shared plane", n)
	}
	// The far edges border absent chunks and stay open.
	if n := countFaces(ma.Opaque, func(v Vertex) bool { return v.Pos.X() == 0 }); n != 64*16 {
		t.Errorf("Expected %d faces on the open west edge, got %d", 64*16, n)
	}
}

func TestMeshSeamRebuiltAfterNeighborLoads(t *testing.T) {
	w := world.New(1, world.WithGenerator(stoneGenerator{Top: 63}))
	a := world.ChunkPos{}
	w.Load(a)

	east := func(v Vertex) bool { return v.Pos.X() == 16 && v.Normal == mgl32.Vec3{1, 0, 0} }
	if n := countFaces(build(t, w, a).Opaque, east); n != 64*16 {
		t.Fatalf("Expected seam faces against the absent neighbor, got %d", n)
	}
	if len(w.InvalidMeshes()) != 0 {
		t.Fatal("Expected a valid mesh after MeshChunk")
	}

	w.Load(world.ChunkPos{X: 1})
	invalid := w.InvalidMeshes()
	if len(invalid) != 2 || invalid[0] != a {
		t.Fatalf("Expected the first chunk to need a rebuild, got %v", invalid)
	}
	if n := countFaces(build(t, w, a).Opaque, east); n != 0 {
		t.Errorf("Expected the seam to close after rebuild, got %d faces", n)
	}
}

func TestWaterFaces(t *testing.T) {
	w := emptyWorld(t, world.ChunkPos{})
	w.SetBlock(5, 59, 5, world.BlockTypeStone)
	for y := 60; y <= 62; y++ {
		w.SetBlock(5, y, 5, world.BlockTypeWater)
	}
	m := build(t, w, world.ChunkPos{})

	// One top face and four sides per water cell, plus the bottom face toward
	// the stone; none between water cells.
	if got := m.Translucent.Faces(); got != 14 {
		t.Errorf("water column: got %d faces, want 14", got)
	}
	bottom := func(v Vertex) bool { return v.Normal == mgl32.Vec3{0, -1, 0} }
	if n := countFaces(m.Translucent, bottom); n != 1 {
		t.Errorf("Expected one water bottom face against the stone, got %d", n)
	}
	// Stone shows its top face through the water.
	top := func(v Vertex) bool { return v.Normal == mgl32.Vec3{0, 1, 0} && v.Pos.Y() == 60 }
	if n := countFaces(m.Opaque, top); n != 1 {
		t.Errorf("Expected the stone top under water, got %d", n)
	}

	// Water keeps its side faces against glass and against stone.
	w.SetBlock(6, 61, 5, world.BlockTypeGlass)
	m = build(t, w, world.ChunkPos{})
	if got := m.Translucent.Faces(); got != 14 {
		t.Errorf("water against glass: got %d faces, want 14", got)
	}
	w.SetBlock(4, 61, 5, world.BlockTypeStone)
	m = build(t, w, world.ChunkPos{})
	if got := m.Translucent.Faces(); got != 14 {
		t.Errorf("water against stone: got %d faces, want 14", got)
	}
	west := func(v Vertex) bool {
		return v.Normal == mgl32.Vec3{-1, 0, 0} && v.Pos.Y() >= 61 && v.Pos.Y() <= 62
	}
	if n := countFaces(m.Translucent, west); n != 1 {
		t.Errorf("Expected the water face toward the stone, got %d", n)
	}

	// Stacking water on water adds no shared faces.
	w.SetBlock(5, 63, 5, world.BlockTypeWater)
	m = build(t, w, world.ChunkPos{})
	if got := m.Translucent.Faces(); got != 18 {
		t.Errorf("taller water column: got %d faces, want 18", got)
	}
}

func TestAmbientOcclusion(t *testing.T) {
	w := emptyWorld(t, world.ChunkPos{})
	for x := 0; x < 10; x++ {
		for z := 0; z < 10; z++ {
			w.SetBlock(x, 10, z, world.BlockTypeStone)
		}
	}
	w.SetBlock(5, 11, 5, world.BlockTypeStone)
	m := build(t, w, world.ChunkPos{})

	checked := 0
	for i := 0; i < len(m.Opaque.Vertices); i += 4 {
		quad := m.Opaque.Vertices[i : i+4]
		if quad[0].Normal != (mgl32.Vec3{0, 1, 0}) || quad[0].Pos.Y() != 11 {
			continue
		}
		// Top face of floor cell (4, 10, 5).
		if quad[0].Pos.X() < 4 || quad[0].Pos.X() > 5 || quad[0].Pos.Z() < 5 || quad[0].Pos.Z() > 6 {
			continue
		}
		ok := true
		for _, v := range quad {
			if (v.Pos.X() != 4 && v.Pos.X() != 5) || (v.Pos.Z() != 5 && v.Pos.Z() != 6) {
				ok = false
			}
		}
		if !ok {
			continue
		}
		for _, v := range quad {
			want := float32(1)
			if v.Pos.X() == 5 {
				want = 2.0 / 3
			}
			if math.Abs(float64(v.AO-want)) > 1e-6 {
				t.Errorf("vertex %v: AO %f, want %f", v.Pos, v.AO, want)
			}
		}
		checked++
	}
	if checked != 1 {
		t.Fatalf("Expected to find the floor face next to the block once, found %d", checked)
	}
}

func TestCornerAOSeesDiagonalChunk(t *testing.T) {
	w := emptyWorld(t, world.ChunkPos{}, world.ChunkPos{X: -1, Z: -1})
	w.SetBlock(0, 10, 0, world.BlockTypeStone)
	w.SetBlock(-1, 11, -1, world.BlockTypeStone)
	m := build(t, w, world.ChunkPos{})

	up := func(v Vertex) bool { return v.Normal == mgl32.Vec3{0, 1, 0} }
	found := false
	for i := 0; i+3 < len(m.Opaque.Vertices); i += 4 {
		quad := m.Opaque.Vertices[i : i+4]
		if !up(quad[0]) || quad[0].Pos.Y() != 11 {
			continue
		}
		found = true
		for _, v := range quad {
			want := float32(1)
			if v.Pos.X() == 0 && v.Pos.Z() == 0 {
				want = 2.0 / 3
			}
			if math.Abs(float64(v.AO-want)) > 1e-6 {
				t.Errorf("vertex %v: AO %f, want %f", v.Pos, v.AO, want)
			}
		}
	}
	if !found {
		t.Fatal("top face of the corner block not emitted")
	}

	// Clearing the occluder in the diagonal chunk dirties this mesh.
	w.SetBlock(-1, 11, -1, world.BlockTypeAir)
	if inv := w.InvalidMeshes(); len(inv) != 2 {
		t.Errorf("Expected both meshes invalid after the corner edit, got %v", inv)
	}
}

func TestSkyLight(t *testing.T) {
	w := emptyWorld(t, world.ChunkPos{})
	w.SetBlock(3, 10, 3, world.BlockTypeStone)
	w.SetBlock(3, 15, 3, world.BlockTypeStone)
	w.SetBlock(8, 10, 8, world.BlockTypeStone)
	m := build(t, w, world.ChunkPos{})

	lightOf := func(x, z float32) float32 {
		for _, v := range m.Opaque.Vertices {
			if v.Normal == (mgl32.Vec3{0, 1, 0}) && v.Pos.Y() == 11 && v.Pos.X() == x && v.Pos.Z() == z {
				return v.Light
			}
		}
		t.Fatalf("no top face at (%v, %v)", x, z)
		return 0
	}
	if l := lightOf(3, 3); l != world.SkyLightAmbient {
		t.Errorf("covered face light = %f, want %f", l, world.SkyLightAmbient)
	}
	if l := lightOf(8, 8); l != world.SkyLightFull {
		t.Errorf("open face light = %f, want %f", l, world.SkyLightFull)
	}
}

func TestWindingFacesOutward(t *testing.T) {
	w := world.New(0xCAFEBABE)
	w.UpdateAround(world.ChunkPos{}, 1)
	m := build(t, w, world.ChunkPos{})
	for _, s := range []VertexStream{m.Opaque, m.Translucent} {
		for i := 0; i+2 < len(s.Indices); i += 3 {
			a, b, c := s.Vertices[s.Indices[i]], s.Vertices[s.Indices[i+1]], s.Vertices[s.Indices[i+2]]
			n := b.Pos.Sub(a.Pos).Cross(c.Pos.Sub(a.Pos))
			if n.Dot(a.Normal) <= 0 {
				t.Fatalf("triangle %d winds inward: normal %v, face %v", i/3, n, a.Normal)
			}
		}
	}
}

func TestUVWithinAtlasCell(t *testing.T) {
	w := emptyWorld(t, world.ChunkPos{})
	w.SetBlock(2, 20, 2, world.BlockTypeGrass)
	m := build(t, w, world.ChunkPos{})
	for i := 0; i < len(m.Opaque.Vertices); i += 4 {
		var face world.BlockFace
		for _, f := range world.AllFaces {
			if f.Normal() == m.Opaque.Vertices[i].Normal {
				face = f
			}
		}
		base := world.BlockTypeGrass.UV(face)
		for _, v := range m.Opaque.Vertices[i : i+4] {
			d := v.UV.Sub(base)
			if d.X() < 0 || d.Y() < 0 || d.X() > atlasStep+1e-6 || d.Y() > atlasStep+1e-6 {
				t.Errorf("%v face uv %v outside cell at %v", face, v.UV, base)
			}
		}
	}
}

func TestMeshChunkUnloaded(t *testing.T) {
	w := emptyWorld(t)
	if _, ok := MeshChunk(w, 4, 4); ok {
		t.Error("Expected no mesh for an unloaded chunk")
	}
}

func TestPoolMeshesInvalidChunks(t *testing.T) {
	w := world.New(1, world.WithGenerator(world.NewFlatGenerator(20)))
	if _, err := w.UpdateAround(world.ChunkPos{}, 1); err != nil {
		t.Fatal(err)
	}
	p := NewPool(w, 2, 16)
	defer p.Shutdown()

	if n := p.SubmitInvalid(); n != 9 {
		t.Fatalf("Expected 9 jobs, got %d", n)
	}
	seen := make(map[world.ChunkPos]bool)
	timeout := time.After(10 * time.Second)
	for len(seen) < 9 {
		select {
		case r := <-p.Results():
			if !r.Current {
				t.Errorf("mesh for %v is stale", r.Mesh.Pos)
			}
			if r.Mesh.Empty() {
				t.Errorf("mesh for %v is empty", r.Mesh.Pos)
			}
			seen[r.Mesh.Pos] = true
		case <-timeout:
			t.Fatalf("timed out with %d of 9 meshes", len(seen))
		}
	}
	if inv := w.InvalidMeshes(); len(inv) != 0 {
		t.Errorf("Expected all meshes valid, got %v", inv)
	}
}

func TestPoolShutdownRejectsJobs(t *testing.T) {
	w := emptyWorld(t, world.ChunkPos{})
	p := NewPool(w, 1, 4)
	p.Shutdown()
	if p.SubmitJob(world.ChunkPos{}) {
		t.Error("Expected submit after shutdown to fail")
	}
}

func BenchmarkBuild(b *testing.B) {
	w := world.New(0xCAFEBABE)
	w.UpdateAround(world.ChunkPos{}, 1)
	n, _ := w.Neighborhood(world.ChunkPos{})
	b.ReportAllocs()
	for b.Loop() {
		_ = Build(n)
	}
}
