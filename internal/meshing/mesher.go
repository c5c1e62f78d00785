package meshing

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcraft/internal/profiling"
	"voxelcraft/internal/world"
)

// Vertex is one corner of a block face.
type Vertex struct {
	Pos    mgl32.Vec3
	Normal mgl32.Vec3
	UV     mgl32.Vec2
	// AO is 1 for an unoccluded corner down to 0 for a fully enclosed one.
	AO    float32
	Light float32
}

// VertexStream is an indexed triangle list.
type VertexStream struct {
	Vertices []Vertex
	Indices  []uint32
}

// Faces returns the number of quads in the stream.
func (s *VertexStream) Faces() int { return len(s.Indices) / 6 }

// ChunkMesh holds the two render passes of one chunk.
type ChunkMesh struct {
	Pos world.ChunkPos
	// Revision of the chunk the mesh was built from.
	Revision    uint64
	Opaque      VertexStream
	Translucent VertexStream
}

// Empty reports whether the mesh has no faces.
func (m *ChunkMesh) Empty() bool {
	return len(m.Opaque.Indices) == 0 && len(m.Translucent.Indices) == 0
}

// corners lists the face corners as unit cube offsets, wound counter-clockwise
// when seen from outside.
var corners = [6][4][3]int{
	world.FaceNorth:  {{0, 0, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0}},
	world.FaceSouth:  {{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	world.FaceEast:   {{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}},
	world.FaceWest:   {{0, 0, 0}, {0, 0, 1}, {0, 1, 1}, {0, 1, 0}},
	world.FaceTop:    {{0, 1, 0}, {0, 1, 1}, {1, 1, 1}, {1, 1, 0}},
	world.FaceBottom: {{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}},
}

const atlasStep = 1.0 / world.AtlasCells

// cornerUV maps a corner to its offset inside the atlas cell. Side faces keep
// the texture upright.
func cornerUV(face world.BlockFace, c [3]int) mgl32.Vec2 {
	switch face {
	case world.FaceTop, world.FaceBottom:
		return mgl32.Vec2{float32(c[0]) * atlasStep, float32(c[2]) * atlasStep}
	case world.FaceEast, world.FaceWest:
		return mgl32.Vec2{float32(c[2]) * atlasStep, float32(1-c[1]) * atlasStep}
	default:
		return mgl32.Vec2{float32(c[0]) * atlasStep, float32(1-c[1]) * atlasStep}
	}
}

// visible decides whether a face of self toward neighbor is drawn. Water
// shows against every non-water cell, solid or not, and never between two
// water cells. Opaque faces toward water face the other way and are culled
// as back faces, so the pair does not z-fight.
func visible(self, neighbor world.BlockType) bool {
	if self == world.BlockTypeWater {
		return neighbor != world.BlockTypeWater
	}
	return !neighbor.IsSolid()
}

// Build meshes the center chunk of n. Cells in absent neighbors read as air,
// so the result shows a seam until the neighbor loads and the world
// invalidates this mesh.
func Build(n world.Neighborhood) ChunkMesh {
	defer profiling.Track("meshing.Build")()

	mesh := ChunkMesh{Pos: n.Center.Pos, Revision: n.Revision}
	s := newSampler(n)
	ox, oz := n.Center.Pos.Origin()

	for y := 0; y < world.ChunkHeight; y++ {
		for z := 0; z < world.ChunkWidth; z++ {
			for x := 0; x < world.ChunkWidth; x++ {
				b := n.Center.Get(x, y, z)
				if b == world.BlockTypeAir {
					continue
				}
				out := &mesh.Opaque
				if b == world.BlockTypeWater {
					out = &mesh.Translucent
				}
				for _, face := range world.AllFaces {
					dx, dy, dz := face.Offset()
					if !visible(b, s.block(x+dx, y+dy, z+dz)) {
						continue
					}
					emitFace(out, s, b, face, x, y, z, ox, oz)
				}
			}
		}
	}
	return mesh
}

func emitFace(out *VertexStream, s *sampler, b world.BlockType, face world.BlockFace, x, y, z, ox, oz int) {
	dx, dy, dz := face.Offset()
	fx, fy, fz := x+dx, y+dy, z+dz
	light := s.skyLight(fx, fy, fz)
	normal := face.Normal()
	base := b.UV(face)

	var ao [4]int
	first := uint32(len(out.Vertices))
	for i, c := range corners[face] {
		ao[i] = s.cornerAO(face, fx, fy, fz, c)
		out.Vertices = append(out.Vertices, Vertex{
			Pos:    mgl32.Vec3{float32(ox + x + c[0]), float32(y + c[1]), float32(oz + z + c[2])},
			Normal: normal,
			UV:     base.Add(cornerUV(face, c)),
			AO:     float32(ao[i]) / 3,
			Light:  light,
		})
	}
	out.Indices = append(out.Indices, quadIndices(first, ao)...)
}

// MeshChunk builds the mesh of chunk (cx, cz) from the live world and marks it
// valid. ok is false when the chunk is not loaded.
func MeshChunk(w *world.World, cx, cz int) (mesh ChunkMesh, ok bool) {
	pos := world.ChunkPos{X: cx, Z: cz}
	n, ok := w.Neighborhood(pos)
	if !ok {
		return ChunkMesh{}, false
	}
	mesh = Build(n)
	w.MarkMeshValid(pos, mesh.Revision)
	return mesh, true
}
