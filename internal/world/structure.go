package world

// StructureKind names a man-made feature stamped by the generator.
type StructureKind uint8

const (
	StructureHouse StructureKind = iota
	StructureWell
	StructureMineshaft
	StructureDungeon
)

func (k StructureKind) String() string {
	return [...]string{"house", "well", "mineshaft", "dungeon"}[k]
}

const (
	// One candidate per structureRegion x structureRegion cell. Anchors keep
	// structureMargin from the cell edge, so two structures are at least
	// 2*structureMargin apart.
	structureRegion = 64
	structureMargin = 8
	structureChance = 0.5

	// structureExtent bounds every footprint along x and z.
	structureExtent = 12
)

// Structure is a placed structure anchored at its minimum x/z corner.
type Structure struct {
	Kind   StructureKind
	X, Z   int
	Ground int
}

// structureIn returns the candidate of region (rx, rz), if it qualifies.
func (g *Generator) structureIn(rx, rz int) (Structure, bool) {
	h := g.hash2(int64(rx), int64(rz), g.hashSeed(saltStructure))
	if unit(h) >= structureChance {
		return Structure{}, false
	}
	span := uint64(structureRegion - 2*structureMargin)
	x := rx*structureRegion + structureMargin + int((h>>32)%span)
	z := rz*structureRegion + structureMargin + int((h>>44)%span)
	col := g.column(x, z)
	if !col.biome.AllowsStructures() || col.height < col.props.WaterLevel {
		return Structure{}, false
	}
	return Structure{Kind: StructureKind((h >> 58) % 4), X: x, Z: z, Ground: col.height}, true
}

// StructuresNear lists the structures whose anchor lies in a region touching
// the chunk, in placement order.
func (g *Generator) StructuresNear(pos ChunkPos) []Structure {
	ox, oz := pos.Origin()
	var out []Structure
	for rx := floorDiv(ox-structureExtent, structureRegion); rx <= floorDiv(ox+ChunkWidth, structureRegion); rx++ {
		for rz := floorDiv(oz-structureExtent, structureRegion); rz <= floorDiv(oz+ChunkWidth, structureRegion); rz++ {
			if st, ok := g.structureIn(rx, rz); ok {
				out = append(out, st)
			}
		}
	}
	return out
}

func (g *Generator) placeStructures(s *stamper) {
	for _, st := range g.StructuresNear(s.c.Pos) {
		if !s.reaches(st.X, st.Z, st.X+structureExtent, st.Z+structureExtent) {
			continue
		}
		switch st.Kind {
		case StructureHouse:
			stampHouse(s, st)
		case StructureWell:
			stampWell(s, st)
		case StructureMineshaft:
			stampMineshaft(s, st)
		case StructureDungeon:
			g.stampDungeon(s, st)
		}
	}
}

// stampHouse builds a 7x7 plank house with glass windows, a door gap on the
// north wall, a brick roof and a torch inside.
func stampHouse(s *stamper, st Structure) {
	x0, z0, y := st.X, st.Z, st.Ground
	x1, z1 := x0+6, z0+6

	s.box(x0, y-3, z0, x1, y-1, z1, BlockTypeCobblestone)
	s.box(x0, y, z0, x1, y, z1, BlockTypePlanks)
	s.box(x0, y+1, z0, x1, y+3, z1, BlockTypePlanks)
	s.box(x0+1, y+1, z0+1, x1-1, y+3, z1-1, BlockTypeAir)
	s.box(x0, y+4, z0, x1, y+4, z1, BlockTypeBrick)

	// windows
	s.set(x0, y+2, z0+3, BlockTypeGlass)
	s.set(x1, y+2, z0+3, BlockTypeGlass)
	s.set(x0+3, y+2, z1, BlockTypeGlass)

	// door
	s.set(x0+3, y+1, z0, BlockTypeAir)
	s.set(x0+3, y+2, z0, BlockTypeAir)

	s.set(x0+1, y+1, z0+1, BlockTypeTorch)
	s.set(x1-1, y+1, z1-1, BlockTypeCraftingTable)
}

// stampWell builds a 5x5 cobblestone well with a water basin and plank roof.
func stampWell(s *stamper, st Structure) {
	x0, z0, y := st.X, st.Z, st.Ground
	x1, z1 := x0+4, z0+4

	s.box(x0, y-4, z0, x1, y+1, z1, BlockTypeCobblestone)
	s.box(x0+1, y-3, z0+1, x1-1, y-1, z1-1, BlockTypeWater)
	s.box(x0+1, y, z0+1, x1-1, y+1, z1-1, BlockTypeAir)
	for _, c := range [4][2]int{{x0, z0}, {x1, z0}, {x0, z1}, {x1, z1}} {
		s.box(c[0], y+2, c[1], c[0], y+3, c[1], BlockTypeWood)
	}
	s.box(x0, y+4, z0, x1, y+4, z1, BlockTypePlanks)
}

const mineshaftSteps = 10

// stampMineshaft cuts a 3-wide staircase descending toward +z, with plank
// treads, beams every third step and a torch at the bottom.
func stampMineshaft(s *stamper, st Structure) {
	x0, z0 := st.X, st.Z
	for i := range mineshaftSteps {
		z := z0 + i
		floor := st.Ground - i
		s.box(x0, floor-1, z, x0+2, floor-1, z, BlockTypePlanks)
		s.box(x0, floor, z, x0+2, floor+2, z, BlockTypeAir)
		if i%3 == 2 {
			s.box(x0, floor+3, z, x0+2, floor+3, z, BlockTypeWood)
		}
	}
	s.set(x0+1, st.Ground-mineshaftSteps+1, z0+mineshaftSteps-1, BlockTypeTorch)
}

// stampDungeon hollows a 7x7 cobblestone room below the surface with a chest
// in the middle and torches in two corners.
func (g *Generator) stampDungeon(s *stamper, st Structure) {
	x0, z0 := st.X, st.Z
	x1, z1 := x0+6, z0+6
	base := max(st.Ground-20, 6)

	s.box(x0, base, z0, x1, base+4, z1, BlockTypeCobblestone)
	s.box(x0+1, base+1, z0+1, x1-1, base+3, z1-1, BlockTypeAir)
	seed := g.hashSeed(saltStructure)
	for x := x0; x <= x1; x++ {
		for z := z0; z <= z1; z++ {
			if hash3(int64(x), int64(base), int64(z), seed)&3 == 0 {
				s.set(x, base, z, BlockTypeGravel)
			}
		}
	}
	s.set(x0+3, base+1, z0+3, BlockTypeChest)
	s.set(x0+1, base+1, z0+1, BlockTypeTorch)
	s.set(x1-1, base+1, z1-1, BlockTypeTorch)
}
