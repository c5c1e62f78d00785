package world

// TerrainGenerator produces chunk contents as a pure function of position.
// Implementations must be safe for concurrent use.
type TerrainGenerator interface {
	Generate(pos ChunkPos) *Chunk
	BiomeAt(worldX, worldZ int) Biome
}

// GeneratorOptions are the per-world generation switches persisted with saves.
type GeneratorOptions struct {
	Noise NoiseKind
	Caves bool
	// LegacyLattice selects the 2-D hash of worlds saved before format
	// version 3, so chunks generated next to their saved ones still line up.
	LegacyLattice bool
}

// Salts separate the hash streams of independent decisions.
const (
	saltOre       = 0x4f5245
	saltTree      = 0x54524545
	saltCactus    = 0x43414354
	saltStructure = 0x53545255
)

// Noise frequencies.
const (
	biomeScale    = 0.005
	altitudeScale = 0.01
	caveScale     = 0.05
	caveThreshold = 0.6
	caveMinY      = 5
	caveMaxY      = 60
)

// Generator is the seeded biome terrain generator.
type Generator struct {
	seed uint64
	opts GeneratorOptions

	hash2 latticeHash

	heightNoise noiseField
	biomeNoise  noiseField
	caveNoise   noiseField
}

// NewGenerator creates a generator. All noise fields derive from seed.
func NewGenerator(seed uint64, opts GeneratorOptions) *Generator {
	s := int64(seed)
	h := latticeHash(hash2)
	if opts.LegacyLattice {
		h = hash2Legacy
	}
	return &Generator{
		seed:        seed,
		opts:        opts,
		hash2:       h,
		heightNoise: newNoiseField(opts.Noise, s, h),
		biomeNoise:  newNoiseField(opts.Noise, s+1, h),
		caveNoise:   newNoiseField(opts.Noise, s+2, h),
	}
}

// Seed returns the world seed.
func (g *Generator) Seed() uint64 { return g.seed }

// Options returns the generation switches.
func (g *Generator) Options() GeneratorOptions { return g.opts }

func (g *Generator) hashSeed(salt int64) int64 { return int64(g.seed) ^ salt }

// BiomeAt classifies the world column (x, z).
func (g *Generator) BiomeAt(worldX, worldZ int) Biome {
	x, z := float64(worldX), float64(worldZ)
	temperature := g.biomeNoise.Eval2(x*biomeScale, z*biomeScale)
	humidity := g.biomeNoise.Eval2(x*biomeScale+1000, z*biomeScale+1000)
	altitude := g.heightNoise.Eval2(x*altitudeScale, z*altitudeScale)
	return selectBiome(temperature, humidity, altitude)
}

// SurfaceHeight returns the generated surface y of column (x, z).
func (g *Generator) SurfaceHeight(worldX, worldZ int) int {
	return g.column(worldX, worldZ).height
}

type column struct {
	biome  Biome
	props  BiomeProperties
	height int
}

func (g *Generator) column(worldX, worldZ int) column {
	b := g.BiomeAt(worldX, worldZ)
	p := b.Properties()
	x, z := float64(worldX), float64(worldZ)
	v := p.HeightVariation
	h := float64(p.BaseHeight) +
		g.heightNoise.Eval2(x*0.01, z*0.01)*v +
		g.heightNoise.Eval2(x*0.05, z*0.05)*v*0.5 +
		g.heightNoise.Eval2(x*0.1, z*0.1)*v*0.25
	height := min(max(int(h), 1), ChunkHeight-10)
	return column{biome: b, props: p, height: height}
}

// Generate builds the chunk at pos. The result depends only on the seed,
// the options and pos.
func (g *Generator) Generate(pos ChunkPos) *Chunk {
	c := NewChunk(pos.X, pos.Z)
	ox, oz := pos.Origin()

	var cols [ChunkWidth][ChunkWidth]column
	for lz := range ChunkWidth {
		for lx := range ChunkWidth {
			col := g.column(ox+lx, oz+lz)
			cols[lx][lz] = col
			g.fillColumn(c, lx, lz, col)
		}
	}

	c.FillLayer(0, BlockTypeBedrock)
	g.seedOres(c, &cols)
	if g.opts.Caves {
		g.carveCaves(c, &cols)
	}
	g.plantCacti(c, &cols)

	s := newStamper(c)
	g.plantTrees(s)
	g.placeStructures(s)

	c.SetClean()
	return c
}

func (g *Generator) fillColumn(c *Chunk, lx, lz int, col column) {
	h := col.height
	c.FillColumn(lx, lz, 1, h-4, BlockTypeStone)
	c.FillColumn(lx, lz, max(h-4, 1), h, col.props.Subsurface)
	surface := col.props.Surface
	if h < col.props.WaterLevel {
		surface = BlockTypeSand
	}
	c.Set(lx, h, lz, surface)
	c.FillColumn(lx, lz, h+1, col.props.WaterLevel+1, BlockTypeWater)
}

type oreBand struct {
	kind BlockType
	maxY int
	p    float64
}

// oreBands partition [0,1); rarer ores sit deeper.
var oreBands = []oreBand{
	{BlockTypeDiamond, 16, 0.001},
	{BlockTypeGold, 28, 0.0025},
	{BlockTypeIron, 40, 0.008},
	{BlockTypeCoal, 48, 0.012},
}

func (g *Generator) seedOres(c *Chunk, cols *[ChunkWidth][ChunkWidth]column) {
	ox, oz := c.Pos.Origin()
	seed := g.hashSeed(saltOre)
	for lz := range ChunkWidth {
		for lx := range ChunkWidth {
			top := min(cols[lx][lz].height-4, 48)
			for y := 1; y < top; y++ {
				if c.Get(lx, y, lz) != BlockTypeStone {
					continue
				}
				r := unit(hash3(int64(ox+lx), int64(y), int64(oz+lz), seed))
				lo := 0.0
				for _, band := range oreBands {
					if r >= lo && r < lo+band.p {
						if y < band.maxY {
							c.Set(lx, y, lz, band.kind)
						}
						break
					}
					lo += band.p
				}
			}
		}
	}
}

func carvable(b BlockType) bool {
	switch b {
	case BlockTypeStone, BlockTypeDirt, BlockTypeSandstone, BlockTypeGravel,
		BlockTypeCoal, BlockTypeIron, BlockTypeGold, BlockTypeDiamond:
		return true
	}
	return false
}

func (g *Generator) carveCaves(c *Chunk, cols *[ChunkWidth][ChunkWidth]column) {
	ox, oz := c.Pos.Origin()
	for lz := range ChunkWidth {
		for lx := range ChunkWidth {
			top := min(cols[lx][lz].height-6, caveMaxY)
			for y := caveMinY; y <= top; y++ {
				if !carvable(c.Get(lx, y, lz)) {
					continue
				}
				n := g.caveNoise.Eval3(float64(ox+lx)*caveScale, float64(y)*caveScale, float64(oz+lz)*caveScale)
				if n > caveThreshold {
					c.Set(lx, y, lz, BlockTypeAir)
				}
			}
		}
	}
}

// plantCacti grows 1-3 tall cacti on dry desert sand. Cacti never leave their column.
func (g *Generator) plantCacti(c *Chunk, cols *[ChunkWidth][ChunkWidth]column) {
	ox, oz := c.Pos.Origin()
	seed := g.hashSeed(saltCactus)
	for lz := range ChunkWidth {
		for lx := range ChunkWidth {
			col := cols[lx][lz]
			if col.biome != BiomeDesert || col.height < col.props.WaterLevel {
				continue
			}
			h := g.hash2(int64(ox+lx), int64(oz+lz), seed)
			if unit(h) >= 0.005 {
				continue
			}
			tall := 1 + int((h>>40)%3)
			c.FillColumn(lx, lz, col.height+1, col.height+1+tall, BlockTypeCactus)
		}
	}
}

// FlatGenerator fills every column to a fixed height: bedrock, dirt, then grass.
type FlatGenerator struct {
	Height int
}

// NewFlatGenerator creates a flat generator with the grass layer at height.
func NewFlatGenerator(height int) *FlatGenerator {
	return &FlatGenerator{Height: min(max(height, 0), ChunkHeight-1)}
}

func (g *FlatGenerator) Generate(pos ChunkPos) *Chunk {
	c := NewChunk(pos.X, pos.Z)
	for y := 1; y < g.Height; y++ {
		c.FillLayer(y, BlockTypeDirt)
	}
	if g.Height > 0 {
		c.FillLayer(g.Height, BlockTypeGrass)
	}
	c.FillLayer(0, BlockTypeBedrock)
	c.SetClean()
	return c
}

func (g *FlatGenerator) BiomeAt(int, int) Biome { return BiomePlains }

// EmptyGenerator produces all-air chunks. Useful for editors and tests.
type EmptyGenerator struct{}

func (EmptyGenerator) Generate(pos ChunkPos) *Chunk { return NewChunk(pos.X, pos.Z) }

func (EmptyGenerator) BiomeAt(int, int) Biome { return BiomePlains }
