package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BlockType is a block kind. The numeric value is the on-disk ordinal.
type BlockType uint8

const (
	BlockTypeAir BlockType = iota
	BlockTypeStone
	BlockTypeDirt
	BlockTypeGrass
	BlockTypeSand
	BlockTypeWater
	BlockTypeWood
	BlockTypeLeaves
	BlockTypeCoal
	BlockTypeIron
	BlockTypeGold
	BlockTypeDiamond
	BlockTypeCobblestone
	BlockTypePlanks
	BlockTypeGlass
	BlockTypeBrick
	BlockTypeGravel
	BlockTypeSnow
	BlockTypeIce
	BlockTypeCactus
	BlockTypeClay
	BlockTypeSandstone
	BlockTypeBedrock
	BlockTypeObsidian
	BlockTypeTorch
	BlockTypeCraftingTable
	BlockTypeFurnace
	BlockTypeChest

	blockTypeCount
)

// BlockTypeCount is the number of defined block kinds.
const BlockTypeCount = int(blockTypeCount)

// Valid reports whether b is a defined block kind.
func (b BlockType) Valid() bool { return b < blockTypeCount }

// BlockFace identifies a face of a block.
type BlockFace int

const (
	FaceNorth  BlockFace = iota // -Z
	FaceSouth                   // +Z
	FaceEast                    // +X
	FaceWest                    // -X
	FaceTop                     // +Y
	FaceBottom                  // -Y
)

// AllFaces lists every face in mesher order.
var AllFaces = [6]BlockFace{FaceNorth, FaceSouth, FaceEast, FaceWest, FaceTop, FaceBottom}

var faceNormals = [6][3]int{
	FaceNorth:  {0, 0, -1},
	FaceSouth:  {0, 0, 1},
	FaceEast:   {1, 0, 0},
	FaceWest:   {-1, 0, 0},
	FaceTop:    {0, 1, 0},
	FaceBottom: {0, -1, 0},
}

// Offset returns the integer step to the neighboring cell across the face.
func (f BlockFace) Offset() (dx, dy, dz int) {
	n := faceNormals[f]
	return n[0], n[1], n[2]
}

// Normal returns the outward unit normal of the face.
func (f BlockFace) Normal() mgl32.Vec3 {
	n := faceNormals[f]
	return mgl32.Vec3{float32(n[0]), float32(n[1]), float32(n[2])}
}

func (f BlockFace) String() string {
	switch f {
	case FaceNorth:
		return "north"
	case FaceSouth:
		return "south"
	case FaceEast:
		return "east"
	case FaceWest:
		return "west"
	case FaceTop:
		return "top"
	case FaceBottom:
		return "bottom"
	}
	return "unknown"
}

// ToolType is the tool that breaks a block fastest.
type ToolType uint8

const (
	ToolNone ToolType = iota
	ToolPickaxe
	ToolAxe
	ToolShovel
	ToolSword
	ToolHoe
)

func (t ToolType) String() string {
	return [...]string{"none", "pickaxe", "axe", "shovel", "sword", "hoe"}[t]
}

// AtlasCells is the number of cells along each side of the texture atlas.
const AtlasCells = 16

// atlasCell is a (column, row) position on the atlas grid.
type atlasCell [2]uint8

// faceCells picks an atlas cell per face; directional blocks differ per face.
type faceCells struct {
	top, bottom, north, south, east, west atlasCell
}

func uniform(u, v uint8) faceCells {
	c := atlasCell{u, v}
	return faceCells{c, c, c, c, c, c}
}

func topBottomSide(top, bottom, side atlasCell) faceCells {
	return faceCells{top: top, bottom: bottom, north: side, south: side, east: side, west: side}
}

// BlockDefinition holds the static properties of a block kind.
type BlockDefinition struct {
	Name         string
	Solid        bool
	Transparent  bool
	Liquid       bool
	LightLevel   uint8
	Hardness     float32
	Tool         ToolType
	Drop         BlockType
	DropsNothing bool
	cells        faceCells
}

// definitions is indexed by BlockType and never mutated after init.
var definitions = [blockTypeCount]BlockDefinition{
	BlockTypeAir:           {Name: "Air", Transparent: true, DropsNothing: true, cells: uniform(0, 0)},
	BlockTypeStone:         {Name: "Stone", Solid: true, Hardness: 3, Tool: ToolPickaxe, Drop: BlockTypeCobblestone, cells: uniform(1, 0)},
	BlockTypeDirt:          {Name: "Dirt", Solid: true, Hardness: 0.5, Tool: ToolShovel, cells: uniform(2, 0)},
	BlockTypeGrass:         {Name: "Grass", Solid: true, Hardness: 0.6, Tool: ToolShovel, Drop: BlockTypeDirt, cells: topBottomSide(atlasCell{0, 0}, atlasCell{2, 0}, atlasCell{3, 0})},
	BlockTypeSand:          {Name: "Sand", Solid: true, Hardness: 0.5, Tool: ToolShovel, cells: uniform(2, 1)},
	BlockTypeWater:         {Name: "Water", Transparent: true, Liquid: true, DropsNothing: true, cells: uniform(13, 12)},
	BlockTypeWood:          {Name: "Wood", Solid: true, Hardness: 2, Tool: ToolAxe, cells: topBottomSide(atlasCell{5, 1}, atlasCell{5, 1}, atlasCell{4, 1})},
	BlockTypeLeaves:        {Name: "Leaves", Solid: true, Transparent: true, Hardness: 0.2, Tool: ToolAxe, DropsNothing: true, cells: uniform(4, 3)},
	BlockTypeCoal:          {Name: "Coal Ore", Solid: true, Hardness: 4, Tool: ToolPickaxe, cells: uniform(2, 2)},
	BlockTypeIron:          {Name: "Iron Ore", Solid: true, Hardness: 4, Tool: ToolPickaxe, cells: uniform(1, 2)},
	BlockTypeGold:          {Name: "Gold Ore", Solid: true, Hardness: 5, Tool: ToolPickaxe, cells: uniform(0, 2)},
	BlockTypeDiamond:       {Name: "Diamond Ore", Solid: true, Hardness: 5, Tool: ToolPickaxe, cells: uniform(2, 3)},
	BlockTypeCobblestone:   {Name: "Cobblestone", Solid: true, Hardness: 3, Tool: ToolPickaxe, cells: uniform(0, 1)},
	BlockTypePlanks:        {Name: "Planks", Solid: true, Hardness: 2, Tool: ToolAxe, cells: uniform(4, 0)},
	BlockTypeGlass:         {Name: "Glass", Solid: true, Transparent: true, Hardness: 1, DropsNothing: true, cells: uniform(1, 3)},
	BlockTypeBrick:         {Name: "Brick", Solid: true, Hardness: 1, Tool: ToolPickaxe, cells: uniform(7, 0)},
	BlockTypeGravel:        {Name: "Gravel", Solid: true, Hardness: 0.5, Tool: ToolShovel, cells: uniform(3, 1)},
	BlockTypeSnow:          {Name: "Snow", Solid: true, Hardness: 1, Tool: ToolShovel, cells: uniform(2, 4)},
	BlockTypeIce:           {Name: "Ice", Solid: true, Transparent: true, Hardness: 1, cells: uniform(3, 4)},
	BlockTypeCactus:        {Name: "Cactus", Solid: true, Hardness: 1, cells: topBottomSide(atlasCell{5, 4}, atlasCell{5, 4}, atlasCell{6, 4})},
	BlockTypeClay:          {Name: "Clay", Solid: true, Hardness: 0.5, Tool: ToolShovel, cells: uniform(8, 4)},
	BlockTypeSandstone:     {Name: "Sandstone", Solid: true, Hardness: 3, Tool: ToolPickaxe, cells: topBottomSide(atlasCell{0, 11}, atlasCell{0, 13}, atlasCell{0, 12})},
	BlockTypeBedrock:       {Name: "Bedrock", Solid: true, Hardness: float32(math.Inf(1)), DropsNothing: true, cells: uniform(1, 1)},
	BlockTypeObsidian:      {Name: "Obsidian", Solid: true, Hardness: 50, Tool: ToolPickaxe, cells: uniform(5, 2)},
	BlockTypeTorch:         {Name: "Torch", LightLevel: 14, Hardness: 1, cells: uniform(0, 5)},
	BlockTypeCraftingTable: {Name: "Crafting Table", Solid: true, Hardness: 1, Tool: ToolAxe, cells: faceCells{top: atlasCell{11, 2}, bottom: atlasCell{12, 3}, south: atlasCell{11, 3}, east: atlasCell{11, 3}, north: atlasCell{12, 3}, west: atlasCell{12, 3}}},
	BlockTypeFurnace:       {Name: "Furnace", Solid: true, Hardness: 1, Tool: ToolPickaxe, cells: faceCells{top: atlasCell{14, 3}, bottom: atlasCell{14, 3}, south: atlasCell{12, 2}, north: atlasCell{13, 2}, east: atlasCell{13, 2}, west: atlasCell{13, 2}}},
	BlockTypeChest:         {Name: "Chest", Solid: true, Hardness: 1, Tool: ToolAxe, cells: uniform(9, 1)},
}

func init() {
	// Kinds that are not marked otherwise drop themselves.
	for i := range definitions {
		d := &definitions[i]
		if !d.DropsNothing && d.Drop == BlockTypeAir {
			d.Drop = BlockType(i)
		}
	}
}

// Definition returns the static properties of b. Unknown kinds read as Air.
func (b BlockType) Definition() BlockDefinition {
	if !b.Valid() {
		return definitions[BlockTypeAir]
	}
	return definitions[b]
}

func (b BlockType) String() string {
	if !b.Valid() {
		return "Unknown"
	}
	return definitions[b].Name
}

// IsSolid is false only for Air, Water and Torch.
func (b BlockType) IsSolid() bool { return b.Valid() && definitions[b].Solid }

// IsTransparent reports whether light and sight pass through the block.
func (b BlockType) IsTransparent() bool { return !b.Valid() || definitions[b].Transparent }

// IsLiquid is true only for Water.
func (b BlockType) IsLiquid() bool { return b.Valid() && definitions[b].Liquid }

// IsLightSource reports whether the block emits light.
func (b BlockType) IsLightSource() bool { return b.LightLevel() > 0 }

// LightLevel is the emitted light in [0,15].
func (b BlockType) LightLevel() uint8 {
	if !b.Valid() {
		return 0
	}
	return definitions[b].LightLevel
}

// Hardness returns the break resistance; Bedrock is +Inf.
func (b BlockType) Hardness() float32 {
	if !b.Valid() {
		return 0
	}
	return definitions[b].Hardness
}

// Unbreakable reports an infinite hardness.
func (b BlockType) Unbreakable() bool { return math.IsInf(float64(b.Hardness()), 1) }

// PreferredTool returns the tool affinity of the block.
func (b BlockType) PreferredTool() ToolType {
	if !b.Valid() {
		return ToolNone
	}
	return definitions[b].Tool
}

// Drop returns the kind dropped when the block is broken, if any.
func (b BlockType) Drop() (BlockType, bool) {
	if !b.Valid() || definitions[b].DropsNothing {
		return BlockTypeAir, false
	}
	return definitions[b].Drop, true
}

// AtlasCell returns the integer atlas grid cell for a face.
func (b BlockType) AtlasCell(face BlockFace) (u, v int) {
	d := b.Definition()
	var c atlasCell
	switch face {
	case FaceTop:
		c = d.cells.top
	case FaceBottom:
		c = d.cells.bottom
	case FaceNorth:
		c = d.cells.north
	case FaceSouth:
		c = d.cells.south
	case FaceEast:
		c = d.cells.east
	default:
		c = d.cells.west
	}
	return int(c[0]), int(c[1])
}

// UV returns the atlas origin for a face in [0,1)².
func (b BlockType) UV(face BlockFace) mgl32.Vec2 {
	u, v := b.AtlasCell(face)
	return mgl32.Vec2{float32(u) / AtlasCells, float32(v) / AtlasCells}
}
