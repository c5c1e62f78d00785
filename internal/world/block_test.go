package world

import (
	"math"
	"testing"
)

func TestBlockTypeOrdinalsAreStable(t *testing.T) {
	// Ordinals are written to disk; reordering breaks saves.
	cases := map[BlockType]uint8{
		BlockTypeAir:     0,
		BlockTypeStone:   1,
		BlockTypeWater:   5,
		BlockTypeDiamond: 11,
		BlockTypeBedrock: 22,
		BlockTypeTorch:   24,
		BlockTypeChest:   27,
	}
	for b, want := range cases {
		if uint8(b) != want {
			t.Errorf("%v has ordinal %d, want %d", b, uint8(b), want)
		}
	}
	if BlockTypeCount != 28 {
		t.Errorf("Expected 28 block kinds, got %d", BlockTypeCount)
	}
	if BlockType(28).Valid() {
		t.Error("ordinal 28 should be invalid")
	}
}

func TestSolidity(t *testing.T) {
	for i := range BlockTypeCount {
		b := BlockType(i)
		want := b != BlockTypeAir && b != BlockTypeWater && b != BlockTypeTorch
		if b.IsSolid() != want {
			t.Errorf("%v.IsSolid() = %v, want %v", b, b.IsSolid(), want)
		}
	}
}

func TestTransparency(t *testing.T) {
	transparent := map[BlockType]bool{
		BlockTypeAir: true, BlockTypeWater: true, BlockTypeGlass: true,
		BlockTypeLeaves: true, BlockTypeIce: true,
	}
	for i := range BlockTypeCount {
		b := BlockType(i)
		if b.IsTransparent() != transparent[b] {
			t.Errorf("%v.IsTransparent() = %v", b, b.IsTransparent())
		}
		if b.IsLiquid() != (b == BlockTypeWater) {
			t.Errorf("%v.IsLiquid() = %v", b, b.IsLiquid())
		}
	}
}

func TestHardnessAndTools(t *testing.T) {
	if !math.IsInf(float64(BlockTypeBedrock.Hardness()), 1) || !BlockTypeBedrock.Unbreakable() {
		t.Errorf("Bedrock hardness = %v, want +Inf", BlockTypeBedrock.Hardness())
	}
	if BlockTypeStone.Unbreakable() {
		t.Error("Stone should be breakable")
	}
	tests := []struct {
		b        BlockType
		hardness float32
		tool     ToolType
	}{
		{BlockTypeStone, 3, ToolPickaxe},
		{BlockTypeDiamond, 5, ToolPickaxe},
		{BlockTypeObsidian, 50, ToolPickaxe},
		{BlockTypeDirt, 0.5, ToolShovel},
		{BlockTypeGrass, 0.6, ToolShovel},
		{BlockTypeWood, 2, ToolAxe},
		{BlockTypeLeaves, 0.2, ToolAxe},
		{BlockTypeWater, 0, ToolNone},
		{BlockTypeGlass, 1, ToolNone},
	}
	for _, tt := range tests {
		if got := tt.b.Hardness(); got != tt.hardness {
			t.Errorf("%v.Hardness() = %v, want %v", tt.b, got, tt.hardness)
		}
		if got := tt.b.PreferredTool(); got != tt.tool {
			t.Errorf("%v.PreferredTool() = %v, want %v", tt.b, got, tt.tool)
		}
	}
}

func TestDrops(t *testing.T) {
	tests := []struct {
		b    BlockType
		drop BlockType
		ok   bool
	}{
		{BlockTypeStone, BlockTypeCobblestone, true},
		{BlockTypeGrass, BlockTypeDirt, true},
		{BlockTypeLeaves, BlockTypeAir, false},
		{BlockTypeGlass, BlockTypeAir, false},
		{BlockTypeBedrock, BlockTypeAir, false},
		{BlockTypeAir, BlockTypeAir, false},
		{BlockTypeWater, BlockTypeAir, false},
		{BlockTypeDirt, BlockTypeDirt, true},
		{BlockTypeChest, BlockTypeChest, true},
		{BlockTypeDiamond, BlockTypeDiamond, true},
	}
	for _, tt := range tests {
		drop, ok := tt.b.Drop()
		if drop != tt.drop || ok != tt.ok {
			t.Errorf("%v.Drop() = (%v, %v), want (%v, %v)", tt.b, drop, ok, tt.drop, tt.ok)
		}
	}
}

func TestLightSources(t *testing.T) {
	if !BlockTypeTorch.IsLightSource() || BlockTypeTorch.LightLevel() != 14 {
		t.Errorf("Torch light = %d, want 14", BlockTypeTorch.LightLevel())
	}
	if BlockTypeStone.IsLightSource() {
		t.Error("Stone should not emit light")
	}
}

func TestAtlasCells(t *testing.T) {
	tests := []struct {
		b    BlockType
		face BlockFace
		u, v int
	}{
		{BlockTypeGrass, FaceTop, 0, 0},
		{BlockTypeGrass, FaceBottom, 2, 0},
		{BlockTypeGrass, FaceEast, 3, 0},
		{BlockTypeWood, FaceTop, 5, 1},
		{BlockTypeWood, FaceNorth, 4, 1},
		{BlockTypeSandstone, FaceBottom, 0, 13},
		{BlockTypeCraftingTable, FaceSouth, 11, 3},
		{BlockTypeCraftingTable, FaceWest, 12, 3},
		{BlockTypeFurnace, FaceSouth, 12, 2},
		{BlockTypeFurnace, FaceTop, 14, 3},
		{BlockTypeWater, FaceTop, 13, 12},
	}
	for _, tt := range tests {
		u, v := tt.b.AtlasCell(tt.face)
		if u != tt.u || v != tt.v {
			t.Errorf("%v %v cell = (%d,%d), want (%d,%d)", tt.b, tt.face, u, v, tt.u, tt.v)
		}
	}

	for i := range BlockTypeCount {
		for _, f := range AllFaces {
			uv := BlockType(i).UV(f)
			if uv.X() < 0 || uv.X() >= 1 || uv.Y() < 0 || uv.Y() >= 1 {
				t.Errorf("%v %v uv %v outside [0,1)", BlockType(i), f, uv)
			}
		}
	}
}

func TestFaceNormalsAreUnitAxes(t *testing.T) {
	for _, f := range AllFaces {
		n := f.Normal()
		if n.Len() != 1 {
			t.Errorf("%v normal %v is not unit length", f, n)
		}
		dx, dy, dz := f.Offset()
		if abs(dx)+abs(dy)+abs(dz) != 1 {
			t.Errorf("%v offset (%d,%d,%d) is not axis aligned", f, dx, dy, dz)
		}
	}
}

func TestBlockNames(t *testing.T) {
	if BlockTypeCoal.String() != "Coal Ore" {
		t.Errorf("got %q", BlockTypeCoal.String())
	}
	if BlockTypeCraftingTable.String() != "Crafting Table" {
		t.Errorf("got %q", BlockTypeCraftingTable.String())
	}
}
