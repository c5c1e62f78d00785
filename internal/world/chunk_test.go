package world

import (
	"errors"
	"testing"
)

func TestChunkLayoutIsYZX(t *testing.T) {
	if index(1, 0, 0) != 1 || index(0, 0, 1) != ChunkWidth || index(0, 1, 0) != LayerSize {
		t.Fatal("chunk storage is not y, z, x ordered")
	}
	c := NewChunk(0, 0)
	c.FillLayer(5, BlockTypeStone)
	for i, b := range c.Bytes() {
		inLayer := i >= 5*LayerSize && i < 6*LayerSize
		if inLayer != (BlockType(b) == BlockTypeStone) {
			t.Fatalf("layer 5 is not contiguous at offset %d", i)
		}
	}
}

func TestChunkGetSet(t *testing.T) {
	c := NewChunk(3, -2)
	if !c.IsEmpty() {
		t.Fatal("new chunk should be empty")
	}
	if c.IsDirty() || c.MeshValid() {
		t.Fatal("new chunk should be clean with no mesh")
	}

	c.Set(1, 2, 3, BlockTypeDirt)
	if got := c.Get(1, 2, 3); got != BlockTypeDirt {
		t.Errorf("Expected Dirt, got %v", got)
	}
	if !c.IsDirty() {
		t.Error("Set should mark the chunk dirty")
	}
	if c.IsEmpty() || c.Count() != 1 {
		t.Errorf("Expected 1 block, got %d", c.Count())
	}

	rev := c.Revision()
	for _, p := range [][3]int{{-1, 0, 0}, {16, 0, 0}, {0, -1, 0}, {0, 128, 0}, {0, 0, 16}} {
		c.Set(p[0], p[1], p[2], BlockTypeStone)
		if got := c.Get(p[0], p[1], p[2]); got != BlockTypeAir {
			t.Errorf("out of bounds Get%v = %v, want Air", p, got)
		}
	}
	if c.Revision() != rev {
		t.Error("out of bounds writes must be ignored")
	}
}

func TestChunkSetInvalidatesMesh(t *testing.T) {
	c := NewChunk(0, 0)
	c.meshValid = true
	c.SetClean()
	c.Set(0, 0, 0, BlockTypeStone)
	if c.MeshValid() {
		t.Error("Set should invalidate the mesh")
	}
}

func TestFillColumnClamps(t *testing.T) {
	c := NewChunk(0, 0)
	c.FillColumn(4, 5, -10, 3, BlockTypeSand)
	for y := range 3 {
		if c.Get(4, y, 5) != BlockTypeSand {
			t.Errorf("Expected Sand at y=%d", y)
		}
	}
	if c.Get(4, 3, 5) != BlockTypeAir {
		t.Error("FillColumn upper bound must be exclusive")
	}

	c.FillColumn(0, 0, 120, 500, BlockTypeStone)
	if c.Count() != 3+8 {
		t.Errorf("Expected 11 blocks, got %d", c.Count())
	}

	c.FillColumn(0, 0, 10, 5, BlockTypeStone)
	c.FillColumn(16, 0, 0, 5, BlockTypeStone)
	if c.Count() != 11 {
		t.Errorf("empty or out of bounds spans should not write, got %d blocks", c.Count())
	}
}

func TestFillLayerOutOfRange(t *testing.T) {
	c := NewChunk(0, 0)
	c.FillLayer(-1, BlockTypeStone)
	c.FillLayer(ChunkHeight, BlockTypeStone)
	if !c.IsEmpty() {
		t.Error("out of range layers should be ignored")
	}
	c.FillLayer(0, BlockTypeBedrock)
	if c.Count() != LayerSize {
		t.Errorf("Expected %d blocks, got %d", LayerSize, c.Count())
	}
}

func TestSetBytesValidates(t *testing.T) {
	src := NewChunk(0, 0)
	src.Set(15, 127, 15, BlockTypeChest)
	src.Set(0, 0, 0, BlockTypeBedrock)

	dst := NewChunk(0, 0)
	if err := dst.SetBytes(src.Bytes()); err != nil {
		t.Fatal(err)
	}
	if dst.Get(15, 127, 15) != BlockTypeChest || dst.Get(0, 0, 0) != BlockTypeBedrock {
		t.Error("SetBytes did not restore contents")
	}

	if err := dst.SetBytes(make([]byte, 10)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("short payload: got %v", err)
	}
	bad := src.Bytes()
	bad[100] = 200
	if err := dst.SetBytes(bad); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("unknown ordinal: got %v", err)
	}
}

func TestCloneIsDetached(t *testing.T) {
	c := NewChunk(1, 1)
	c.Set(0, 1, 0, BlockTypeDirt)
	cp := c.Clone()
	c.Set(0, 1, 0, BlockTypeStone)
	if cp.Get(0, 1, 0) != BlockTypeDirt {
		t.Error("clone shares storage with the original")
	}
}

func TestWorldToLocal(t *testing.T) {
	cx, cz, lx, ly, lz := WorldToLocal(-1, 5, -1)
	if cx != -1 || cz != -1 || lx != 15 || ly != 5 || lz != 15 {
		t.Errorf("WorldToLocal(-1,5,-1) = (%d,%d,%d,%d,%d)", cx, cz, lx, ly, lz)
	}

	for x := -100; x <= 100; x++ {
		cx, _, lx, _, _ := WorldToLocal(x, 0, 0)
		if cx*ChunkWidth+lx != x || lx < 0 || lx >= ChunkWidth {
			t.Fatalf("x=%d decomposed to cx=%d lx=%d", x, cx, lx)
		}
	}
	if p := ChunkPosAt(-16, -17); p != (ChunkPos{-1, -2}) {
		t.Errorf("ChunkPosAt(-16,-17) = %v", p)
	}
}
