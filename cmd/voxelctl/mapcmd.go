package main

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"slices"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"voxelcraft/internal/world"
)

var blockColors = map[world.BlockType]color.RGBA{
	world.BlockTypeStone:       {125, 125, 125, 255},
	world.BlockTypeDirt:        {134, 96, 67, 255},
	world.BlockTypeGrass:       {95, 159, 53, 255},
	world.BlockTypeSand:        {219, 207, 163, 255},
	world.BlockTypeWater:       {47, 84, 198, 255},
	world.BlockTypeWood:        {102, 81, 51, 255},
	world.BlockTypeLeaves:      {55, 110, 35, 255},
	world.BlockTypeCobblestone: {110, 110, 110, 255},
	world.BlockTypePlanks:      {162, 130, 78, 255},
	world.BlockTypeBrick:       {150, 74, 60, 255},
	world.BlockTypeGravel:      {136, 126, 126, 255},
	world.BlockTypeSnow:        {240, 250, 250, 255},
	world.BlockTypeIce:         {160, 190, 250, 255},
	world.BlockTypeCactus:      {20, 120, 30, 255},
	world.BlockTypeSandstone:   {216, 203, 155, 255},
	world.BlockTypeBedrock:     {40, 40, 40, 255},
}

var biomeColors = map[world.Biome]color.RGBA{
	world.BiomePlains:    {141, 179, 96, 255},
	world.BiomeForest:    {5, 102, 33, 255},
	world.BiomeDesert:    {250, 148, 24, 255},
	world.BiomeMountains: {96, 96, 96, 255},
	world.BiomeTundra:    {220, 235, 240, 255},
	world.BiomeJungle:    {83, 123, 9, 255},
	world.BiomeSwamp:     {7, 249, 178, 255},
	world.BiomeOcean:     {0, 0, 112, 255},
	world.BiomeBeach:     {250, 222, 85, 255},
	world.BiomeSavanna:   {189, 178, 95, 255},
	world.BiomeTaiga:     {11, 102, 89, 255},
}

var unknownColor = color.RGBA{200, 0, 200, 255}

const (
	legendColumn = 120
	legendRow    = 16
)

func runMap(ctx context.Context, args []string) error {
	f := newWorldFlags("map")
	center := f.fs.String("center", "0,0", "center chunk cx,cz")
	out := f.fs.String("out", "map.png", "output PNG path")
	scale := f.fs.Int("scale", 2, "pixels per column")
	mode := f.fs.String("mode", "blocks", "color by top blocks or biomes")
	log, err := f.parse(args)
	if err != nil {
		return err
	}
	if *mode != "blocks" && *mode != "biomes" {
		return fmt.Errorf("mode %q: want blocks or biomes: %w", *mode, world.ErrInvalidArgument)
	}
	px := max(*scale, 1)
	c, err := parseChunk(*center)
	if err != nil {
		return err
	}
	s, err := f.open(log)
	if err != nil {
		return err
	}
	defer s.Close()

	r := f.cfg.Radius
	if _, err := s.world.UpdateAround(c, r); err != nil {
		return err
	}

	side := (2*r + 1) * world.ChunkWidth
	ox, oz := (c.X-r)*world.ChunkWidth, (c.Z-r)*world.ChunkWidth
	legend := make(map[string]color.RGBA)

	mapImg := image.NewRGBA(image.Rect(0, 0, side*px, side*px))
	for z := range side {
		if err := ctx.Err(); err != nil {
			return err
		}
		for x := range side {
			wx, wz := ox+x, oz+z
			var col color.RGBA
			if *mode == "biomes" {
				b := s.world.BiomeAt(wx, wz)
				col = lookup(biomeColors, b)
				legend[b.String()] = col
			} else {
				h := s.world.HeightAt(wx, wz)
				b, _ := s.world.Block(wx, h, wz)
				col = lookup(blockColors, b)
				legend[b.String()] = col
				col = shade(col, h)
			}
			draw.Draw(mapImg, image.Rect(x*px, z*px, (x+1)*px, (z+1)*px),
				image.NewUniform(col), image.Point{}, draw.Src)
		}
	}

	img := withLegend(mapImg, legend, fmt.Sprintf("seed %d  center %v  %s", s.world.Seed(), c, *mode))
	file, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encode %s: %w", *out, err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	log.Info("map written", "path", *out, "columns", side*side, "legend", len(legend))
	return nil
}

func lookup[K comparable](table map[K]color.RGBA, k K) color.RGBA {
	if c, ok := table[k]; ok {
		return c
	}
	return unknownColor
}

// shade darkens low columns and brightens high ones.
func shade(c color.RGBA, height int) color.RGBA {
	f := 0.55 + 0.75*float64(height)/float64(world.ChunkHeight)
	scale := func(v uint8) uint8 { return uint8(min(float64(v)*f, 255)) }
	return color.RGBA{scale(c.R), scale(c.G), scale(c.B), 255}
}

// withLegend appends a title line and a swatch per legend entry below the map.
func withLegend(mapImg *image.RGBA, legend map[string]color.RGBA, title string) *image.RGBA {
	w := max(mapImg.Bounds().Dx(), 2*legendColumn)
	cols := max(w/legendColumn, 1)
	names := make([]string, 0, len(legend))
	for name := range legend {
		names = append(names, name)
	}
	slices.Sort(names)
	rows := (len(names) + cols - 1) / cols
	top := mapImg.Bounds().Dy()

	img := image.NewRGBA(image.Rect(0, 0, w, top+(rows+1)*legendRow+4))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{24, 24, 24, 255}), image.Point{}, draw.Src)
	draw.Draw(img, mapImg.Bounds(), mapImg, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.White), Face: basicfont.Face7x13}
	d.Dot = fixed.P(4, top+legendRow-3)
	d.DrawString(title)
	for i, name := range names {
		x := (i % cols) * legendColumn
		y := top + (i/cols+1)*legendRow
		draw.Draw(img, image.Rect(x+4, y+3, x+14, y+13), image.NewUniform(legend[name]), image.Point{}, draw.Src)
		d.Dot = fixed.P(x+18, y+legendRow-4)
		d.DrawString(name)
	}
	return img
}
