package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"voxelcraft/internal/config"
	"voxelcraft/internal/save"
	"voxelcraft/internal/world"
)

func runInfo(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	dir := fs.String("save-dir", config.Default().SaveDir, "directory of save files")
	blocks := fs.Int("blocks", 8, "number of block kinds to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("want one save name or path: %w", world.ErrInvalidArgument)
	}
	path := fs.Arg(0)
	if !strings.HasSuffix(path, save.Ext) {
		path = save.PathFor(*dir, path)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	rec, err := save.ReadFile(path)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "path\t%s\n", path)
	fmt.Fprintf(tw, "size\t%s, modified %s\n", humanize.Bytes(uint64(fi.Size())), humanize.Time(fi.ModTime()))
	fmt.Fprintf(tw, "version\t%d\n", rec.Version)
	fmt.Fprintf(tw, "seed\t%d\n", rec.Seed)
	fmt.Fprintf(tw, "generator\t%s noise, caves %v, legacy lattice %v\n",
		rec.Generator.Noise, rec.Generator.Caves, rec.Generator.LegacyLattice)
	o := rec.Observer
	fmt.Fprintf(tw, "observer\t(%.1f, %.1f, %.1f) yaw %.2f pitch %.2f\n",
		o.Position.X(), o.Position.Y(), o.Position.Z(), o.Yaw, o.Pitch)
	phase := "day"
	if rec.Calendar.IsNight() {
		phase = "night"
	}
	fmt.Fprintf(tw, "calendar\tday %d, time %.2f (%s)\n", rec.Calendar.Day, rec.Calendar.TimeOfDay, phase)
	fmt.Fprintf(tw, "chunks\t%s%s\n", humanize.Comma(int64(len(rec.Chunks))), bounds(rec.Chunks))

	counts := make([]int, world.BlockTypeCount)
	for _, c := range rec.Chunks {
		for _, b := range c.Bytes() {
			counts[b]++
		}
	}
	kinds := make([]world.BlockType, 0, world.BlockTypeCount)
	for b := range world.BlockTypeCount {
		if b != int(world.BlockTypeAir) && counts[b] > 0 {
			kinds = append(kinds, world.BlockType(b))
		}
	}
	slices.SortFunc(kinds, func(a, b world.BlockType) int { return cmp.Compare(counts[b], counts[a]) })
	for i, b := range kinds[:min(*blocks, len(kinds))] {
		label := ""
		if i == 0 {
			label = "blocks"
		}
		fmt.Fprintf(tw, "%s\t%-14s %s\n", label, b, humanize.Comma(int64(counts[b])))
	}
	return tw.Flush()
}

func bounds(chunks []*world.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	lo, hi := chunks[0].Pos, chunks[0].Pos
	for _, c := range chunks[1:] {
		lo.X, lo.Z = min(lo.X, c.Pos.X), min(lo.Z, c.Pos.Z)
		hi.X, hi.Z = max(hi.X, c.Pos.X), max(hi.Z, c.Pos.Z)
	}
	return fmt.Sprintf(" spanning %v to %v", lo, hi)
}

func runList(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	dir := fs.String("save-dir", config.Default().SaveDir, "directory of save files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	saves, err := save.List(*dir)
	if err != nil {
		return err
	}
	if len(saves) == 0 {
		fmt.Printf("no saves in %s\n", *dir)
		return nil
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, s := range saves {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, humanize.Bytes(uint64(s.Size)), humanize.Time(s.Modified))
	}
	return tw.Flush()
}
