package main

import (
	"context"
	"fmt"

	"voxelcraft/internal/world"
)

func runRaycast(_ context.Context, args []string) error {
	f := newWorldFlags("raycast")
	origin := f.fs.String("origin", "0.5,100,0.5", "ray origin x,y,z")
	dir := f.fs.String("dir", "0,-1,0", "ray direction x,y,z")
	maxDist := f.fs.Float64("max", 64, "maximum distance")
	log, err := f.parse(args)
	if err != nil {
		return err
	}
	o, err := parseVec(*origin)
	if err != nil {
		return err
	}
	d, err := parseVec(*dir)
	if err != nil {
		return err
	}
	s, err := f.open(log)
	if err != nil {
		return err
	}
	defer s.Close()

	// Load enough chunks to cover the whole ray.
	r := int(*maxDist)/world.ChunkWidth + 1
	if _, err := s.world.UpdateAround(chunkOf(o), r); err != nil {
		return err
	}
	hit, err := s.world.Raycast(o, d, float32(*maxDist))
	if err != nil {
		return err
	}
	if !hit.Hit {
		fmt.Printf("miss within %.1f blocks\n", *maxDist)
		return nil
	}
	fmt.Printf("hit %v at %v on %v face (normal %v), distance %.2f, adjacent %v\n",
		hit.Block, hit.HitPosition, hit.Face, hit.Normal(), hit.Distance, hit.AdjacentPosition)
	return nil
}
