package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"voxelcraft/internal/meshing"
	"voxelcraft/internal/profiling"
)

func runGen(ctx context.Context, args []string) error {
	f := newWorldFlags("gen")
	center := f.fs.String("center", "0,0", "center chunk cx,cz")
	saveName := f.fs.String("save", "", "write the generated world to this save")
	mesh := f.fs.Bool("mesh", false, "mesh every loaded chunk and report geometry totals")
	log, err := f.parse(args)
	if err != nil {
		return err
	}
	c, err := parseChunk(*center)
	if err != nil {
		return err
	}
	s, err := f.open(log)
	if err != nil {
		return err
	}
	defer s.Close()

	start := time.Now()
	stats, err := s.world.UpdateAround(c, f.cfg.Radius)
	if err != nil {
		return err
	}
	log.Info("chunks streamed", "center", c, "radius", f.cfg.Radius,
		"generated", stats.Generated, "restored", stats.Restored, "evicted", stats.Evicted,
		"took", time.Since(start).Round(time.Millisecond))

	if *mesh {
		faces, err := meshAll(ctx, s, f.cfg.Workers)
		if err != nil {
			return err
		}
		fmt.Printf("meshed %d chunks: %s opaque faces, %s translucent faces\n",
			s.world.Len(), humanize.Comma(int64(faces[0])), humanize.Comma(int64(faces[1])))
	}
	log.Debug("profile", "top", profiling.TopN(5))

	if *saveName != "" {
		if n, err := s.world.Flush(); err != nil {
			return err
		} else if n > 0 {
			log.Info("archive flushed", "chunks", n)
		}
		path, err := s.save(f.cfg, *saveName)
		if err != nil {
			return err
		}
		fmt.Printf("saved %d chunks of seed %d to %s\n", s.world.Len(), s.world.Seed(), path)
	}
	return nil
}

// meshAll runs every invalid mesh through a worker pool and returns the
// opaque and translucent face totals.
func meshAll(ctx context.Context, s *session, workers int) ([2]int, error) {
	var faces [2]int
	pool := meshing.NewPool(s.world, workers, 64)
	defer pool.Shutdown()

	for {
		want := len(s.world.InvalidMeshes())
		if want == 0 {
			return faces, nil
		}
		queued := pool.SubmitInvalid()
		for range queued {
			select {
			case r := <-pool.Results():
				faces[0] += r.Mesh.Opaque.Faces()
				faces[1] += r.Mesh.Translucent.Faces()
			case <-ctx.Done():
				return faces, ctx.Err()
			}
		}
	}
}
