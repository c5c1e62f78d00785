package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-gl/mathgl/mgl32"

	"voxelcraft/internal/meshing"
	"voxelcraft/internal/physics"
	"voxelcraft/internal/save"
	"voxelcraft/internal/world"
)

const (
	walkSpeed    = 4.3
	jumpSpeed    = 8.0
	gravity      = 28.0
	halfWidth    = 0.3
	playerHeight = 1.8
	eyeHeight    = 1.62
)

// runSim steps a headless observer that walks along its yaw, jumping over
// obstacles, while chunks stream and mesh in the background.
func runSim(ctx context.Context, args []string) error {
	f := newWorldFlags("sim")
	ticks := f.fs.Int("ticks", 1200, "number of ticks to simulate")
	dt := f.fs.Duration("dt", 50*time.Millisecond, "tick length")
	yaw := f.fs.Float64("yaw", 0, "walking direction in degrees, 0 = +X")
	saveName := f.fs.String("save", "", "save name for autosaves and the final state")
	log, err := f.parse(args)
	if err != nil {
		return err
	}
	s, err := f.open(log)
	if err != nil {
		return err
	}
	defer s.Close()

	w := s.world
	spawn := chunkOf(s.observer.Position)
	if _, err := w.UpdateAround(spawn, min(f.cfg.Radius, 2)); err != nil {
		return err
	}
	if f.load == "" {
		s.observer.Yaw = float32(*yaw)
		s.observer.Position = mgl32.Vec3{0.5, float32(w.HeightAt(0, 0) + 1), 0.5}
	}

	streamer := world.NewStreamer(w)
	defer streamer.Close()
	pool := meshing.NewPool(w, f.cfg.Workers, 256)
	defer pool.Shutdown()
	auto := save.NewAutoSave(f.cfg.AutosaveInterval)
	auto.SetEnabled(*saveName != "")

	rad := float64(s.observer.Yaw) * math.Pi / 180
	heading := mgl32.Vec3{float32(math.Cos(rad)), 0, float32(math.Sin(rad))}
	box := physics.BoxAt(s.observer.Position, halfWidth, playerHeight)
	var vel mgl32.Vec3
	var meshed, faces, saves int
	current := world.ChunkPos{X: math.MinInt32}
	step := float32(dt.Seconds())

	for tick := 0; tick < *ticks; tick++ {
		if err := ctx.Err(); err != nil {
			log.Info("interrupted", "tick", tick)
			break
		}
		pos := chunkOf(box.Feet())
		// Requests are capped per call, so keep topping up every tick.
		queued := streamer.Request(pos, f.cfg.Radius)
		if pos != current {
			current = pos
			evicted, err := streamer.Evict(pos, f.cfg.Radius)
			if err != nil {
				log.Warn("eviction incomplete", "err", err)
			}
			log.Debug("entered chunk", "chunk", pos, "queued", queued, "evicted", evicted.Evicted)
		}

		// Hold still until the ground under the observer exists.
		if w.HasChunk(pos) {
			vel[0], vel[2] = heading.X()*walkSpeed, heading.Z()*walkSpeed
			vel[1] -= gravity * step
			res := physics.Move(w, box, vel.Mul(step))
			box = res.Box
			if res.OnGround && (res.Blocked[0] || res.Blocked[2]) {
				vel[1] = jumpSpeed
			} else {
				vel = res.ApplyTo(vel)
			}
		}

		pool.SubmitInvalid()
	drain:
		for {
			select {
			case r := <-pool.Results():
				meshed++
				faces += r.Mesh.Opaque.Faces() + r.Mesh.Translucent.Faces()
			default:
				break drain
			}
		}

		s.calendar.Advance(step, f.cfg.DayLength)
		s.observer.Position = box.Feet()
		if auto.Update(*dt) {
			if _, err := s.save(f.cfg, *saveName); err != nil {
				return err
			}
			saves++
			log.Info("autosaved", "tick", tick, "chunks", w.Len())
		}
	}

	streamer.Wait()
	eye := box.Feet().Add(mgl32.Vec3{0, eyeHeight, 0})
	if hit, err := physics.Pick(w, eye, heading.Add(mgl32.Vec3{0, -0.5, 0})); err == nil && hit.Hit {
		log.Info("looking at", "block", hit.Block, "pos", hit.HitPosition, "face", hit.Face)
	}
	if *saveName != "" {
		path, err := s.save(f.cfg, *saveName)
		if err != nil {
			return err
		}
		saves++
		log.Info("saved", "path", path)
	}

	p := box.Feet()
	fmt.Printf("observer at (%.1f, %.1f, %.1f), day %d %.2f; %d chunks loaded, %s meshes with %s faces, %d saves\n",
		p.X(), p.Y(), p.Z(), s.calendar.Day, s.calendar.TimeOfDay, w.Len(),
		humanize.Comma(int64(meshed)), humanize.Comma(int64(faces)), saves)
	return nil
}

func chunkOf(p mgl32.Vec3) world.ChunkPos {
	return world.ChunkPosAt(int(math.Floor(float64(p.X()))), int(math.Floor(float64(p.Z()))))
}
