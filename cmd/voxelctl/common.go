package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"voxelcraft/internal/config"
	"voxelcraft/internal/save"
	"voxelcraft/internal/storage"
	"voxelcraft/internal/world"
)

// worldFlags binds the shared world settings of a subcommand.
type worldFlags struct {
	fs         *flag.FlagSet
	cfg        *config.Config
	configPath string
	load       string
}

func newWorldFlags(name string) *worldFlags {
	f := &worldFlags{fs: flag.NewFlagSet(name, flag.ContinueOnError), cfg: config.Default()}
	fs, cfg := f.fs, f.cfg
	fs.StringVar(&f.configPath, "config", "", "YAML config file")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "world seed")
	fs.StringVar(&cfg.Noise, "noise", cfg.Noise, "noise basis: value or simplex")
	fs.BoolVar(&cfg.Caves, "caves", cfg.Caves, "carve caves")
	fs.IntVar(&cfg.Radius, "radius", cfg.Radius, "streaming radius in chunks")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "generation workers (0 = one per CPU)")
	fs.StringVar(&cfg.SaveDir, "save-dir", cfg.SaveDir, "directory of save files")
	fs.StringVar(&cfg.ArchivePath, "archive", cfg.ArchivePath, "SQLite chunk archive (empty disables)")
	fs.BoolVar(&cfg.Compress, "compress", cfg.Compress, "zstd-compress save files")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.StringVar(&f.load, "load", "", "start from the named save instead of generating")
	return f
}

// parse applies the command line, then the config file for flags not given
// explicitly, and validates the result.
func (f *worldFlags) parse(args []string) (*slog.Logger, error) {
	if err := f.fs.Parse(args); err != nil {
		return nil, err
	}
	if f.configPath != "" {
		fromFile, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		explicit := make(map[string]bool)
		f.fs.Visit(func(fl *flag.Flag) { explicit[fl.Name] = true })
		config.Merge(f.cfg, fromFile, explicit)
	}
	if err := f.cfg.Validate(); err != nil {
		return nil, err
	}
	level, _ := f.cfg.Level()
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}

// session is an open world with its persisted state.
type session struct {
	world    *world.World
	observer save.Observer
	calendar save.Calendar
	archive  *storage.SQLiteArchive
}

func (s *session) Close() error {
	if s.archive == nil {
		return nil
	}
	return s.archive.Close()
}

// open restores the save named by -load, or creates a fresh world.
func (f *worldFlags) open(log *slog.Logger) (*session, error) {
	s := &session{calendar: save.NewCalendar()}
	var rec *save.Record
	seed := f.cfg.Seed
	if f.load != "" {
		r, err := save.ReadFile(save.PathFor(f.cfg.SaveDir, f.load))
		if err != nil {
			return nil, err
		}
		rec, seed = &r, r.Seed
		s.observer, s.calendar = r.Observer, r.Calendar
	}

	var extra []world.Option
	if f.cfg.ArchivePath != "" {
		a, err := storage.OpenSQLite(f.cfg.ArchivePath, seed, log)
		if err != nil {
			return nil, err
		}
		s.archive = a
		extra = append(extra, world.WithArchive(a))
	}

	var err error
	if rec != nil {
		extra = append(extra, world.WithWorkers(f.cfg.Workers), world.WithLogger(log))
		s.world, err = save.Restore(*rec, extra...)
		log.Info("save loaded", "name", f.load, "version", rec.Version, "seed", rec.Seed, "chunks", len(rec.Chunks))
	} else {
		s.world, err = f.cfg.NewWorld(log, extra...)
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) save(cfg *config.Config, name string) (string, error) {
	path := save.PathFor(cfg.SaveDir, name)
	if err := save.WriteFile(path, save.Capture(s.world, s.observer, s.calendar), cfg.Compress); err != nil {
		return "", err
	}
	return path, nil
}

// parseVec parses "x,y,z".
func parseVec(s string) (mgl32.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return mgl32.Vec3{}, fmt.Errorf("vector %q: want x,y,z: %w", s, world.ErrInvalidArgument)
	}
	var v mgl32.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return mgl32.Vec3{}, fmt.Errorf("vector %q: %w", s, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// parseChunk parses "cx,cz".
func parseChunk(s string) (world.ChunkPos, error) {
	var p world.ChunkPos
	if _, err := fmt.Sscanf(s, "%d,%d", &p.X, &p.Z); err != nil {
		return p, fmt.Errorf("chunk %q: want cx,cz: %w", s, world.ErrInvalidArgument)
	}
	return p, nil
}
