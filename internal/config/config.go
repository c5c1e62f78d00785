// Package config loads voxelctl settings from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"voxelcraft/internal/save"
	"voxelcraft/internal/world"
)

const (
	MinRadius     = 1
	MaxRadius     = 32
	DefaultRadius = 8
	MinWorkers    = 1
	MaxWorkers    = 64
)

// Config holds the world and tool settings.
type Config struct {
	Seed    uint64 `yaml:"seed"`
	Noise   string `yaml:"noise"` // "value" or "simplex"
	Caves   bool   `yaml:"caves"`
	Radius  int    `yaml:"radius"`  // streaming radius in chunks
	Workers int    `yaml:"workers"` // 0 = one per CPU

	SaveDir          string        `yaml:"save_dir"`
	ArchivePath      string        `yaml:"archive_path"` // empty disables the chunk archive
	Compress         bool          `yaml:"compress"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
	DayLength        float32       `yaml:"day_length"` // seconds

	LogLevel string `yaml:"log_level"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Noise:            world.NoiseValue.String(),
		Radius:           DefaultRadius,
		SaveDir:          "saves",
		Compress:         true,
		AutosaveInterval: save.DefaultAutoSaveInterval,
		DayLength:        save.DefaultDayLength,
		LogLevel:         "info",
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate clamps numeric settings into range and rejects unknown names.
func (c *Config) Validate() error {
	c.SetRadius(c.Radius)
	c.SetWorkers(c.Workers)
	if c.AutosaveInterval <= 0 {
		c.AutosaveInterval = save.DefaultAutoSaveInterval
	}
	if c.DayLength <= 0 {
		c.DayLength = save.DefaultDayLength
	}
	_, noiseErr := c.GeneratorOptions()
	_, levelErr := c.Level()
	return errors.Join(noiseErr, levelErr)
}

// SetRadius sets the streaming radius, clamped to [MinRadius, MaxRadius].
func (c *Config) SetRadius(r int) {
	c.Radius = min(max(r, MinRadius), MaxRadius)
}

// SetWorkers sets the generation worker count. Zero or less means one per
// CPU; the result is clamped to [MinWorkers, MaxWorkers].
func (c *Config) SetWorkers(n int) {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	c.Workers = min(max(n, MinWorkers), MaxWorkers)
}

// GeneratorOptions maps the noise and caves settings to the generator.
func (c *Config) GeneratorOptions() (world.GeneratorOptions, error) {
	kind, err := world.ParseNoiseKind(c.Noise)
	if err != nil {
		return world.GeneratorOptions{}, fmt.Errorf("config noise: %w", err)
	}
	return world.GeneratorOptions{Noise: kind, Caves: c.Caves}, nil
}

// Level parses the log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config log_level %q: %w", c.LogLevel, world.ErrInvalidArgument)
	}
	return l, nil
}

// NewWorld creates a fresh world from the configuration. extra options are
// applied last.
func (c *Config) NewWorld(log *slog.Logger, extra ...world.Option) (*world.World, error) {
	gen, err := c.GeneratorOptions()
	if err != nil {
		return nil, err
	}
	opts := append([]world.Option{
		world.WithGeneratorOptions(gen),
		world.WithWorkers(c.Workers),
		world.WithLogger(log),
	}, extra...)
	return world.New(c.Seed, opts...), nil
}

// Merge applies file-loaded values into cfg, but only for fields that were
// NOT explicitly set via CLI flags. explicitFlags holds the names of flags
// given on the command line.
func Merge(cfg, fromFile *Config, explicitFlags map[string]bool) {
	if !explicitFlags["seed"] {
		cfg.Seed = fromFile.Seed
	}
	if !explicitFlags["noise"] {
		cfg.Noise = fromFile.Noise
	}
	if !explicitFlags["caves"] {
		cfg.Caves = fromFile.Caves
	}
	if !explicitFlags["radius"] {
		cfg.Radius = fromFile.Radius
	}
	if !explicitFlags["workers"] {
		cfg.Workers = fromFile.Workers
	}
	if !explicitFlags["save-dir"] {
		cfg.SaveDir = fromFile.SaveDir
	}
	if !explicitFlags["archive"] {
		cfg.ArchivePath = fromFile.ArchivePath
	}
	if !explicitFlags["compress"] {
		cfg.Compress = fromFile.Compress
	}
	if !explicitFlags["log-level"] {
		cfg.LogLevel = fromFile.LogLevel
	}
	cfg.AutosaveInterval = fromFile.AutosaveInterval
	cfg.DayLength = fromFile.DayLength
}
