package world

import (
	"fmt"
	"math"

	"github.com/ojrac/opensimplex-go"
)

// NoiseKind selects the gradient basis of a world. It is persisted with saves.
type NoiseKind uint8

const (
	NoiseValue NoiseKind = iota
	NoiseSimplex
)

func (k NoiseKind) String() string {
	switch k {
	case NoiseValue:
		return "value"
	case NoiseSimplex:
		return "simplex"
	}
	return fmt.Sprintf("noise(%d)", uint8(k))
}

// ParseNoiseKind accepts the names produced by NoiseKind.String.
func ParseNoiseKind(s string) (NoiseKind, error) {
	switch s {
	case "", "value":
		return NoiseValue, nil
	case "simplex":
		return NoiseSimplex, nil
	}
	return 0, fmt.Errorf("%w: unknown noise kind %q", ErrInvalidArgument, s)
}

// noiseField is a seeded coherent noise in [-1,1]. Implementations are read-only
// after construction and safe for concurrent use.
type noiseField interface {
	Eval2(x, z float64) float64
	Eval3(x, y, z float64) float64
}

func newNoiseField(kind NoiseKind, seed int64, lattice latticeHash) noiseField {
	if kind == NoiseSimplex {
		return opensimplex.New(seed)
	}
	return valueField{seed: seed, hash: lattice}
}

// valueField is lattice value noise remapped from [0,1] to [-1,1].
type valueField struct {
	seed int64
	hash latticeHash
}

func (f valueField) Eval2(x, z float64) float64 { return valueNoise2D(x, z, f.seed, f.hash)*2 - 1 }

func (f valueField) Eval3(x, y, z float64) float64 { return valueNoise3D(x, y, z, f.seed)*2 - 1 }

// fade function is used for smoothing (6t^5 - 15t^4 + 10t^3)
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// latticeHash hashes a 2-D integer lattice point.
type latticeHash func(x, z, seed int64) uint64

func hash2(x int64, z int64, seed int64) uint64 {
	return mix64(uint64(x)*0x9E3779B97F4A7C15 + uint64(z)*0xC2B2AE3D27D4EB4F + uint64(seed)*0x165667B19E3779F9)
}

// hash2Legacy is the 2-D hash of worlds saved before format version 3. Its
// input only depends on x+2z, so its fields repeat along (+2,-1).
func hash2Legacy(x int64, z int64, seed int64) uint64 {
	return mix64(uint64(x) + (uint64(z) << 1) + uint64(seed)*0x9E3779B97F4A7C15)
}

// mix64 is the SplitMix64 finalizer.
func mix64(v uint64) uint64 {
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func hash3(x, y, z int64, seed int64) uint64 {
	// Separate odd multipliers per axis so axes aren't interchangeable
	return mix64(uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(z)*0x6C62272E07BB0142 + uint64(seed))
}

// unit maps a hash to [0,1].
func unit(h uint64) float64 {
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func valueNoise2D(x float64, z float64, seed int64, hash latticeHash) float64 {
	x0 := math.Floor(x)
	z0 := math.Floor(z)
	ix, iz := int64(x0), int64(z0)

	fx := fade(x - x0)
	fz := fade(z - z0)

	v00 := unit(hash(ix, iz, seed))
	v10 := unit(hash(ix+1, iz, seed))
	v01 := unit(hash(ix, iz+1, seed))
	v11 := unit(hash(ix+1, iz+1, seed))

	i0 := lerp(v00, v10, fx)
	i1 := lerp(v01, v11, fx)
	return lerp(i0, i1, fz) // [0,1]
}

func valueNoise3D(x, y, z float64, seed int64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)
	z0 := math.Floor(z)
	ix, iy, iz := int64(x0), int64(y0), int64(z0)

	fx := fade(x - x0)
	fy := fade(y - y0)
	fz := fade(z - z0)

	v000 := unit(hash3(ix, iy, iz, seed))
	v100 := unit(hash3(ix+1, iy, iz, seed))
	v010 := unit(hash3(ix, iy+1, iz, seed))
	v110 := unit(hash3(ix+1, iy+1, iz, seed))
	v001 := unit(hash3(ix, iy, iz+1, seed))
	v101 := unit(hash3(ix+1, iy, iz+1, seed))
	v011 := unit(hash3(ix, iy+1, iz+1, seed))
	v111 := unit(hash3(ix+1, iy+1, iz+1, seed))

	// X, then Y, then Z
	i00 := lerp(v000, v100, fx)
	i10 := lerp(v010, v110, fx)
	i01 := lerp(v001, v101, fx)
	i11 := lerp(v011, v111, fx)

	i0 := lerp(i00, i10, fy)
	i1 := lerp(i01, i11, fy)

	return lerp(i0, i1, fz) // [0,1]
}
