package world

const (
	// SkyLightFull is the light of a cell open to the sky.
	SkyLightFull float32 = 1.0
	// SkyLightAmbient is the floor for covered cells.
	SkyLightAmbient float32 = 0.1
)

// SkyLightFor maps sky exposure to a light term.
func SkyLightFor(exposed bool) float32 {
	if exposed {
		return SkyLightFull
	}
	return SkyLightAmbient
}

// SkyLight returns SkyLightFull when no solid block lies above (x, y, z) up to
// the top of the world, else SkyLightAmbient. Unloaded columns count as open.
func (w *World) SkyLight(x, y, z int) float32 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	c := w.chunkAt(x, z)
	if c == nil || y >= ChunkHeight-1 {
		return SkyLightFull
	}
	lx, lz := mod(x, ChunkWidth), mod(z, ChunkWidth)
	for yy := max(y+1, 0); yy < ChunkHeight; yy++ {
		if c.Get(lx, yy, lz).IsSolid() {
			return SkyLightAmbient
		}
	}
	return SkyLightFull
}
