package world

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Biome is a climate region. The numeric value is stable across releases.
type Biome uint8

const (
	BiomePlains Biome = iota
	BiomeForest
	BiomeDesert
	BiomeMountains
	BiomeTundra
	BiomeJungle
	BiomeSwamp
	BiomeOcean
	BiomeBeach
	BiomeSavanna
	BiomeTaiga

	biomeCount
)

// BiomeProperties holds the terrain and ambience parameters of a biome.
type BiomeProperties struct {
	Name              string
	Surface           BlockType
	Subsurface        BlockType
	BaseHeight        int
	HeightVariation   float64
	WaterLevel        int
	TreeDensity       float64
	VegetationDensity float64
	PassiveMobRate    float64
	HostileMobRate    float64
	FogColor          mgl32.Vec3
	AmbientModifier   float32
}

var defaultFog = mgl32.Vec3{0.7, 0.8, 0.9}

var biomes = [biomeCount]BiomeProperties{
	BiomePlains: {
		Name: "Plains", Surface: BlockTypeGrass, Subsurface: BlockTypeDirt,
		BaseHeight: 35, HeightVariation: 8, WaterLevel: 30,
		TreeDensity: 0.02, VegetationDensity: 0.2, PassiveMobRate: 0.3, HostileMobRate: 0.25,
		FogColor: defaultFog, AmbientModifier: 1.0,
	},
	BiomeForest: {
		Name: "Forest", Surface: BlockTypeGrass, Subsurface: BlockTypeDirt,
		BaseHeight: 38, HeightVariation: 12, WaterLevel: 30,
		TreeDensity: 0.15, VegetationDensity: 0.3, PassiveMobRate: 0.3, HostileMobRate: 0.3,
		FogColor: defaultFog, AmbientModifier: 0.85,
	},
	BiomeDesert: {
		Name: "Desert", Surface: BlockTypeSand, Subsurface: BlockTypeSandstone,
		BaseHeight: 36, HeightVariation: 8, WaterLevel: 30,
		PassiveMobRate: 0.05, HostileMobRate: 0.2,
		FogColor: mgl32.Vec3{0.9, 0.85, 0.7}, AmbientModifier: 1.1,
	},
	BiomeMountains: {
		Name: "Mountains", Surface: BlockTypeStone, Subsurface: BlockTypeDirt,
		BaseHeight: 50, HeightVariation: 30, WaterLevel: 30,
		PassiveMobRate: 0.1, HostileMobRate: 0.25,
		FogColor: defaultFog, AmbientModifier: 1.0,
	},
	BiomeTundra: {
		Name: "Tundra", Surface: BlockTypeSnow, Subsurface: BlockTypeIce,
		BaseHeight: 40, HeightVariation: 10, WaterLevel: 30,
		VegetationDensity: 0.05, PassiveMobRate: 0.1, HostileMobRate: 0.2,
		FogColor: mgl32.Vec3{0.85, 0.9, 0.95}, AmbientModifier: 1.05,
	},
	BiomeJungle: {
		Name: "Jungle", Surface: BlockTypeGrass, Subsurface: BlockTypeDirt,
		BaseHeight: 38, HeightVariation: 12, WaterLevel: 30,
		TreeDensity: 0.25, VegetationDensity: 0.4, PassiveMobRate: 0.25, HostileMobRate: 0.3,
		FogColor: mgl32.Vec3{0.6, 0.75, 0.6}, AmbientModifier: 0.85,
	},
	BiomeSwamp: {
		Name: "Swamp", Surface: BlockTypeDirt, Subsurface: BlockTypeDirt,
		BaseHeight: 30, HeightVariation: 3, WaterLevel: 32,
		TreeDensity: 0.08, VegetationDensity: 0.25, PassiveMobRate: 0.15, HostileMobRate: 0.4,
		FogColor: mgl32.Vec3{0.5, 0.55, 0.5}, AmbientModifier: 0.7,
	},
	BiomeOcean: {
		Name: "Ocean", Surface: BlockTypeSand, Subsurface: BlockTypeDirt,
		BaseHeight: 25, HeightVariation: 5, WaterLevel: 50,
		PassiveMobRate: 0.05, HostileMobRate: 0.1,
		FogColor: mgl32.Vec3{0.5, 0.6, 0.8}, AmbientModifier: 1.0,
	},
	BiomeBeach: {
		Name: "Beach", Surface: BlockTypeSand, Subsurface: BlockTypeSandstone,
		BaseHeight: 32, HeightVariation: 3, WaterLevel: 30,
		PassiveMobRate: 0.05, HostileMobRate: 0.1,
		FogColor: defaultFog, AmbientModifier: 1.0,
	},
	BiomeSavanna: {
		Name: "Savanna", Surface: BlockTypeGrass, Subsurface: BlockTypeDirt,
		BaseHeight: 35, HeightVariation: 8, WaterLevel: 30,
		TreeDensity: 0.02, VegetationDensity: 0.2, PassiveMobRate: 0.3, HostileMobRate: 0.25,
		FogColor: defaultFog, AmbientModifier: 1.0,
	},
	BiomeTaiga: {
		Name: "Taiga", Surface: BlockTypeSnow, Subsurface: BlockTypeDirt,
		BaseHeight: 40, HeightVariation: 12, WaterLevel: 30,
		TreeDensity: 0.15, VegetationDensity: 0.15, PassiveMobRate: 0.25, HostileMobRate: 0.3,
		FogColor: defaultFog, AmbientModifier: 1.0,
	},
}

// Properties returns the parameters of b. Unknown values read as Plains.
func (b Biome) Properties() BiomeProperties {
	if b >= biomeCount {
		return biomes[BiomePlains]
	}
	return biomes[b]
}

func (b Biome) String() string {
	if b >= biomeCount {
		return fmt.Sprintf("biome(%d)", uint8(b))
	}
	return biomes[b].Name
}

// AllowsStructures reports whether villages, wells and dungeons may be placed.
func (b Biome) AllowsStructures() bool {
	return b == BiomePlains || b == BiomeForest || b == BiomeSavanna
}

// selectBiome classifies a column from its climate samples, all in [-1,1].
// The thresholds are part of the save format: changing them changes terrain.
func selectBiome(temperature, humidity, altitude float64) Biome {
	switch {
	case altitude > 0.5:
		return BiomeMountains
	case altitude < -0.3:
		return BiomeOcean
	case altitude < -0.2:
		return BiomeBeach
	}
	switch {
	case temperature > 0.4:
		switch {
		case humidity > 0.3:
			return BiomeJungle
		case humidity < -0.2:
			return BiomeDesert
		default:
			return BiomeSavanna
		}
	case temperature < -0.3:
		if humidity > 0.2 {
			return BiomeTaiga
		}
		return BiomeTundra
	case humidity > 0.4:
		return BiomeSwamp
	case humidity > 0.1:
		return BiomeForest
	}
	return BiomePlains
}
