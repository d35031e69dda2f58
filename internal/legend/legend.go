// Package legend holds the frozen-per-run configuration and the
// color<->velocity legend table the rest of the pipeline reads from.
package legend

import (
	"fmt"
	"image"

	"github.com/kallsyms/go-mesodetect/internal/raster"
)

// Entry is one legend row: a displayed color and the radial velocity it
// represents.
type Entry struct {
	R, G, B  uint8
	Velocity float32
}

// Legend is the ordered color<->velocity table. The negative half is
// indices [0, len/2) (most-negative first); the positive half is
// [len/2, len) (most-positive last).
type Legend []Entry

// Validate checks the structural invariants spec.md §4.2 requires:
// non-empty and even length.
func (l Legend) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("legend: empty legend table")
	}
	if len(l)%2 != 0 {
		return fmt.Errorf("legend: odd-length legend table (%d entries)", len(l))
	}
	return nil
}

// Half returns the index one past the last negative entry and the start
// of the positive half, i.e. len(l)/2.
func (l Legend) Half() int { return len(l) / 2 }

// NegBase is the negative sign's base index (the least negative entry,
// adjacent to the sign boundary), per spec.md §4.4: half - 1.
func (l Legend) NegBase() int8 { return int8(l.Half() - 1) }

// PosBase is the positive sign's base index: half.
func (l Legend) PosBase() int8 { return int8(l.Half()) }

// VelocityAt returns the velocity represented by legend index idx.
func (l Legend) VelocityAt(idx int8) float32 {
	if idx < 0 || int(idx) >= len(l) {
		return 0
	}
	return l[idx].Velocity
}

// Thresholds collects every tunable constant spec.md §3 enumerates.
type Thresholds struct {
	SmallGroup               int
	LayerGap                 float64
	ValidSurroundRatio       float64
	BaseEchoSurroundRatio    float64
	CrossedIncludeRatio      float64
	FoldedGap                float64
	CrossedSmallSurroundGap  float64
	OppositeSurround         float64
	OppositeCompose          float64
	FoldedLayerNum           int
	AreaMin                  int
	AreaMax                  int
	NarrowMax                float64
	AvgVolumeMin             float64
	DensityMax               float64
	LayerGroupMax            float64
	CenterDistance           float64
	MesoRotation             float32
	ValidEchoRatio           float64
}

// DefaultThresholds returns the constants named in spec.md §3.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SmallGroup:              35,
		LayerGap:                2.25,
		ValidSurroundRatio:      0.28,
		BaseEchoSurroundRatio:   0.75,
		CrossedIncludeRatio:     0.79,
		FoldedGap:               6.5,
		CrossedSmallSurroundGap: 4.45,
		OppositeSurround:        0.1,
		OppositeCompose:         0.98,
		FoldedLayerNum:          3,
		AreaMin:                 10,
		AreaMax:                 135,
		NarrowMax:               4.25,
		AvgVolumeMin:            2.25,
		DensityMax:              75,
		LayerGroupMax:           1.75,
		CenterDistance:          6,
		MesoRotation:            9.5,
		ValidEchoRatio:          0.868,
	}
}

// Config is the frozen-per-run configuration the whole pipeline shares.
type Config struct {
	ImageSize    image.Point
	RadarZone    struct{ Min, Max image.Point }
	RadarCenter  image.Point
	Legend       Legend
	GrayScaleUnit uint8
	Thresholds   Thresholds
	// Seed pins the narrow-fill tie-break PRNG for reproducible runs.
	// Zero means "seed from wall-clock", documented as non-reproducible.
	Seed int64
}

// DefaultGrayScaleUnit is the internal pixel-channel step per legend
// index that ResolveGrayScaleUnit returns when GrayScaleUnit is unset.
const DefaultGrayScaleUnit = 17

// Validate checks every structural invariant spec.md §6 requires,
// returning a descriptive error (wrapped by callers as a ConfigError).
func (c Config) Validate() error {
	if c.ImageSize.X <= 0 || c.ImageSize.Y <= 0 {
		return fmt.Errorf("legend: image_size must be positive, got %v", c.ImageSize)
	}
	if c.RadarZone.Min.X >= c.RadarZone.Max.X || c.RadarZone.Min.Y >= c.RadarZone.Max.Y {
		return fmt.Errorf("legend: radar_zone min must be < max, got %v..%v", c.RadarZone.Min, c.RadarZone.Max)
	}
	if c.RadarZone.Max.X > c.ImageSize.X || c.RadarZone.Max.Y > c.ImageSize.Y {
		return fmt.Errorf("legend: radar_zone exceeds image_size")
	}
	if err := c.Legend.Validate(); err != nil {
		return err
	}
	return nil
}

// ResolveGrayScaleUnit returns GrayScaleUnit if set, else the default.
func (c Config) ResolveGrayScaleUnit() uint8 {
	if c.GrayScaleUnit == 0 {
		return DefaultGrayScaleUnit
	}
	return c.GrayScaleUnit
}

// Zone returns the raster.Zone equivalent of RadarZone.
func (c Config) Zone() raster.Zone {
	return raster.Zone{
		MinX: c.RadarZone.Min.X,
		MinY: c.RadarZone.Min.Y,
		MaxX: c.RadarZone.Max.X,
		MaxY: c.RadarZone.Max.Y,
	}
}
