// Package config loads and validates the YAML configuration file spec.md
// §6 describes, and parses the filename metadata original_source/
// extracts that the core pipeline itself does not need.
package config

import (
	"fmt"
	"image"
	"os"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/kallsyms/go-mesodetect/internal/legend"
)

// colorVelocityPair is one row of the YAML color_velocity_pairs list:
// [[R,G,B], V].
type colorVelocityPair struct {
	Color    [3]uint8
	Velocity float32
}

// UnmarshalYAML decodes the [[R,G,B], V] shape into a colorVelocityPair.
func (p *colorVelocityPair) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw [2]interface{}
	if err := unmarshal(&raw); err != nil {
		return fmt.Errorf("config: malformed color_velocity_pairs entry: %w", err)
	}

	rgb, ok := raw[0].([]interface{})
	if !ok || len(rgb) != 3 {
		return fmt.Errorf("config: color_velocity_pairs entry color must be [R,G,B]")
	}
	for i, c := range rgb {
		v, ok := c.(int)
		if !ok || v < 0 || v > 255 {
			return fmt.Errorf("config: color_velocity_pairs entry color channel %d out of range", i)
		}
		p.Color[i] = uint8(v)
	}

	switch v := raw[1].(type) {
	case int:
		p.Velocity = float32(v)
	case float64:
		p.Velocity = float32(v)
	default:
		return fmt.Errorf("config: color_velocity_pairs entry velocity must be numeric")
	}
	return nil
}

// File is the raw decoded shape of the YAML configuration file.
type File struct {
	ImageSize          [2]int              `yaml:"image_size" validate:"required,len=2,dive,gt=0"`
	RadarCenter        [2]int              `yaml:"radar_center" validate:"required,len=2"`
	RadarZone          [2][2]int           `yaml:"radar_zone" validate:"required"`
	ColorVelocityPairs []colorVelocityPair `yaml:"color_velocity_pairs" validate:"required,min=2"`
	Seed               int64               `yaml:"seed"`
}

var validate = validator.New()

// Load reads and validates the YAML config at path, returning the
// legend.Config the core pipeline consumes. Any malformed key, shape, or
// odd-length legend is returned as a plain error; it is not wrapped in the
// root package's ConfigError type.
func Load(path string) (legend.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return legend.Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return legend.Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := validate.Struct(&f); err != nil {
		return legend.Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	if len(f.ColorVelocityPairs)%2 != 0 {
		return legend.Config{}, fmt.Errorf("config: color_velocity_pairs has odd length %d", len(f.ColorVelocityPairs))
	}

	l := make(legend.Legend, len(f.ColorVelocityPairs))
	for i, p := range f.ColorVelocityPairs {
		l[i] = legend.Entry{R: p.Color[0], G: p.Color[1], B: p.Color[2], Velocity: p.Velocity}
	}

	cfg := legend.Config{
		ImageSize:   image.Point{X: f.ImageSize[0], Y: f.ImageSize[1]},
		RadarCenter: image.Point{X: f.RadarCenter[0], Y: f.RadarCenter[1]},
		Legend:      l,
		Thresholds:  legend.DefaultThresholds(),
		Seed:        f.Seed,
	}
	cfg.RadarZone.Min = image.Point{X: f.RadarZone[0][0], Y: f.RadarZone[0][1]}
	cfg.RadarZone.Max = image.Point{X: f.RadarZone[1][0], Y: f.RadarZone[1][1]}

	if err := cfg.Validate(); err != nil {
		return legend.Config{}, err
	}
	return cfg, nil
}

// stationIDPattern matches the Z\d{4} station identifier spec.md §6
// names, either standalone or embedded in a Z_RADR_I_{STATION}_... name.
var stationIDPattern = regexp.MustCompile(`Z\d{4}`)

// scanTimePattern matches the YYYYMMDDhhmm timestamp segment of
// Z_RADR_I_{STATION}_{YYYYMMDDhhmm}_... filenames.
var scanTimePattern = regexp.MustCompile(`_(\d{12})_`)

// ParseStationID extracts the Z\d{4} station identifier from filename,
// or "" if none is present.
func ParseStationID(filename string) string {
	return stationIDPattern.FindString(filename)
}

// ParseScanTime extracts the YYYYMMDDhhmm scan timestamp from filename,
// returning nil if the pattern isn't present or doesn't parse.
func ParseScanTime(filename string) *time.Time {
	m := scanTimePattern.FindStringSubmatch(filename)
	if m == nil {
		return nil
	}
	t, err := time.ParseInLocation("200601021504", m[1], time.UTC)
	if err != nil {
		return nil
	}
	return &t
}
