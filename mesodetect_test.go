package mesodetect

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kallsyms/go-mesodetect/internal/legend"
)

func uniformImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func testConfig(t *testing.T) legend.Config {
	t.Helper()
	cfg := legend.Config{
		ImageSize: image.Point{X: 20, Y: 20},
		Legend: legend.Legend{
			{R: 0, G: 0, B: 255, Velocity: -30},
			{R: 0, G: 0, B: 200, Velocity: -15},
			{R: 200, G: 0, B: 0, Velocity: 15},
			{R: 255, G: 0, B: 0, Velocity: 30},
		},
		RadarCenter: image.Point{X: 10, Y: 10},
		Thresholds:  legend.DefaultThresholds(),
	}
	cfg.RadarZone.Min = image.Point{X: 0, Y: 0}
	cfg.RadarZone.Max = image.Point{X: 20, Y: 20}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestDetectRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Legend = nil
	img := uniformImage(20, 20, color.Black)

	_, err := Detect(img, cfg, nil)
	require.Error(t, err)

	var cfgErr *ConfigError
	assert.True(t, errors.As(err, &cfgErr), "an invalid config must surface a *ConfigError")
}

func TestDetectOnBlankImageReturnsNoCandidates(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	img := uniformImage(20, 20, color.Black)

	out, err := Detect(img, cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, out.Records, "a blank image carries no echo and so pairs no mesocyclones")
	assert.NotEmpty(t, out.RunID)
}

func TestResolveSeedIsDeterministicWhenSet(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(42), resolveSeed(42))
}

func TestResolveSeedFallsBackToWallClockWhenZero(t *testing.T) {
	t.Parallel()

	assert.NotZero(t, resolveSeed(0))
}

func TestErrorTaxonomyUnwraps(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")

	t.Run("config error", func(t *testing.T) {
		err := NewConfigError(base)
		assert.ErrorIs(t, err, base)
	})

	t.Run("input error", func(t *testing.T) {
		err := NewInputError(base)
		assert.ErrorIs(t, err, base)
	})

	t.Run("internal consistency error", func(t *testing.T) {
		err := NewInternalConsistencyError("fillgap", base)
		assert.ErrorIs(t, err, base)
		assert.Contains(t, err.Error(), "fillgap")
	})
}
