package meso

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

func testLegend() legend.Legend {
	return legend.Legend{
		{Velocity: -30}, {Velocity: -20}, {Velocity: -10}, {Velocity: -5},
		{Velocity: 5}, {Velocity: 10}, {Velocity: 20}, {Velocity: 30},
	}
}

func TestRadarAngleDeg(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		dx, dy   float64
		expected float64
	}{
		{"due north", 0, -10, 0},
		{"due east", 10, 0, 90},
		{"due south", 0, 10, 180},
		{"due west", -10, 0, 270},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := radarAngleDeg(c.dx, c.dy)
			assert.InDelta(t, c.expected, got, 1e-6)
		})
	}

	t.Run("zero vector returns zero", func(t *testing.T) {
		assert.Equal(t, 0.0, radarAngleDeg(0, 0))
	})
}

func TestWeightedCentroidsPicksExtremeBySign(t *testing.T) {
	t.Parallel()

	l := testLegend()
	u := raster.NewIndexRaster(10, 10)
	u.Set(1, 1, raster.ValidEchoCell(0)) // -30, strongest neg
	u.Set(2, 1, raster.ValidEchoCell(2)) // -10

	regions := []raster.Region{{Points: []image.Point{{1, 1}, {2, 1}}}}
	out := weightedCentroids(u, regions, l, true)

	require.Len(t, out, 1)
	require.NotNil(t, out[0])
	assert.Equal(t, float32(-30), out[0].extremeV)
}

func TestWeightedCentroidsEmptyRegionIsNil(t *testing.T) {
	t.Parallel()

	l := testLegend()
	u := raster.NewIndexRaster(10, 10)
	regions := []raster.Region{{Points: []image.Point{{5, 5}}}}
	out := weightedCentroids(u, regions, l, true)

	require.Len(t, out, 1)
	assert.Nil(t, out[0], "a region whose only pixel is empty carries zero weight")
}

func TestDiskValidEchoRatioOK(t *testing.T) {
	t.Parallel()

	u := raster.NewIndexRaster(10, 10)
	for y := 3; y <= 7; y++ {
		for x := 3; x <= 7; x++ {
			u.Set(x, y, raster.ValidEchoCell(0))
		}
	}

	assert.True(t, diskValidEchoRatioOK(u, image.Point{X: 5, Y: 5}, 2, 0.868))
}

func TestEvaluatePairRejectsDistantCentroids(t *testing.T) {
	t.Parallel()

	u := raster.NewIndexRaster(20, 20)
	th := legend.DefaultThresholds()

	neg := centroid{center: image.Point{X: 0, Y: 0}, extremeV: -30}
	pos := centroid{center: image.Point{X: 19, Y: 19}, extremeV: 30}

	_, ok := evaluatePair(u, neg, pos, th, image.Point{X: 10, Y: 10})
	assert.False(t, ok, "centroids farther apart than CenterDistance must not pair")
}

func TestEvaluatePairRejectsWeakShear(t *testing.T) {
	t.Parallel()

	u := raster.NewIndexRaster(20, 20)
	for y := 4; y <= 6; y++ {
		for x := 4; x <= 6; x++ {
			u.Set(x, y, raster.ValidEchoCell(0))
		}
	}
	th := legend.DefaultThresholds()

	neg := centroid{center: image.Point{X: 4, Y: 5}, extremeV: -2}
	pos := centroid{center: image.Point{X: 6, Y: 5}, extremeV: 2}

	_, ok := evaluatePair(u, neg, pos, th, image.Point{X: 10, Y: 10})
	assert.False(t, ok, "shear below MesoRotation must not pair")
}

func TestEvaluatePairAcceptsStrongQualifyingPair(t *testing.T) {
	t.Parallel()

	u := raster.NewIndexRaster(20, 20)
	for y := 2; y <= 8; y++ {
		for x := 2; x <= 8; x++ {
			u.Set(x, y, raster.ValidEchoCell(0))
		}
	}
	th := legend.DefaultThresholds()

	neg := centroid{center: image.Point{X: 4, Y: 5}, extremeV: -20}
	pos := centroid{center: image.Point{X: 6, Y: 5}, extremeV: 20}

	rec, ok := evaluatePair(u, neg, pos, th, image.Point{X: 5, Y: 5})
	require.True(t, ok)
	assert.Equal(t, image.Point{X: 5, Y: 5}, rec.LogicCenter)
	assert.Equal(t, float32(20), rec.Shear)
}

func TestPairAssignsSequentialStormNumbers(t *testing.T) {
	t.Parallel()

	// Fill solidly with valid echo so every disk-valid-echo-ratio check
	// passes, then drop single-pixel neg/pos seeds at two well-separated
	// locations: each should independently pair into its own storm.
	u := raster.NewIndexRaster(30, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 30; x++ {
			u.Set(x, y, raster.ValidEchoCell(0))
		}
	}
	u.Set(5, 5, raster.ValidEchoCell(0))
	u.Set(7, 5, raster.ValidEchoCell(7))
	u.Set(20, 5, raster.ValidEchoCell(0))
	u.Set(22, 5, raster.ValidEchoCell(7))

	l := testLegend()
	th := legend.DefaultThresholds()

	negRegions := []raster.Region{
		{Points: []image.Point{{5, 5}}},
		{Points: []image.Point{{20, 5}}},
	}
	posRegions := []raster.Region{
		{Points: []image.Point{{7, 5}}},
		{Points: []image.Point{{22, 5}}},
	}

	records := Pair(u, negRegions, posRegions, l, th, image.Point{X: 10, Y: 5})
	require.Len(t, records, 2, "each well-separated neg/pos seed pair should pair into its own storm")
	for i, rec := range records {
		assert.Equal(t, uint32(i), rec.StormNum)
	}
}

func TestRadarAngleDegMirroringIsContinuous(t *testing.T) {
	t.Parallel()

	// Angle should track the compass bearing exactly at each sample
	// point, never jumping backward across the east/west boundary.
	for deg := 0; deg < 360; deg += 15 {
		rad := float64(deg) * math.Pi / 180
		dx := math.Sin(rad)
		dy := -math.Cos(rad)
		got := radarAngleDeg(dx, dy)
		assert.InDelta(t, float64(deg), got, 1e-6)
	}
}
