package integrate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

func eightEntryLegend() legend.Legend { return make(legend.Legend, 8) }

func zone5() raster.Zone { return raster.Zone{MinX: 0, MinY: 0, MaxX: 5, MaxY: 5} }

func TestIntegrateNonCrossedPixelsPassThrough(t *testing.T) {
	t.Parallel()

	neg := raster.NewIndexRaster(5, 5)
	pos := raster.NewIndexRaster(5, 5)
	neg.Set(1, 1, raster.ValidEchoCell(2))
	pos.Set(3, 3, raster.ValidEchoCell(5))

	out := Integrate(neg, pos, eightEntryLegend(), legend.DefaultThresholds(), zone5())
	assert.Equal(t, int8(2), out.IndexAt(1, 1))
	assert.Equal(t, int8(5), out.IndexAt(3, 3))
	assert.True(t, out.At(0, 0).IsEmpty())
}

func TestIntegrateCrossedPixelResolvesToDominantSign(t *testing.T) {
	t.Parallel()

	neg := raster.NewIndexRaster(5, 5)
	pos := raster.NewIndexRaster(5, 5)

	// A single crossed pixel at (2,2), surrounded on all four sides by
	// neg echo only: resolveOwner's outer-neighbor vote should pick neg.
	neg.Set(2, 2, raster.ValidEchoCell(1))
	pos.Set(2, 2, raster.ValidEchoCell(6))
	for _, p := range raster.Neighbors4(2, 2) {
		neg.Set(p.X, p.Y, raster.ValidEchoCell(1))
	}

	th := legend.DefaultThresholds()
	out := Integrate(neg, pos, eightEntryLegend(), th, zone5())
	assert.Equal(t, int8(1), out.IndexAt(2, 2))
}

func TestIntegrateFoldedCrossedGroupPaintsOppositeExtreme(t *testing.T) {
	t.Parallel()

	neg := raster.NewIndexRaster(5, 5)
	pos := raster.NewIndexRaster(5, 5)

	// pos - neg average must reach FoldedGap (default 6.5) to trigger
	// folding.
	neg.Set(2, 2, raster.ValidEchoCell(0))
	pos.Set(2, 2, raster.ValidEchoCell(7))
	for _, p := range raster.Neighbors4(2, 2) {
		pos.Set(p.X, p.Y, raster.ValidEchoCell(7))
	}

	l := eightEntryLegend()
	th := legend.DefaultThresholds()
	out := Integrate(neg, pos, l, th, zone5())

	assert.True(t, out.At(2, 2).IsBaseFill())
	// Outer neighbors of the crossed component carry no neg echo, so
	// resolveOwner picks pos as owner; the folded fill paints the
	// opposite (neg) extreme, index 0.
	assert.Equal(t, int8(0), out.IndexAt(2, 2))
}
