package denoise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

func eightEntryLegend() legend.Legend {
	return make(legend.Legend, 8)
}

func TestSignBaseAndBelongs(t *testing.T) {
	t.Parallel()

	l := eightEntryLegend()

	assert.Equal(t, int8(3), Neg.Base(l))
	assert.Equal(t, int8(4), Pos.Base(l))

	assert.True(t, Neg.Belongs(0, l))
	assert.True(t, Neg.Belongs(3, l))
	assert.False(t, Neg.Belongs(4, l))
	assert.False(t, Neg.Belongs(-1, l))

	assert.True(t, Pos.Belongs(4, l))
	assert.True(t, Pos.Belongs(7, l))
	assert.False(t, Pos.Belongs(3, l))
}

func TestSignLayerOrder(t *testing.T) {
	t.Parallel()

	l := eightEntryLegend()
	assert.Equal(t, []int8{3, 2, 1, 0}, Neg.LayerOrder(l))
	assert.Equal(t, []int8{4, 5, 6, 7}, Pos.LayerOrder(l))
}

func TestSignString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "neg", Neg.String())
	assert.Equal(t, "pos", Pos.String())
}

func TestDenoiseSmallIsolatedGroupIsPruned(t *testing.T) {
	t.Parallel()

	l := eightEntryLegend()
	th := legend.DefaultThresholds()
	th.SmallGroup = 35

	ir := raster.NewIndexRaster(10, 10)
	// A tiny 3-pixel negative-sign echo, far smaller than SmallGroup,
	// isolated from everything else: should be pruned entirely.
	ir.Set(2, 2, raster.ValidEchoCell(0))
	ir.Set(2, 3, raster.ValidEchoCell(0))
	ir.Set(3, 2, raster.ValidEchoCell(0))

	zone := raster.Zone{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	out := Denoise(ir, Neg, l, th, zone)

	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			assert.True(t, out.At(x, y).IsEmpty(), "pixel (%d,%d) should have been pruned", x, y)
		}
	}
}

// TestLayerTrustSplitResetsInnerFillReferencePerLayer guards against
// layerTrustSplit's inner-hole reference raster leaking trusted pixels
// across layers. A "U" shaped trusted group on layer 3 (left, right, and
// bottom sides, open at the top) encloses nothing by itself. A separate
// trusted group on layer 2 closes the missing top side. If the
// inner-fill reference were shared across both layer iterations, the
// interior would read as enclosed once layer 2's group is painted in,
// and get mislabeled with layer 2's index — even though neither layer's
// own shape alone encloses it. The U starts at row 1 so that the corner
// (0,0), where the outer-background flood starts, stays empty.
func TestLayerTrustSplitResetsInnerFillReferencePerLayer(t *testing.T) {
	t.Parallel()

	l := eightEntryLegend()
	th := legend.DefaultThresholds()
	th.SmallGroup = 2

	ir := raster.NewIndexRaster(5, 5)
	for y := 1; y < 5; y++ {
		ir.Set(0, y, raster.ValidEchoCell(3))
		ir.Set(4, y, raster.ValidEchoCell(3))
	}
	for x := 0; x < 5; x++ {
		ir.Set(x, 4, raster.ValidEchoCell(3))
	}
	ir.Set(1, 0, raster.ValidEchoCell(2))
	ir.Set(2, 0, raster.ValidEchoCell(2))
	ir.Set(3, 0, raster.ValidEchoCell(2))

	d := raster.NewIndexRaster(5, 5)
	zone := raster.Zone{MinX: 0, MinY: 0, MaxX: 5, MaxY: 5}
	layerTrustSplit(ir, d, Neg, l, th, zone)

	for y := 1; y <= 3; y++ {
		for x := 1; x <= 3; x++ {
			assert.True(t, d.At(x, y).IsEmpty(), "interior pixel (%d,%d) must not be filled by a hole neither layer's own shape encloses", x, y)
		}
	}
}

func TestDenoiseLargeTrustedGroupSurvives(t *testing.T) {
	t.Parallel()

	l := eightEntryLegend()
	th := legend.DefaultThresholds()
	th.SmallGroup = 4

	ir := raster.NewIndexRaster(10, 10)
	require.LessOrEqual(t, th.SmallGroup, 9)
	for y := 1; y < 4; y++ {
		for x := 1; x < 4; x++ {
			ir.Set(x, y, raster.ValidEchoCell(3))
		}
	}

	zone := raster.Zone{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	out := Denoise(ir, Neg, l, th, zone)

	assert.False(t, out.At(2, 2).IsEmpty(), "a group at/above SmallGroup size should survive trust split")
}
