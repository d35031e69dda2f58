package unfold

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

func eightEntryLegend() legend.Legend { return make(legend.Legend, 8) }

func zone6() raster.Zone { return raster.Zone{MinX: 0, MinY: 0, MaxX: 6, MaxY: 6} }

func TestUnfoldDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	g := raster.NewIndexRaster(6, 6)
	g.Set(2, 2, raster.ValidEchoCell(0))

	_ = Unfold(g, eightEntryLegend(), legend.DefaultThresholds(), zone6())
	assert.Equal(t, int8(0), g.IndexAt(2, 2), "Unfold must operate on a clone")
}

func TestUnfoldReclassifiesNegOuterLayerSurroundedByPositiveEcho(t *testing.T) {
	t.Parallel()

	l := eightEntryLegend()
	th := legend.DefaultThresholds()

	g := raster.NewIndexRaster(6, 6)
	// A pixel at index 0 (a pos-side outer-layer candidate, nearest the
	// legend's negative extreme) surrounded entirely by pos-half echo
	// is the overwhelmingly-opposite-sign case: it should reclassify to
	// the legend's positive extreme. The surround uses the pos base index
	// 4, which is not itself a neg-side outer-layer candidate.
	g.Set(2, 2, raster.ValidEchoCell(0))
	for _, p := range raster.Neighbors4(2, 2) {
		g.Set(p.X, p.Y, raster.ValidEchoCell(4))
	}

	out := Unfold(g, l, th, zone6())
	assert.Equal(t, int8(len(l)-1), out.IndexAt(2, 2))
}

func TestOuterLayersRespectsFoldedLayerNum(t *testing.T) {
	t.Parallel()

	l := eightEntryLegend()

	t.Run("default width is three", func(t *testing.T) {
		th := legend.DefaultThresholds()
		assert.Equal(t, map[int8]bool{0: true, 1: true, 2: true}, outerLayers(l, th, false))
		assert.Equal(t, map[int8]bool{7: true, 6: true, 5: true}, outerLayers(l, th, true))
	})

	t.Run("narrowed width is honored", func(t *testing.T) {
		th := legend.DefaultThresholds()
		th.FoldedLayerNum = 1
		assert.Equal(t, map[int8]bool{0: true}, outerLayers(l, th, false))
		assert.Equal(t, map[int8]bool{7: true}, outerLayers(l, th, true))
	})
}

func TestUnfoldHonorsNarrowedFoldedLayerNum(t *testing.T) {
	t.Parallel()

	l := eightEntryLegend()
	th := legend.DefaultThresholds()
	th.FoldedLayerNum = 1

	g := raster.NewIndexRaster(6, 6)
	// Index 1 would be a pos-side outer-layer candidate under the
	// default width of 3, but FoldedLayerNum=1 narrows the candidate set
	// to {0} only, so this pixel must be left untouched even though its
	// surround is overwhelmingly the opposite sign.
	g.Set(2, 2, raster.ValidEchoCell(1))
	for _, p := range raster.Neighbors4(2, 2) {
		g.Set(p.X, p.Y, raster.ValidEchoCell(4))
	}

	out := Unfold(g, l, th, zone6())
	assert.Equal(t, int8(1), out.IndexAt(2, 2))
}

func TestUnfoldLeavesIsolatedCandidateUnchangedWithoutOppositeMajority(t *testing.T) {
	t.Parallel()

	l := eightEntryLegend()
	th := legend.DefaultThresholds()

	g := raster.NewIndexRaster(6, 6)
	g.Set(2, 2, raster.ValidEchoCell(7))
	// Surrounded by same-half (pos) echo: no opposite majority, no flip.
	for _, p := range raster.Neighbors4(2, 2) {
		g.Set(p.X, p.Y, raster.ValidEchoCell(5))
	}

	out := Unfold(g, l, th, zone6())
	assert.Equal(t, int8(7), out.IndexAt(2, 2))
}
