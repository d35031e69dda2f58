// Package unfold reclassifies outer-ring layers that are actually
// velocity-aliased data from the opposite sign (spec.md §4.6, C6).
package unfold

import (
	"image"

	"github.com/sirupsen/logrus"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

// Unfold returns a copy of g with outer-layer components rewritten to
// their unfolded target index wherever their surround is overwhelmingly
// the opposite sign.
func Unfold(g *raster.IndexRaster, l legend.Legend, th legend.Thresholds, zone raster.Zone) *raster.IndexRaster {
	u := g.Clone()
	half := int8(l.Half())

	negFlips := rewriteOuterRing(u, zone, outerLayers(l, th, true), 0, func(idx int8) bool { return idx < half }, th)
	posFlips := rewriteOuterRing(u, zone, outerLayers(l, th, false), int8(len(l)-1), func(idx int8) bool { return idx >= half }, th)

	logrus.Debugf("unfold: %d neg-side, %d pos-side outer groups reclassified", negFlips, posFlips)
	return u
}

// outerLayers returns the FOLDED_LAYER_NUM indices nearest the legend's
// positive extreme (neg=true, since a folded strongly-negative value
// displays near the positive end) or nearest the negative extreme
// (neg=false).
func outerLayers(l legend.Legend, th legend.Thresholds, neg bool) map[int8]bool {
	n := int(th.FoldedLayerNum)
	layers := make(map[int8]bool, n)
	if neg {
		for i := 0; i < n; i++ {
			idx := len(l) - 1 - i
			if idx >= 0 {
				layers[int8(idx)] = true
			}
		}
		return layers
	}
	for i := 0; i < n; i++ {
		if i < len(l) {
			layers[int8(i)] = true
		}
	}
	return layers
}

func rewriteOuterRing(u *raster.IndexRaster, zone raster.Zone, candidateLayers map[int8]bool, target int8, isOppositeHalf func(int8) bool, th legend.Thresholds) int {
	var seeds []image.Point
	zone.ForEach(func(x, y int) {
		if candidateLayers[u.IndexAt(x, y)] {
			seeds = append(seeds, image.Point{X: x, Y: y})
		}
	})

	pred := func(c raster.Cell) bool { return candidateLayers[c.DisplayIndex()] }
	components := u.ComponentsFrom(seeds, raster.Neighborhood8, pred)

	flips := 0
	for _, comp := range components {
		outer := raster.UniqueOuterNeighbors(comp)
		all := len(outer)
		valid, opposite := 0, 0
		for _, p := range outer {
			idx := u.IndexAt(p.X, p.Y)
			if idx < 0 {
				continue
			}
			valid++
			if isOppositeHalf(idx) {
				opposite++
			}
		}
		if valid == 0 || all == 0 {
			continue
		}
		if float64(opposite)/float64(valid) >= th.OppositeCompose && float64(opposite)/float64(all) >= th.OppositeSurround {
			for _, p := range comp.Points {
				u.Set(p.X, p.Y, raster.ValidEchoCell(target))
			}
			flips++
		}
	}
	return flips
}
