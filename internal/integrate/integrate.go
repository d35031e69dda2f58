// Package integrate merges the two per-sign denoised rasters into one,
// resolving pixels where both signs produced a value (spec.md §4.5, C5).
package integrate

import (
	"image"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

// Integrate merges neg and pos into one raster over zone.
func Integrate(neg, pos *raster.IndexRaster, l legend.Legend, th legend.Thresholds, zone raster.Zone) *raster.IndexRaster {
	g := raster.NewIndexRaster(neg.W, neg.H)
	crossedSeeds := make([]image.Point, 0)

	zone.ForEach(func(x, y int) {
		n, p := neg.IndexAt(x, y), pos.IndexAt(x, y)
		switch {
		case n >= 0 && p < 0:
			g.Set(x, y, neg.At(x, y))
		case n < 0 && p >= 0:
			g.Set(x, y, pos.At(x, y))
		case n >= 0 && p >= 0:
			crossedSeeds = append(crossedSeeds, image.Point{X: x, Y: y})
		}
	})

	components := componentsOverCrossed(crossedSeeds, neg, pos)

	folded, flipped := 0, 0
	for _, c := range components {
		owner, other := resolveOwner(c, neg, pos, th.CrossedIncludeRatio)
		paint(g, c, owner)

		if isFolded(c, neg, pos, th.FoldedGap) {
			extreme := oppositeExtreme(owner, neg, l)
			paintBaseFill(g, c, extreme)
			folded++
			continue
		}

		if len(c.Points) < th.SmallGroup && outerShearExceeds(c, g, th.CrossedSmallSurroundGap) {
			paint(g, c, other)
			flipped++
		}
	}

	logrus.Debugf("integrate: %d crossed components (%d folded, %d flipped)", len(components), folded, flipped)
	return g
}

// componentsOverCrossed groups the crossed seeds into 8-neighborhood
// connected components using a synthetic marker raster so the shared
// raster.ComponentsFrom machinery can be reused.
func componentsOverCrossed(seeds []image.Point, neg, pos *raster.IndexRaster) []raster.Region {
	marker := raster.NewIndexRaster(neg.W, neg.H)
	for _, p := range seeds {
		marker.Set(p.X, p.Y, raster.ValidEchoCell(0))
	}
	pred := func(c raster.Cell) bool { return c.IsValidEcho() }
	return marker.ComponentsFrom(seeds, raster.Neighborhood8, pred)
}

// resolveOwner implements spec.md §4.5 step 3a/3b.
func resolveOwner(c raster.Region, neg, pos *raster.IndexRaster, includeRatio float64) (owner, other *raster.IndexRaster) {
	outer := raster.UniqueOuterNeighbors(c)
	total := 0
	underNeg := 0
	for _, p := range outer {
		total++
		if neg.IndexAt(p.X, p.Y) >= 0 {
			underNeg++
		}
	}
	rhoNeg := 0.0
	if total > 0 {
		rhoNeg = float64(underNeg) / float64(total)
	}
	if rhoNeg >= includeRatio {
		return neg, pos
	}
	return pos, neg
}

func paint(g *raster.IndexRaster, c raster.Region, source *raster.IndexRaster) {
	for _, p := range c.Points {
		g.Set(p.X, p.Y, source.At(p.X, p.Y))
	}
}

func paintBaseFill(g *raster.IndexRaster, c raster.Region, idx int8) {
	for _, p := range c.Points {
		g.Set(p.X, p.Y, raster.BaseFillCell(idx))
	}
}

// isFolded implements spec.md §4.5 step 3c's folding test.
func isFolded(c raster.Region, neg, pos *raster.IndexRaster, foldedGap float64) bool {
	if len(c.Points) == 0 {
		return false
	}
	sum := 0
	for _, p := range c.Points {
		sum += int(pos.IndexAt(p.X, p.Y)) - int(neg.IndexAt(p.X, p.Y))
	}
	avg := float64(sum) / float64(len(c.Points))
	return avg >= foldedGap
}

// oppositeExtreme returns the extreme legend index of the sign opposite
// to owner: 0 if owner is pos (opposite is neg), len-1 if owner is neg
// (opposite is pos).
func oppositeExtreme(owner, neg *raster.IndexRaster, l legend.Legend) int8 {
	if owner == neg {
		return int8(len(l) - 1)
	}
	return 0
}

// outerShearExceeds implements spec.md §4.5 step 3d's outer-shear test.
func outerShearExceeds(c raster.Region, g *raster.IndexRaster, gapThreshold float64) bool {
	inC := make(map[image.Point]bool, len(c.Points))
	for _, p := range c.Points {
		inC[p] = true
	}

	var outerScope []image.Point
	for _, p := range c.Points {
		for _, n := range raster.Neighbors4(p.X, p.Y) {
			if !inC[n] {
				outerScope = append(outerScope, p)
				break
			}
		}
	}
	if len(outerScope) == 0 {
		return false
	}

	total := 0.0
	for _, q := range outerScope {
		own := g.IndexAt(q.X, q.Y)
		sum, n := 0.0, 0
		for _, nb := range raster.Neighbors4(q.X, q.Y) {
			if inC[nb] {
				continue
			}
			v := g.IndexAt(nb.X, nb.Y)
			if v < 0 {
				continue
			}
			sum += math.Abs(float64(own) - float64(v))
			n++
		}
		if n > 0 {
			total += sum / float64(n)
		}
	}

	avgShear := total / float64(len(outerScope))
	return avgShear > gapThreshold
}
