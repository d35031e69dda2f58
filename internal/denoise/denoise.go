// Package denoise implements the per-sign denoiser (spec.md §4.4, C4):
// a base-echo substrate refined by per-layer trust filtering and
// small-group surround analysis.
package denoise

import (
	"image"
	"math"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

type smallGroup struct {
	region raster.Region
	layer  int8
}

// Denoise produces the denoised single-sign raster for s out of ir (the
// gap-filled, both-signs raster).
func Denoise(ir *raster.IndexRaster, s Sign, l legend.Legend, th legend.Thresholds, zone raster.Zone) *raster.IndexRaster {
	base := s.Base(l)

	d := baseEchoSubstrate(ir, s, l, th, zone, base)
	small := layerTrustSplit(ir, d, s, l, th, zone)
	smallGroupSurroundAnalysis(d, small, s, th, base)
	isolatedGroupPrune(d, th, zone, base)
	baseEchoFillInference(d, th, zone)
	baseEchoRemoval(d, zone)

	logrus.Debugf("denoise[%s]: %d small groups processed", s, len(small))
	return d
}

// baseEchoSubstrate implements spec.md §4.4 Step A.
func baseEchoSubstrate(ir *raster.IndexRaster, s Sign, l legend.Legend, th legend.Thresholds, zone raster.Zone, base int8) *raster.IndexRaster {
	d := raster.NewIndexRaster(ir.W, ir.H)

	zone.ForEach(func(x, y int) {
		idx := ir.IndexAt(x, y)
		if s.Belongs(idx, l) {
			d.Set(x, y, raster.BaseEchoCell(base))
		}
	})

	for _, p := range d.InnerHoles(zone) {
		d.Set(p.X, p.Y, raster.BaseEchoCell(base))
	}

	baseCoords := collectWhere(d, zone, func(c raster.Cell) bool { return c.IsBaseEcho() })
	for _, region := range d.ComponentsFrom(baseCoords, raster.Neighborhood8, func(c raster.Cell) bool { return c.IsBaseEcho() }) {
		if len(region.Points) < th.SmallGroup {
			clearRegion(d, region)
		}
	}

	return d
}

// layerTrustSplit implements spec.md §4.4 Step B, returning every
// small (untrusted) group for Step C to resolve.
func layerTrustSplit(ir, d *raster.IndexRaster, s Sign, l legend.Legend, th legend.Thresholds, zone raster.Zone) []smallGroup {
	var small []smallGroup

	for _, layer := range s.LayerOrder(l) {
		ref := raster.NewIndexRaster(ir.W, ir.H)
		coords := collectWhere(ir, zone, func(c raster.Cell) bool { return c.DisplayIndex() == layer })
		components := ir.ComponentsExact(coords, layer)

		for _, region := range components {
			if len(region.Points) >= th.SmallGroup {
				for _, p := range region.Points {
					d.Set(p.X, p.Y, raster.ValidEchoCell(layer))
					ref.Set(p.X, p.Y, raster.ValidEchoCell(layer))
				}
			} else {
				small = append(small, smallGroup{region: region, layer: layer})
			}
		}

		for _, p := range ref.InnerHoles(zone) {
			d.Set(p.X, p.Y, raster.ValidEchoCell(layer))
			ref.Set(p.X, p.Y, raster.ValidEchoCell(layer))
		}
	}

	return small
}

// smallGroupSurroundAnalysis implements spec.md §4.4 Step C.
func smallGroupSurroundAnalysis(d *raster.IndexRaster, groups []smallGroup, s Sign, th legend.Thresholds, base int8) {
	for _, g := range groups {
		if len(g.region.Points) == 0 {
			continue
		}
		anchor := g.region.Points[0]
		below := d.At(anchor.X, anchor.Y).ValidIndex()

		switch {
		case below >= 0:
			if s.gapTest(g.layer, below, th.LayerGap) {
				paintRegion(d, g.region, g.layer)
			}
		case d.At(anchor.X, anchor.Y).IsBaseEcho():
			allSurround, validSurround := surroundSplit(d, g.region)
			if len(allSurround) > 0 && float64(len(validSurround))/float64(len(allSurround)) >= th.ValidSurroundRatio {
				a := meanIndices(d, validSurround)
				if math.Abs(float64(g.layer)-a) <= th.LayerGap {
					paintRegion(d, g.region, g.layer)
				} else {
					paintRegion(d, g.region, int8(math.Round(a)))
				}
			} else if math.Abs(float64(g.layer)-float64(base)) <= th.LayerGap {
				paintRegion(d, g.region, g.layer)
			}
		default:
			// empty below and not base echo: leave the group unpainted.
		}
	}
}

// surroundSplit returns (all non-empty-or-not outer neighbors,
// valid-only outer neighbors) per spec.md §4.4 Step C's base-echo
// branch: all_surround is every unique outer 4-neighbor, valid_surround
// is the subset with a non-negative ch1.
func surroundSplit(d *raster.IndexRaster, region raster.Region) ([]image.Point, []image.Point) {
	outer := raster.UniqueOuterNeighbors(region)
	valid := lo.Filter(outer, func(p image.Point, _ int) bool {
		return d.At(p.X, p.Y).ValidIndex() >= 0
	})
	return outer, valid
}

func meanIndices(d *raster.IndexRaster, points []image.Point) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0
	for _, p := range points {
		sum += int(d.At(p.X, p.Y).ValidIndex())
	}
	return float64(sum) / float64(len(points))
}

// isolatedGroupPrune implements spec.md §4.4 Step D.
func isolatedGroupPrune(d *raster.IndexRaster, th legend.Thresholds, zone raster.Zone, base int8) {
	coords := collectWhere(d, zone, func(c raster.Cell) bool { return c.IsValidEcho() })
	for _, region := range d.ComponentsFrom(coords, raster.Neighborhood8, func(c raster.Cell) bool { return c.IsValidEcho() }) {
		if len(region.Points) < th.SmallGroup {
			clearRegion(d, region)
		}
	}

	for _, p := range d.InnerHoles(zone) {
		d.Set(p.X, p.Y, raster.BaseEchoCell(base))
	}
}

// baseEchoFillInference implements spec.md §4.4 Step E.
func baseEchoFillInference(d *raster.IndexRaster, th legend.Thresholds, zone raster.Zone) {
	coords := collectWhere(d, zone, func(c raster.Cell) bool { return c.IsBaseEcho() })
	for _, region := range d.ComponentsFrom(coords, raster.Neighborhood8, func(c raster.Cell) bool { return c.IsBaseEcho() }) {
		allSurround, validIndices := baseEchoSurroundSplit(d, region)
		if len(allSurround) == 0 {
			continue
		}
		if float64(len(validIndices))/float64(len(allSurround)) >= th.BaseEchoSurroundRatio {
			a := meanIndices(d, validIndices)
			paintBaseFill(d, region, int8(math.Round(a)))
		}
	}
}

func baseEchoSurroundSplit(d *raster.IndexRaster, region raster.Region) ([]image.Point, []image.Point) {
	outer := raster.UniqueOuterNeighbors(region)
	nonBase := lo.Filter(outer, func(p image.Point, _ int) bool {
		return !d.At(p.X, p.Y).IsBaseEcho()
	})
	valid := lo.Filter(nonBase, func(p image.Point, _ int) bool {
		return d.At(p.X, p.Y).DisplayIndex() >= 0
	})
	return nonBase, valid
}

// baseEchoRemoval implements spec.md §4.4 Step F.
func baseEchoRemoval(d *raster.IndexRaster, zone raster.Zone) {
	zone.ForEach(func(x, y int) {
		c := d.At(x, y)
		if c.IsEmpty() {
			return
		}
		if c.Valid != c.Reserved {
			d.Set(x, y, raster.EmptyCell())
		}
	})
}

func collectWhere(r *raster.IndexRaster, zone raster.Zone, pred func(raster.Cell) bool) []image.Point {
	var out []image.Point
	zone.ForEach(func(x, y int) {
		if pred(r.At(x, y)) {
			out = append(out, image.Point{X: x, Y: y})
		}
	})
	return out
}

func clearRegion(r *raster.IndexRaster, region raster.Region) {
	for _, p := range region.Points {
		r.Set(p.X, p.Y, raster.EmptyCell())
	}
}

func paintRegion(r *raster.IndexRaster, region raster.Region, idx int8) {
	for _, p := range region.Points {
		r.Set(p.X, p.Y, raster.ValidEchoCell(idx))
	}
}

func paintBaseFill(r *raster.IndexRaster, region raster.Region, idx int8) {
	for _, p := range region.Points {
		r.Set(p.X, p.Y, raster.BaseFillCell(idx))
	}
}
