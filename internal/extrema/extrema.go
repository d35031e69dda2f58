// Package extrema implements the extremum extractor (spec.md §4.7, C7):
// layer-by-layer immersion growth from the legend's extreme toward its
// base, seeding isolated new components and sealing ones that overgrow,
// then filtering the survivors by area, volume, narrowness, density and
// layer complexity.
package extrema

import (
	"image"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

type peakGroup struct {
	points  map[image.Point]bool
	sealed  bool
	removed bool
}

// Extract runs the immersion growth for one sign over u (the unfolded,
// integrated raster) and returns the regions that survive the attribute
// filter.
func Extract(u *raster.IndexRaster, s Sign, l legend.Legend, th legend.Thresholds, zone raster.Zone) []raster.Region {
	m := raster.NewIndexRaster(u.W, u.H)
	var groups []*peakGroup
	owner := make(map[image.Point]int)

	for _, layer := range s.LayerOrder(l) {
		paintLayer(m, u, zone, layer)
		allowed := func(c raster.Cell) bool {
			return !c.IsEmpty() && s.allowedRange(c.DisplayIndex(), layer)
		}

		growExistingGroups(m, groups, owner, allowed, th.AreaMax)
		seedNewGroups(m, zone, layer, owner, th.AreaMax, &groups)
	}

	var regions []raster.Region
	for _, g := range groups {
		if g.removed {
			continue
		}
		points := sortedPoints(g.points)
		if passesAttributeFilter(u, points, l, th) {
			regions = append(regions, raster.Region{Points: points})
		}
	}

	logrus.Debugf("extrema[%s]: %d candidate groups, %d survive the attribute filter", s, len(groups), len(regions))
	return regions
}

func paintLayer(m, u *raster.IndexRaster, zone raster.Zone, layer int8) {
	zone.ForEach(func(x, y int) {
		if u.IndexAt(x, y) == layer {
			m.Set(x, y, raster.ValidEchoCell(layer))
		}
	})
}

// growExistingGroups extends every unsealed, non-removed group into the
// cells m now allows, sealing groups that would overgrow AreaMax and
// merging groups whose floods collide.
func growExistingGroups(m *raster.IndexRaster, groups []*peakGroup, owner map[image.Point]int, allowed raster.Predicate, areaMax int) {
	for gi, g := range groups {
		if g.sealed || g.removed {
			continue
		}

		seeds := make([]image.Point, 0, len(g.points))
		for p := range g.points {
			seeds = append(seeds, p)
		}
		flooded := m.ComponentsFrom(seeds, raster.Neighborhood8, allowed)

		merged := make(map[image.Point]bool)
		for _, reg := range flooded {
			for _, p := range reg.Points {
				merged[p] = true
			}
		}

		survivor := gi
		for p := range merged {
			if oj, ok := owner[p]; ok && oj != gi && !groups[oj].removed && oj < survivor {
				survivor = oj
			}
		}

		if survivor != gi {
			for p := range g.points {
				groups[survivor].points[p] = true
			}
			for p := range merged {
				groups[survivor].points[p] = true
				owner[p] = survivor
			}
			g.removed = true
			continue
		}

		if len(merged) > areaMax {
			g.sealed = true
			continue
		}

		g.points = merged
		for p := range merged {
			owner[p] = gi
		}
	}
}

// seedNewGroups finds components of freshly-painted, still-unclaimed
// layer pixels and, where no cell of another index already painted into
// m touches them, creates a new peak group for them.
func seedNewGroups(m *raster.IndexRaster, zone raster.Zone, layer int8, owner map[image.Point]int, areaMax int, out *[]*peakGroup) {
	visited := make(map[image.Point]bool)
	var candidates []image.Point
	zone.ForEach(func(x, y int) {
		p := image.Point{X: x, Y: y}
		if m.IndexAt(x, y) == layer && !hasOwner(owner, p) {
			candidates = append(candidates, p)
		}
	})

	for _, seed := range candidates {
		if visited[seed] {
			continue
		}
		comp, isolated := floodIsolated(m, seed, layer, visited)
		for _, p := range comp {
			visited[p] = true
		}
		if !isolated || len(comp) == 0 || len(comp) > areaMax {
			continue
		}

		idx := len(*out)
		points := make(map[image.Point]bool, len(comp))
		for _, p := range comp {
			points[p] = true
			owner[p] = idx
		}
		*out = append(*out, &peakGroup{points: points})
	}
}

func hasOwner(owner map[image.Point]int, p image.Point) bool {
	_, ok := owner[p]
	return ok
}

// floodIsolated grows the 8-neighborhood component of seed restricted to
// cells exactly at layer, reporting whether any cell outside the
// component but non-empty in m carries a different index (meaning the
// component touches previously-processed data rather than standing
// alone).
func floodIsolated(m *raster.IndexRaster, seed image.Point, layer int8, globalVisited map[image.Point]bool) ([]image.Point, bool) {
	visited := map[image.Point]bool{seed: true}
	stack := []image.Point{seed}
	var comp []image.Point
	isolated := true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		comp = append(comp, p)

		for _, o := range offsets8 {
			np := image.Point{X: p.X + o.X, Y: p.Y + o.Y}
			if !m.InBounds(np.X, np.Y) {
				continue
			}
			idx := m.IndexAt(np.X, np.Y)
			if idx < 0 {
				continue
			}
			if idx != layer {
				isolated = false
				continue
			}
			if visited[np] || globalVisited[np] {
				continue
			}
			visited[np] = true
			stack = append(stack, np)
		}
	}

	return comp, isolated
}

func sortedPoints(set map[image.Point]bool) []image.Point {
	points := make([]image.Point, 0, len(set))
	for p := range set {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Y != points[j].Y {
			return points[i].Y < points[j].Y
		}
		return points[i].X < points[j].X
	})
	return points
}
