package raster

import (
	"image"

	"github.com/samber/lo"
)

// Neighborhood selects which adjacency a scan uses.
type Neighborhood int

const (
	// Neighborhood4 is up/down/left/right.
	Neighborhood4 Neighborhood = iota
	// Neighborhood8 adds the four diagonals.
	Neighborhood8
)

var offsets4 = []image.Point{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

var offsets8 = []image.Point{
	{0, -1}, {0, 1}, {-1, 0}, {1, 0},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

func offsetsFor(n Neighborhood) []image.Point {
	if n == Neighborhood4 {
		return offsets4
	}
	return offsets8
}

// Neighbors4 returns the four orthogonal neighbor coordinates of (x, y)
// in the fixed order [up, down, left, right], matching spec.md §4.3.
func Neighbors4(x, y int) [4]image.Point {
	return [4]image.Point{{x, y - 1}, {x, y + 1}, {x - 1, y}, {x + 1, y}}
}

// Predicate decides whether a cell participates in a component walk.
type Predicate func(c Cell) bool

// SameIndexPredicate returns a predicate matching cells whose display
// index is within tolerance steps of seedIdx (tolerance 0 is exact
// equality; spec.md §4.1 allows a tolerance of <= 1 step for the
// general-purpose components_by_index primitive).
func SameIndexPredicate(seedIdx int8, tolerance int8) Predicate {
	return func(c Cell) bool {
		if c.IsEmpty() {
			return false
		}
		d := c.DisplayIndex() - seedIdx
		if d < 0 {
			d = -d
		}
		return d <= tolerance
	}
}

// NonEmptyPredicate matches any cell carrying an index >= 0.
func NonEmptyPredicate() Predicate {
	return func(c Cell) bool { return !c.IsEmpty() }
}

// ComponentsFrom extracts 8- or 4-neighborhood connected components
// reachable from each point in seeds, where membership requires the
// predicate to hold on the candidate cell. Each seed is visited at most
// once across all returned components (a seed already absorbed by an
// earlier component's walk is skipped). Uses an iterative stack, never
// recursion, per Design Notes.
func (r *IndexRaster) ComponentsFrom(seeds []image.Point, n Neighborhood, pred Predicate) []Region {
	visited := make(map[image.Point]bool, len(seeds))
	offs := offsetsFor(n)
	var regions []Region

	for _, seed := range seeds {
		if visited[seed] {
			continue
		}
		if !pred(r.At(seed.X, seed.Y)) {
			visited[seed] = true
			continue
		}

		var comp []image.Point
		stack := []image.Point{seed}
		visited[seed] = true

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, p)

			for _, o := range offs {
				np := image.Point{X: p.X + o.X, Y: p.Y + o.Y}
				if !r.InBounds(np.X, np.Y) || visited[np] {
					continue
				}
				if pred(r.At(np.X, np.Y)) {
					visited[np] = true
					stack = append(stack, np)
				}
			}
		}

		regions = append(regions, Region{Points: comp})
	}

	return regions
}

// ComponentsByIndex extracts components per spec.md §4.1's
// components_by_index: 8-neighborhood, same-index-within-1 predicate,
// seeded from coords.
func (r *IndexRaster) ComponentsByIndex(coords []image.Point) []Region {
	var regions []Region
	visited := make(map[image.Point]bool, len(coords))
	for _, seed := range coords {
		if visited[seed] {
			continue
		}
		seedCell := r.At(seed.X, seed.Y)
		if seedCell.IsEmpty() {
			visited[seed] = true
			continue
		}
		pred := SameIndexPredicate(seedCell.DisplayIndex(), 1)
		sub := r.ComponentsFrom([]image.Point{seed}, Neighborhood8, pred)
		for _, reg := range sub {
			for _, p := range reg.Points {
				visited[p] = true
			}
		}
		regions = append(regions, sub...)
	}
	return regions
}

// ComponentsNonEmpty extracts components per spec.md §4.1's
// components_nonempty: 8-neighborhood, "ch0 index >= 0" predicate.
func (r *IndexRaster) ComponentsNonEmpty(coords []image.Point) []Region {
	return r.ComponentsFrom(coords, Neighborhood8, NonEmptyPredicate())
}

// ComponentsExact extracts 8-neighborhood components of pixels whose
// display index is exactly layerIdx, seeded from coords. Used by the
// per-layer trust split (spec.md §4.4 Step B) where tolerance-1 matching
// would blur adjacent layers together.
func (r *IndexRaster) ComponentsExact(coords []image.Point, layerIdx int8) []Region {
	pred := SameIndexPredicate(layerIdx, 0)
	return r.ComponentsFrom(coords, Neighborhood8, pred)
}

// FloodOuterBackground performs a 4-neighborhood flood from (0, 0) over
// empty cells, returning a mask of outer-reachable empties. Cells not in
// the mask but still empty are "inner holes" (spec.md §4.1).
func (r *IndexRaster) FloodOuterBackground() map[image.Point]bool {
	mask := make(map[image.Point]bool)
	if !r.At(0, 0).IsEmpty() {
		return mask
	}

	stack := []image.Point{{0, 0}}
	mask[image.Point{0, 0}] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, o := range offsets4 {
			np := image.Point{X: p.X + o.X, Y: p.Y + o.Y}
			if !r.InBounds(np.X, np.Y) || mask[np] {
				continue
			}
			if r.At(np.X, np.Y).IsEmpty() {
				mask[np] = true
				stack = append(stack, np)
			}
		}
	}

	return mask
}

// InnerHoles returns every empty cell within zone that the outer-background
// flood did not reach.
func (r *IndexRaster) InnerHoles(zone Zone) []image.Point {
	outer := r.FloodOuterBackground()
	var holes []image.Point
	zone.ForEach(func(x, y int) {
		p := image.Point{X: x, Y: y}
		if r.At(x, y).IsEmpty() && !outer[p] {
			holes = append(holes, p)
		}
	})
	return holes
}

// UniqueOuterNeighbors returns the set of distinct coordinates adjacent
// (4-neighborhood) to any point in region but not themselves in region.
func UniqueOuterNeighbors(region Region) []image.Point {
	perPoint := lo.Map(region.Points, func(p image.Point, _ int) []image.Point {
		return []image.Point{
			{X: p.X + offsets4[0].X, Y: p.Y + offsets4[0].Y},
			{X: p.X + offsets4[1].X, Y: p.Y + offsets4[1].Y},
			{X: p.X + offsets4[2].X, Y: p.Y + offsets4[2].Y},
			{X: p.X + offsets4[3].X, Y: p.Y + offsets4[3].Y},
		}
	})
	return lo.Without(lo.Union(perPoint...), region.Points...)
}
