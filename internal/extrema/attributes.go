package extrema

import (
	"image"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

var offsets8 = [8]image.Point{
	{0, -1}, {0, 1}, {-1, 0}, {1, 0},
	{-1, -1}, {1, -1}, {-1, 1}, {1, 1},
}

// avgVolume implements spec.md §4.7's avg_volume attribute: the mean
// depth-below-the-extremum of every pixel in the region.
func avgVolume(u *raster.IndexRaster, points []image.Point, half int) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0
	for _, p := range points {
		sum += Depth(u.IndexAt(p.X, p.Y), half)
	}
	return float64(sum) / float64(len(points))
}

// perimeter8 returns the count of distinct coordinates 8-adjacent to the
// region but not themselves members of it.
func perimeter8(points []image.Point) int {
	in := make(map[image.Point]bool, len(points))
	for _, p := range points {
		in[p] = true
	}
	seen := make(map[image.Point]bool)
	count := 0
	for _, p := range points {
		for _, o := range offsets8 {
			np := image.Point{X: p.X + o.X, Y: p.Y + o.Y}
			if in[np] || seen[np] {
				continue
			}
			seen[np] = true
			count++
		}
	}
	return count
}

// layerComplexity implements spec.md §4.7's layer-complexity attribute:
// partition the region's pixels into buckets by display index, count the
// 8-neighborhood connected components within each non-empty bucket, and
// average that count over the buckets.
func layerComplexity(u *raster.IndexRaster, points []image.Point) float64 {
	byLayer := make(map[int8][]image.Point)
	for _, p := range points {
		idx := u.IndexAt(p.X, p.Y)
		byLayer[idx] = append(byLayer[idx], p)
	}
	if len(byLayer) == 0 {
		return 0
	}

	total := 0
	for _, bucket := range byLayer {
		total += countComponents8(bucket)
	}
	return float64(total) / float64(len(byLayer))
}

// countComponents8 counts 8-neighborhood connected components within an
// arbitrary coordinate set, independent of raster contents.
func countComponents8(points []image.Point) int {
	in := make(map[image.Point]bool, len(points))
	for _, p := range points {
		in[p] = true
	}
	visited := make(map[image.Point]bool, len(points))
	count := 0
	for _, seed := range points {
		if visited[seed] {
			continue
		}
		count++
		stack := []image.Point{seed}
		visited[seed] = true
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, o := range offsets8 {
				np := image.Point{X: p.X + o.X, Y: p.Y + o.Y}
				if in[np] && !visited[np] {
					visited[np] = true
					stack = append(stack, np)
				}
			}
		}
	}
	return count
}

// passesAttributeFilter implements spec.md §4.7's final candidate filter.
func passesAttributeFilter(u *raster.IndexRaster, points []image.Point, l legend.Legend, th legend.Thresholds) bool {
	area := len(points)
	if area < th.AreaMin || area > th.AreaMax {
		return false
	}
	if avgVolume(u, points, l.Half()) < th.AvgVolumeMin {
		return false
	}
	if narrowness(points) > th.NarrowMax {
		return false
	}
	perim := perimeter8(points)
	density := float64(perim*perim) / float64(area)
	if density > th.DensityMax {
		return false
	}
	if layerComplexity(u, points) > th.LayerGroupMax {
		return false
	}
	return true
}
