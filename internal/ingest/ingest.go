// Package ingest turns a rendered RGB radar velocity image into the
// canonical legend-index raster (spec.md §4.2, C2).
package ingest

import (
	"image"
	"image/color"

	"github.com/sirupsen/logrus"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

// chebyshevTolerance is the per-channel max-distance match window
// spec.md §4.2 specifies for legend color lookup.
const chebyshevTolerance = 10

// basemapBoundaryThreshold marks a basemap pixel as boundary cover when
// its displayed (ch0-equivalent) channel exceeds this value.
const basemapBoundaryThreshold = 245

// Ingest quantizes rgb into an IndexRaster by legend-color lookup over
// cfg.RadarZone: the first entry within the Chebyshev tolerance wins,
// even if a later entry is closer. If basemap is non-nil, any pixel the
// basemap marks as boundary cover is left empty without being matched.
func Ingest(rgb image.Image, cfg legend.Config, basemap image.Image) (*raster.IndexRaster, error) {
	if err := cfg.Legend.Validate(); err != nil {
		return nil, err
	}

	out := raster.NewIndexRaster(cfg.ImageSize.X, cfg.ImageSize.Y)
	zone := cfg.Zone()

	matched := 0
	total := 0
	zone.ForEach(func(x, y int) {
		total++

		if basemap != nil && isBoundaryCover(basemap, x, y) {
			return
		}

		r32, g32, b32, _ := rgb.At(x, y).RGBA()
		r, g, b := uint8(r32>>8), uint8(g32>>8), uint8(b32>>8)

		idx, ok := matchLegendIndex(cfg.Legend, r, g, b)
		if !ok {
			return
		}
		matched++
		out.Set(x, y, raster.ValidEchoCell(idx))
	})

	logrus.Debugf("ingest: matched %d/%d zone pixels against %d legend entries", matched, total, len(cfg.Legend))
	return out, nil
}

func isBoundaryCover(basemap image.Image, x, y int) bool {
	bounds := basemap.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return false
	}
	r, _, _, _ := basemap.At(x, y).RGBA()
	return uint8(r>>8) > basemapBoundaryThreshold
}

// matchLegendIndex returns the index of the first legend entry within
// Chebyshev distance <= chebyshevTolerance of (r, g, b).
func matchLegendIndex(l legend.Legend, r, g, b uint8) (int8, bool) {
	for i, entry := range l {
		if chebyshev(r, entry.R) <= chebyshevTolerance &&
			chebyshev(g, entry.G) <= chebyshevTolerance &&
			chebyshev(b, entry.B) <= chebyshevTolerance {
			return int8(i), true
		}
	}
	return -1, false
}

func chebyshev(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

// RGBAAt is a small convenience used by tests and cmd tooling to read a
// legend entry's color as a stdlib color.RGBA.
func RGBAAt(e legend.Entry) color.RGBA {
	return color.RGBA{R: e.R, G: e.G, B: e.B, A: 0xff}
}
