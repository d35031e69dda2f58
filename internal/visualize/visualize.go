// Package visualize renders a detection run's raster and mesocyclone
// markers to a PNG, following the teacher's nexrad-render draw2d/
// font-drawer pattern. This is a trivial derivation of the core output
// (spec.md §1), not part of Detect's return value, so it lives here and
// is invoked from cmd/mesodetect-detect and cmd/mesodetect-serve.
package visualize

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/llgcode/draw2d/draw2dimg"
	"golang.org/x/image/colornames"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/meso"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

// markerRadiusPx is the on-canvas radius drawn around each paired
// mesocyclone's logical center.
const markerRadiusPx = 8

// Render draws u's legend-colored pixels over zone, overlays a circle at
// each record's logic_center, draws label (if non-empty) once near the
// bottom-left corner, and writes the result to out as a PNG.
func Render(out string, u *raster.IndexRaster, l legend.Legend, zone raster.Zone, records []meso.Record, label string) error {
	canvas := image.NewRGBA(image.Rect(0, 0, u.W, u.H))
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)

	zone.ForEach(func(x, y int) {
		idx := u.IndexAt(x, y)
		if idx < 0 || int(idx) >= len(l) {
			return
		}
		e := l[idx]
		canvas.Set(x, y, color.RGBA{R: e.R, G: e.G, B: e.B, A: 0xff})
	})

	gc := draw2dimg.NewGraphicContext(canvas)
	gc.SetStrokeColor(colornames.Yellow)
	gc.SetLineWidth(2)
	for _, rec := range records {
		gc.MoveTo(float64(rec.LogicCenter.X+markerRadiusPx), float64(rec.LogicCenter.Y))
		gc.ArcTo(float64(rec.LogicCenter.X), float64(rec.LogicCenter.Y), markerRadiusPx, markerRadiusPx, 0, 2*math.Pi)
		gc.Stroke()
	}

	if label != "" {
		addLabel(canvas, 10, u.H-10, label)
	}

	return draw2dimg.SaveToPngFile(out, canvas)
}

func addLabel(img *image.RGBA, x, y int, label string) {
	point := fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(colornames.White),
		Face: inconsolata.Bold8x16,
		Dot:  point,
	}
	d.DrawString(label)
}
