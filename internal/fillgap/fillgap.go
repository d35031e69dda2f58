// Package fillgap repairs narrow (single-pixel) gaps inside echo regions
// via 4-neighborhood voting (spec.md §4.3, C3).
package fillgap

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

// Fill returns a new raster with narrow gaps repaired. rng supplies the
// tie-break randomness spec.md §4.3's last rule calls for; pass a
// seeded *rand.Rand for reproducible runs (see legend.Config.Seed).
func Fill(ir *raster.IndexRaster, l legend.Legend, zone raster.Zone, rng *rand.Rand) *raster.IndexRaster {
	out := ir.Clone()
	filled := 0

	zone.ForEach(func(x, y int) {
		if !ir.At(x, y).IsEmpty() {
			return
		}

		n := raster.Neighbors4(x, y)
		idx := [4]int8{
			ir.IndexAt(n[0].X, n[0].Y),
			ir.IndexAt(n[1].X, n[1].Y),
			ir.IndexAt(n[2].X, n[2].Y),
			ir.IndexAt(n[3].X, n[3].Y),
		}
		up, down, left, right := idx[0], idx[1], idx[2], idx[3]

		horizBothValid := left >= 0 && right >= 0
		vertBothValid := up >= 0 && down >= 0
		if !horizBothValid && !vertBothValid {
			return
		}

		if horizBothValid && left == right && up < 0 && down < 0 {
			out.Set(x, y, raster.ValidEchoCell(left))
			filled++
			return
		}
		if vertBothValid && up == down && left < 0 && right < 0 {
			out.Set(x, y, raster.ValidEchoCell(up))
			filled++
			return
		}

		var valid []int8
		for _, v := range idx {
			if v >= 0 {
				valid = append(valid, v)
			}
		}
		if len(valid) == 0 {
			return
		}

		mn, mx := valid[0], valid[0]
		for _, v := range valid {
			if v < mn {
				mn = v
			}
			if v > mx {
				mx = v
			}
		}

		if mx-mn <= 1 {
			sum := 0
			for _, v := range valid {
				sum += int(v)
			}
			mean := int8(math.Round(float64(sum) / float64(len(valid))))
			out.Set(x, y, raster.ValidEchoCell(mean))
			filled++
			return
		}

		fillIdx := chooseByAlignedDistance(valid, len(l), rng)
		out.Set(x, y, raster.ValidEchoCell(fillIdx))
		filled++
	})

	logrus.Debugf("fillgap: repaired %d narrow gaps", filled)
	return out
}

// chooseByAlignedDistance picks the index from valid whose
// aligned-to-zero distance (aligned(i) = i + 1 - (len+1)/2) is smallest,
// breaking ties uniformly at random via rng.
func chooseByAlignedDistance(valid []int8, legendLen int, rng *rand.Rand) int8 {
	mid := (float64(legendLen) + 1) / 2

	best := math.Inf(1)
	var candidates []int8
	for _, v := range valid {
		aligned := math.Abs(float64(v) + 1 - mid)
		if aligned < best {
			best = aligned
			candidates = []int8{v}
		} else if aligned == best {
			candidates = append(candidates, v)
		}
	}

	if len(candidates) == 1 || rng == nil {
		return candidates[0]
	}
	return candidates[rng.Intn(len(candidates))]
}
