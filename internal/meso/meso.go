// Package meso implements the mesocyclone detector (spec.md §4.8, C8):
// weighted-centroid computation per extremum region, opposite-sign
// pairing, and record emission.
package meso

import (
	"image"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
)

// Record is the emitted mesocyclone detection, matching spec.md §3's
// MesocycloneRecord.
type Record struct {
	StormNum       uint32
	LogicCenter    image.Point
	RadarDistance  float32
	RadarAngleDeg  float32
	Shear          float32
	NegCenter      image.Point
	NegMaxVelocity float32
	PosCenter      image.Point
	PosMaxVelocity float32
}

// centroid is a region's weighted centroid plus the velocity extreme
// (most negative or most positive, depending on which half it came
// from) observed within it.
type centroid struct {
	center   image.Point
	extremeV float32
}

// Pair runs the full C8 pairing pass over every negative/positive
// extremum region pair and returns the surviving records in emission
// order.
func Pair(u *raster.IndexRaster, negRegions, posRegions []raster.Region, l legend.Legend, th legend.Thresholds, radarCenter image.Point) []Record {
	negCentroids := weightedCentroids(u, negRegions, l, true)
	posCentroids := weightedCentroids(u, posRegions, l, false)

	var records []Record
	for ni, nc := range negCentroids {
		if nc == nil {
			continue
		}
		for pi, pc := range posCentroids {
			if pc == nil {
				continue
			}
			rec, ok := evaluatePair(u, *nc, *pc, th, radarCenter)
			if !ok {
				continue
			}
			rec.StormNum = uint32(len(records))
			records = append(records, rec)
			logrus.Debugf("meso: storm %d paired neg region %d with pos region %d (d-check passed)", rec.StormNum, ni, pi)
		}
	}
	return records
}

// weightedCentroids implements spec.md §4.8's "Weighted centroid per
// region g" for every region in regions. A nil entry means the region's
// total weight was zero and it contributes no candidate.
func weightedCentroids(u *raster.IndexRaster, regions []raster.Region, l legend.Legend, neg bool) []*centroid {
	out := make([]*centroid, len(regions))
	for i, g := range regions {
		var sumX, sumY, sumW float64
		extreme := float32(0)
		haveExtreme := false

		for _, p := range g.Points {
			idx := u.IndexAt(p.X, p.Y)
			if idx < 0 {
				continue
			}
			v := l.VelocityAt(idx)
			w := math.Abs(float64(v))
			sumX += float64(p.X) * w
			sumY += float64(p.Y) * w
			sumW += w

			if !haveExtreme {
				extreme = v
				haveExtreme = true
				continue
			}
			if neg && v < extreme {
				extreme = v
			}
			if !neg && v > extreme {
				extreme = v
			}
		}

		if sumW == 0 {
			continue
		}
		out[i] = &centroid{
			center:   image.Point{X: int(math.Round(sumX / sumW)), Y: int(math.Round(sumY / sumW))},
			extremeV: extreme,
		}
	}
	return out
}

// evaluatePair runs the three pairing checks of spec.md §4.8 (center
// distance, shear, disk valid-echo ratio) in order,
// returning the emitted record (minus StormNum, set by the caller) on
// success.
func evaluatePair(u *raster.IndexRaster, neg, pos centroid, th legend.Thresholds, radarCenter image.Point) (Record, bool) {
	dx := float64(pos.center.X - neg.center.X)
	dy := float64(pos.center.Y - neg.center.Y)
	d := math.Hypot(dx, dy)
	if d > th.CenterDistance {
		return Record{}, false
	}

	shear := (math.Abs(float64(neg.extremeV)) + math.Abs(float64(pos.extremeV))) / 2
	if shear < float64(th.MesoRotation) {
		return Record{}, false
	}

	logicCenter := image.Point{
		X: int(math.Round(float64(neg.center.X+pos.center.X) / 2)),
		Y: int(math.Round(float64(neg.center.Y+pos.center.Y) / 2)),
	}
	radius := int(math.Round(d))
	if !diskValidEchoRatioOK(u, logicCenter, radius, th.ValidEchoRatio) {
		return Record{}, false
	}

	radarDx := float64(logicCenter.X - radarCenter.X)
	radarDy := float64(logicCenter.Y - radarCenter.Y)
	radarDistance := math.Hypot(radarDx, radarDy)
	radarAngle := radarAngleDeg(radarDx, radarDy)

	return Record{
		LogicCenter:    logicCenter,
		RadarDistance:  float32(radarDistance),
		RadarAngleDeg:  float32(radarAngle),
		Shear:          float32(shear),
		NegCenter:      neg.center,
		NegMaxVelocity: neg.extremeV,
		PosCenter:      pos.center,
		PosMaxVelocity: pos.extremeV,
	}, true
}

// diskValidEchoRatioOK implements spec.md §4.8 step 4: walk the disk of
// radius r around center in u and require invalid/total <= 1 -
// VALID_ECHO_RATIO.
func diskValidEchoRatioOK(u *raster.IndexRaster, center image.Point, radius int, validEchoRatio float64) bool {
	total, invalid := 0, 0
	r2 := radius * radius
	for dx := -radius; dx <= radius; dx++ {
		for dy := -radius; dy <= radius; dy++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			x, y := center.X+dx, center.Y+dy
			if !u.InBounds(x, y) {
				continue
			}
			total++
			if u.At(x, y).ValidIndex() < 0 {
				invalid++
			}
		}
	}
	if total == 0 {
		return false
	}
	return float64(invalid)/float64(total) <= 1-validEchoRatio
}

// radarAngleDeg computes the clockwise-from-north bearing of (dx, dy)
// relative to the radar, per spec.md §4.8 step 5: the angle between
// (dx, dy) and north (0, -1 in image coordinates, since y grows
// downward) via acos, mirrored across 360 when dx < 0 (acos alone
// cannot distinguish east from west).
func radarAngleDeg(dx, dy float64) float64 {
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return 0
	}
	cosTheta := -dy / norm
	if cosTheta > 1 {
		cosTheta = 1
	} else if cosTheta < -1 {
		cosTheta = -1
	}
	theta := math.Acos(cosTheta) * 180 / math.Pi
	if dx < 0 {
		theta = 360 - theta
	}
	return theta
}
