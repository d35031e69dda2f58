package extrema

import (
	"image"
	"math"
)

// narrowness implements the closed-form 2x2 PCA narrowness test Design
// Notes calls for in place of a numerics library: compute the 2x2
// covariance matrix of the region's coordinates, solve its eigenvalues
// by the quadratic formula, then take the ratio of the point spread
// along the major axis to the spread along the minor axis. A single
// point or a perfectly round region both return 1.
func narrowness(points []image.Point) float64 {
	n := float64(len(points))
	if n <= 1 {
		return 1
	}

	var sumX, sumY float64
	for _, p := range points {
		sumX += float64(p.X)
		sumY += float64(p.Y)
	}
	meanX, meanY := sumX/n, sumY/n

	var cxx, cyy, cxy float64
	for _, p := range points {
		dx := float64(p.X) - meanX
		dy := float64(p.Y) - meanY
		cxx += dx * dx
		cyy += dy * dy
		cxy += dx * dy
	}
	cxx /= n
	cyy /= n
	cxy /= n

	trace := cxx + cyy
	det := cxx*cyy - cxy*cxy
	disc := trace*trace/4 - det
	if disc < 0 {
		disc = 0
	}
	sq := math.Sqrt(disc)
	lambda1 := trace/2 + sq

	v1 := eigenvector(cxx, cyy, cxy, lambda1)
	v2f := [2]float64{-v1[1], v1[0]}

	var minA, maxA, minB, maxB float64
	for i, p := range points {
		dx := float64(p.X) - meanX
		dy := float64(p.Y) - meanY
		a := dx*v1[0] + dy*v1[1]
		b := dx*v2f[0] + dy*v2f[1]
		if i == 0 {
			minA, maxA = a, a
			minB, maxB = b, b
			continue
		}
		if a < minA {
			minA = a
		}
		if a > maxA {
			maxA = a
		}
		if b < minB {
			minB = b
		}
		if b > maxB {
			maxB = b
		}
	}

	rangeA := maxA - minA
	rangeB := maxB - minB
	if rangeB == 0 {
		if rangeA == 0 {
			return 1
		}
		return math.Inf(1)
	}
	return rangeA / rangeB
}

// eigenvector returns the unit eigenvector of [[cxx,cxy],[cxy,cyy]] for
// eigenvalue lambda.
func eigenvector(cxx, cyy, cxy, lambda float64) [2]float64 {
	if cxy != 0 {
		vx, vy := lambda-cyy, cxy
		norm := math.Hypot(vx, vy)
		if norm == 0 {
			return [2]float64{1, 0}
		}
		return [2]float64{vx / norm, vy / norm}
	}
	if cxx >= cyy {
		return [2]float64{1, 0}
	}
	return [2]float64{0, 1}
}
