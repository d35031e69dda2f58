// Package mesodetect detects mesocyclone candidates in a single quantized
// Doppler velocity image (spec.md §1-2). Detect sequences the C2..C8
// components described in spec.md §4 and returns a DetectionOutput.
package mesodetect

import (
	"image"
	"math/rand"
	"time"

	"github.com/alitto/pond"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kallsyms/go-mesodetect/internal/denoise"
	"github.com/kallsyms/go-mesodetect/internal/extrema"
	"github.com/kallsyms/go-mesodetect/internal/fillgap"
	"github.com/kallsyms/go-mesodetect/internal/ingest"
	"github.com/kallsyms/go-mesodetect/internal/integrate"
	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/meso"
	"github.com/kallsyms/go-mesodetect/internal/raster"
	"github.com/kallsyms/go-mesodetect/internal/unfold"
)

// Detect runs the full pipeline: load (already done by the caller) ->
// validate -> ingest -> narrow-fill -> denoise(neg)+denoise(pos) ->
// integrate -> unfold -> extract(neg)+extract(pos) -> pair. Any
// component returning an error aborts the pipeline (spec.md §4.9).
func Detect(rgb image.Image, cfg legend.Config, basemap image.Image) (DetectionOutput, error) {
	runID := uuid.NewString()
	log := logrus.WithField("run_id", runID)

	if err := cfg.Validate(); err != nil {
		return DetectionOutput{}, NewConfigError(err)
	}

	zone := cfg.Zone()

	log.Debug("mesodetect: ingesting")
	ir, err := ingest.Ingest(rgb, cfg, basemap)
	if err != nil {
		return DetectionOutput{}, NewInputError(err)
	}

	log.Debug("mesodetect: narrow-fill")
	rng := rand.New(rand.NewSource(resolveSeed(cfg.Seed)))
	filled := fillgap.Fill(ir, cfg.Legend, zone, rng)

	log.Debug("mesodetect: denoise (neg/pos in parallel)")
	negDenoised, posDenoised := runDenoisePair(filled, cfg, zone)

	log.Debug("mesodetect: integrate")
	integrated := integrate.Integrate(negDenoised, posDenoised, cfg.Legend, cfg.Thresholds, zone)

	log.Debug("mesodetect: unfold")
	unfolded := unfold.Unfold(integrated, cfg.Legend, cfg.Thresholds, zone)

	log.Debug("mesodetect: extrema (neg/pos in parallel)")
	negPeaks, posPeaks := runExtremaPair(unfolded, cfg, zone)

	log.Debug("mesodetect: pairing")
	records := meso.Pair(unfolded, negPeaks, posPeaks, cfg.Legend, cfg.Thresholds, cfg.RadarCenter)

	log.Infof("mesodetect: %d mesocyclone candidates", len(records))
	return DetectionOutput{
		RunID:   runID,
		Records: records,
	}, nil
}

// resolveSeed implements spec.md §9 Open Question 1's resolution: a zero
// config seed means "non-reproducible, seed from wall-clock".
func resolveSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

// runDenoisePair runs the neg and pos denoiser passes on a two-worker
// pond pool, the data-parallel opportunity spec.md §5 names.
func runDenoisePair(ir *raster.IndexRaster, cfg legend.Config, zone raster.Zone) (neg, pos *raster.IndexRaster) {
	pool := pond.New(2, 0, pond.MinWorkers(2))
	defer pool.StopAndWait()

	pool.Submit(func() {
		neg = denoise.Denoise(ir, denoise.Neg, cfg.Legend, cfg.Thresholds, zone)
	})
	pool.Submit(func() {
		pos = denoise.Denoise(ir, denoise.Pos, cfg.Legend, cfg.Thresholds, zone)
	})

	return neg, pos
}

// runExtremaPair runs the neg and pos extremum-extraction passes on a
// two-worker pond pool.
func runExtremaPair(u *raster.IndexRaster, cfg legend.Config, zone raster.Zone) (neg, pos []raster.Region) {
	pool := pond.New(2, 0, pond.MinWorkers(2))
	defer pool.StopAndWait()

	pool.Submit(func() {
		neg = extrema.Extract(u, extrema.Neg, cfg.Legend, cfg.Thresholds, zone)
	})
	pool.Submit(func() {
		pos = extrema.Extract(u, extrema.Pos, cfg.Legend, cfg.Thresholds, zone)
	})

	return neg, pos
}
