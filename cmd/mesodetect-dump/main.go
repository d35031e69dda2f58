// mesodetect-dump dumps an intermediate raster stage of the pipeline as
// JSON, for debugging a single image outside the full Detect call.
// Modeled on the teacher's nexrad-decode go-flags CLI.
package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"os"

	"github.com/fatih/color"
	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/kallsyms/go-mesodetect/config"
	"github.com/kallsyms/go-mesodetect/internal/denoise"
	"github.com/kallsyms/go-mesodetect/internal/fillgap"
	"github.com/kallsyms/go-mesodetect/internal/ingest"
	"github.com/kallsyms/go-mesodetect/internal/integrate"
	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/raster"
	"github.com/kallsyms/go-mesodetect/internal/unfold"
)

var cli struct {
	Args struct {
		Filename string
	} `positional-args:"yes" required:"yes"`
	Config   string `short:"c" long:"config" description:"YAML configuration file" required:"yes"`
	Stage    string `short:"s" long:"stage" description:"pipeline stage to dump" choice:"ingest" choice:"fillgap" choice:"denoise-neg" choice:"denoise-pos" choice:"integrate" choice:"unfold" default:"ingest"`
	LogLevel string `short:"l" long:"log-level" description:"logging level" choice:"error" choice:"info" choice:"debug" choice:"trace" default:"info"`
}

func main() {
	if _, err := flags.Parse(&cli); err != nil {
		os.Exit(1)
	}

	errorLevels := map[string]logrus.Level{
		"error": logrus.ErrorLevel,
		"info":  logrus.InfoLevel,
		"debug": logrus.DebugLevel,
		"trace": logrus.TraceLevel,
	}
	logrus.SetLevel(errorLevels[cli.LogLevel])

	logrus.Info(color.CyanString("loading config ", cli.Config))
	cfg, err := config.Load(cli.Config)
	if err != nil {
		logrus.Fatal(err)
	}

	logrus.Info(color.CyanString("dumping ", cli.Stage, " for ", cli.Args.Filename))
	ir, err := dumpStage(cli.Args.Filename, cfg, cli.Stage)
	if err != nil {
		logrus.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ir); err != nil {
		logrus.Fatal(err)
	}
}

func dumpStage(filename string, cfg legend.Config, stage string) (*raster.IndexRaster, error) {
	img, err := loadPNG(filename)
	if err != nil {
		return nil, err
	}

	ir, err := ingest.Ingest(img, cfg, nil)
	if err != nil {
		return nil, err
	}
	if stage == "ingest" {
		return ir, nil
	}

	zone := cfg.Zone()
	rng := rand.New(rand.NewSource(1))
	filled := fillgap.Fill(ir, cfg.Legend, zone, rng)
	if stage == "fillgap" {
		return filled, nil
	}

	negDenoised := denoise.Denoise(filled, denoise.Neg, cfg.Legend, cfg.Thresholds, zone)
	if stage == "denoise-neg" {
		return negDenoised, nil
	}
	posDenoised := denoise.Denoise(filled, denoise.Pos, cfg.Legend, cfg.Thresholds, zone)
	if stage == "denoise-pos" {
		return posDenoised, nil
	}

	integrated := integrate.Integrate(negDenoised, posDenoised, cfg.Legend, cfg.Thresholds, zone)
	if stage == "integrate" {
		return integrated, nil
	}

	unfolded := unfold.Unfold(integrated, cfg.Legend, cfg.Thresholds, zone)
	return unfolded, nil
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return png.Decode(f)
}
