package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	mesodetect "github.com/kallsyms/go-mesodetect"
	"github.com/kallsyms/go-mesodetect/config"
	"github.com/kallsyms/go-mesodetect/internal/ingest"
	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/visualize"
)

var cmd = &cobra.Command{
	Use:   "mesodetect-detect",
	Short: "mesodetect-detect runs mesocyclone detection on one or more radar velocity images.",
	Run:   run,
}

var (
	inputFile  string
	configFile string
	basemapDir string
	outputFile string
	directory  string
	logLevel   string
	threads    int
	renderPNG  bool
)

func init() {
	cmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "radar velocity image to process")
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVarP(&basemapDir, "basemap-dir", "b", "", "directory of per-station basemap images, keyed by Z\\d{4}")
	cmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output JSON records file (single mode) or directory (batch mode)")
	cmd.PersistentFlags().StringVarP(&directory, "directory", "d", "", "directory of images to process in batch")
	cmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "warn", "log level, debug, info, warn, error")
	cmd.PersistentFlags().IntVarP(&threads, "threads", "t", runtime.NumCPU(), "worker threads for batch mode")
	cmd.PersistentFlags().BoolVarP(&renderPNG, "render", "r", false, "also render a PNG visualization alongside the records")
}

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	lvl, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("failed to parse level: %s", err)
	}
	logrus.SetLevel(lvl)

	if configFile == "" {
		logrus.Fatal("--config is required")
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		logrus.Fatal(err)
	}

	switch {
	case inputFile != "":
		out := outputFile
		if out == "" {
			out = "records.json"
		}
		if err := processOne(inputFile, out, cfg); err != nil {
			logrus.Error(err)
			os.Exit(2)
		}
	case directory != "":
		outdir := outputFile
		if outdir == "" {
			outdir = "out"
		}
		batch(directory, outdir, cfg)
	default:
		logrus.Fatal("one of --file or --directory is required")
	}
}

// processOne runs the full pipeline over a single image and writes its
// records (and, if requested, a PNG) to out.
func processOne(in, out string, cfg legend.Config) error {
	fmt.Printf("detecting %s -> %s\n", in, out)

	img, err := loadImage(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}

	basemap, err := loadBasemap(basemapDir, filepath.Base(in))
	if err != nil {
		return err
	}

	result, err := mesodetect.Detect(img, cfg, basemap)
	if err != nil {
		return err
	}

	result.StationID = config.ParseStationID(filepath.Base(in))
	result.ScanTime = config.ParseScanTime(filepath.Base(in))

	if err := writeRecords(out, result); err != nil {
		return err
	}

	if renderPNG {
		ir, err := ingest.Ingest(img, cfg, basemap)
		if err != nil {
			return err
		}
		pngOut := strings.TrimSuffix(out, filepath.Ext(out)) + ".png"
		label := fmt.Sprintf("%s %d candidates", result.StationID, len(result.Records))
		if err := visualize.Render(pngOut, ir, cfg.Legend, cfg.Zone(), result.Records, label); err != nil {
			logrus.Warnf("render %s: %v", pngOut, err)
		}
	}

	logrus.Infof("%s: %d mesocyclone candidates", in, len(result.Records))
	return nil
}

// batch fans out processOne over every file in dir using threads
// goroutines, following the teacher's nexrad-render animate channel/
// worker-pool shape.
func batch(dir, outdir string, cfg legend.Config) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logrus.Fatal(err)
	}
	if err := os.MkdirAll(outdir, os.ModePerm); err != nil {
		logrus.Fatal(err)
	}

	bar := pb.StartNew(len(entries))
	source := make(chan string, threads)

	var wg sync.WaitGroup
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		go func() {
			defer wg.Done()
			for name := range source {
				in := filepath.Join(dir, name)
				out := filepath.Join(outdir, strings.TrimSuffix(name, filepath.Ext(name))+".json")
				if err := processOne(in, out, cfg); err != nil {
					logrus.Error(err)
				}
				bar.Increment()
			}
		}()
	}

	for _, e := range entries {
		if e.IsDir() {
			bar.Increment()
			continue
		}
		source <- e.Name()
	}
	close(source)
	wg.Wait()
	bar.Finish()
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

// loadBasemap resolves <basemapDir>/<station-id>.png for filename, per
// spec.md §6's "keyed by station identifier" basemap rule. Returns a nil
// image (no masking) if basemapDir is unset or no station ID is present.
func loadBasemap(basemapDir, filename string) (image.Image, error) {
	if basemapDir == "" {
		return nil, nil
	}
	station := config.ParseStationID(filename)
	if station == "" {
		return nil, nil
	}
	path := filepath.Join(basemapDir, station+".png")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return loadImage(path)
}

func writeRecords(out string, result mesodetect.DetectionOutput) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
