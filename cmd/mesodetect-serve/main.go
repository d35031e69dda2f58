// mesodetect-serve is a small debug HTTP server that runs detection on
// demand for a named image and serves its records or overlay PNG, modeled on the
// teacher's l2serv route table (with the S3/GDAL realtime-fetch
// machinery stripped, see DESIGN.md).
package main

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	mesodetect "github.com/kallsyms/go-mesodetect"
	"github.com/kallsyms/go-mesodetect/config"
	"github.com/kallsyms/go-mesodetect/internal/ingest"
	"github.com/kallsyms/go-mesodetect/internal/legend"
	"github.com/kallsyms/go-mesodetect/internal/visualize"
)

var (
	configPath string
	imageDir   string
	basemapDir string
	listenAddr string
)

func main() {
	configPath = envOr("MESODETECT_CONFIG", "mesodetect.yaml")
	imageDir = envOr("MESODETECT_IMAGE_DIR", "images")
	basemapDir = envOr("MESODETECT_BASEMAP_DIR", "")
	listenAddr = envOr("MESODETECT_LISTEN", "0.0.0.0:8090")

	logrus.SetLevel(logrus.InfoLevel)

	r := mux.NewRouter()
	r.HandleFunc("/station/{station}/{filename}.json", detectHandler)
	r.HandleFunc("/station/{station}/{filename}/render", renderHandler)

	srv := &http.Server{
		Addr:         listenAddr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
		Handler:      r,
	}

	logrus.Infof("mesodetect-serve listening on %s", listenAddr)
	if err := srv.ListenAndServe(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func detectHandler(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	result, _, _, err := runDetection(vars["station"], vars["filename"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func renderHandler(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	result, img, cfg, err := runDetection(vars["station"], vars["filename"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ir, err := ingest.Ingest(img, cfg, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("mesodetect-%s.png", result.RunID))
	label := fmt.Sprintf("%s %d candidates", result.StationID, len(result.Records))
	if err := visualize.Render(tmp, ir, cfg.Legend, cfg.Zone(), result.Records, label); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp)

	f, err := os.Open(tmp)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "image/png")
	if _, err := io.Copy(w, f); err != nil {
		logrus.Warnf("render: streaming %s: %v", tmp, err)
	}
}

// runDetection loads the shared config, opens <imageDir>/<filename>.png
// and, if present, <basemapDir>/<station>.png, and runs the full
// pipeline.
func runDetection(station, filename string) (mesodetect.DetectionOutput, image.Image, legend.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return mesodetect.DetectionOutput{}, nil, legend.Config{}, err
	}

	img, err := loadPNG(filepath.Join(imageDir, filename+".png"))
	if err != nil {
		return mesodetect.DetectionOutput{}, nil, legend.Config{}, err
	}

	var basemap image.Image
	if basemapDir != "" {
		if bm, err := loadPNG(filepath.Join(basemapDir, station+".png")); err == nil {
			basemap = bm
		}
	}

	result, err := mesodetect.Detect(img, cfg, basemap)
	if err != nil {
		return mesodetect.DetectionOutput{}, nil, legend.Config{}, err
	}
	result.StationID = station
	return result, img, cfg, nil
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
