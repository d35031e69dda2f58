package mesodetect

import (
	"time"

	"github.com/kallsyms/go-mesodetect/internal/meso"
)

// DetectionOutput is the Go-native shape of spec.md §6's
// DetectionOutput := { records, scan_time?, station_id? }.
type DetectionOutput struct {
	RunID     string
	Records   []meso.Record
	ScanTime  *time.Time
	StationID string
}
