package models

import "time"

// Well-known columns of an equipment readings file.
const (
	ColEquipmentName = "Equipment Name"
	ColType          = "Type"
	ColFlowrate      = "Flowrate"
	ColPressure      = "Pressure"
	ColTemperature   = "Temperature"
)

// RequiredColumns must all be present in an uploaded file, in reporting order.
var RequiredColumns = []string{ColEquipmentName, ColType, ColFlowrate, ColPressure, ColTemperature}

// MeasurementColumns are the numeric readings every file carries.
var MeasurementColumns = []string{ColFlowrate, ColPressure, ColTemperature}

// IsMeasurementColumn reports whether name is one of MeasurementColumns.
func IsMeasurementColumn(name string) bool {
	for _, c := range MeasurementColumns {
		if c == name {
			return true
		}
	}
	return false
}

// Summary holds the aggregates computed once at ingestion.
// A nil average means the column had no values to average.
type Summary struct {
	TotalCount       int                 `json:"total_count"`
	Averages         map[string]*float64 `json:"averages"`
	TypeDistribution map[string]int      `json:"type_distribution"`
}

// Dataset is one uploaded equipment file plus its summary and artifacts.
type Dataset struct {
	ID         string     `json:"id"`
	Owner      string     `json:"owner,omitempty"` // empty in anonymous mode
	Filename   string     `json:"filename"`
	UploadedAt time.Time  `json:"uploaded_at"`
	Summary    Summary    `json:"summary"`
	RawKey     string     `json:"-"`
	RawSize    int64      `json:"raw_size"`
	ReportKey  string     `json:"-"`
	ReportAt   *time.Time `json:"report_generated_at,omitempty"`
}

// HasReport reports whether a rendered document is stored for the dataset.
func (d *Dataset) HasReport() bool {
	return d.ReportKey != ""
}
