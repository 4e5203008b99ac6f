package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/flightcore/internal/imu"
)

type ExportData struct {
	Run       RunMetadata `json:"run"`
	Steps     int         `json:"steps"`
	Times     []float64   `json:"times"`
	Truth     []imu.Rates `json:"truth"`
	Measured  []imu.Rates `json:"measured"`
	Setpoints []imu.Rates `json:"setpoints"`
	Outputs   []imu.Rates `json:"outputs"`
}

// ExportJSON writes a stored run as a single JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, series *Series) error {
	data := ExportData{
		Run:       *meta,
		Steps:     len(series.Times),
		Times:     series.Times,
		Truth:     series.Truth,
		Measured:  series.Measured,
		Setpoints: series.Setpoints,
		Outputs:   series.Outputs,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
