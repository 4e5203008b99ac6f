package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/flightcore/internal/imu"
	"github.com/san-kum/flightcore/internal/sim"
)

const (
	metadataFile = "metadata.json"
	seriesFile   = "series.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// CalibrationRecord is the outcome of the calibration that preceded a run.
// It is kept for inspection only and never fed back into a later run.
type CalibrationRecord struct {
	Bias     imu.Rates     `json:"bias"`
	Residual imu.Rates     `json:"residual"`
	Attempts int           `json:"attempts"`
	Samples  int           `json:"samples"`
	Elapsed  time.Duration `json:"elapsed"`
	Error    string        `json:"error,omitempty"`
}

type RunMetadata struct {
	ID          string                        `json:"id"`
	Preset      string                        `json:"preset,omitempty"`
	Timestamp   time.Time                     `json:"timestamp"`
	Seed        int64                         `json:"seed"`
	Dt          float64                       `json:"dt"`
	Duration    float64                       `json:"duration"`
	Integrator  string                        `json:"integrator"`
	Axes        map[string]map[string]float64 `json:"axes"`
	Calibration *CalibrationRecord            `json:"calibration,omitempty"`
	Metrics     map[string]float64            `json:"metrics"`
}

// Series is the per-tick trace of a stored run.
type Series struct {
	Times     []float64
	Truth     []imu.Rates
	Measured  []imu.Rates
	Setpoints []imu.Rates
	Outputs   []imu.Rates
}

var seriesHeader = []string{
	"time",
	"truth_roll", "truth_pitch", "truth_yaw",
	"measured_roll", "measured_pitch", "measured_yaw",
	"setpoint_roll", "setpoint_pitch", "setpoint_yaw",
	"output_roll", "output_pitch", "output_yaw",
}

// Save writes meta and the result trace under a new run directory and returns
// the run ID. ID, Timestamp and Metrics of meta are filled in by Save.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("run_%s", now.Format("20060102_150405.000000"))
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Metrics = result.Metrics

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, seriesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(seriesHeader); err != nil {
		return "", err
	}

	for i := range result.Times {
		row := make([]string, 0, len(seriesHeader))
		row = append(row, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		for _, r := range []imu.Rates{result.Truth[i], result.Measured[i], result.Setpoints[i], result.Outputs[i]} {
			for _, val := range r.Slice() {
				row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return runID, nil
}

// List returns the metadata of all stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(seriesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", seriesFile, err)
	}

	series := &Series{}
	if len(records) < 2 {
		return series, nil
	}

	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", seriesFile, i+2, err)
			}
			vals[j] = v
		}

		series.Times = append(series.Times, vals[0])
		series.Truth = append(series.Truth, rates(vals[1:4]))
		series.Measured = append(series.Measured, rates(vals[4:7]))
		series.Setpoints = append(series.Setpoints, rates(vals[7:10]))
		series.Outputs = append(series.Outputs, rates(vals[10:13]))
	}

	return series, nil
}

func rates(v []float64) imu.Rates {
	return imu.Rates{Roll: v[0], Pitch: v[1], Yaw: v[2]}
}
