package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/flightcore/internal/analysis"
	"github.com/san-kum/flightcore/internal/imu"
	"github.com/san-kum/flightcore/internal/storage"
)

var axisNames = []string{"roll", "pitch", "yaw"}

func axisIndex(name string) (int, error) {
	for i, n := range axisNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown axis: %s (available: %v)", name, axisNames)
}

// splitAxes turns a rate trace into one series per axis.
func splitAxes(rs []imu.Rates) [3][]float64 {
	var out [3][]float64
	for i := range out {
		out[i] = make([]float64, len(rs))
	}
	for j, r := range rs {
		out[0][j], out[1][j], out[2][j] = r.Roll, r.Pitch, r.Yaw
	}
	return out
}

func meanSpread(vals []float64) (float64, float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))

	variance := 0.0
	for _, v := range vals {
		variance += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(variance / float64(len(vals)))
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tINTEG\tCALIB\tTRACKING")

	for _, run := range runs {
		calib := "-"
		if run.Calibration != nil {
			calib = "ok"
			if run.Calibration.Error != "" {
				calib = "failed"
			}
		}
		name := run.Preset
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%.2f\n",
			run.ID,
			name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			calib,
			run.Metrics["tracking_rms"],
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Series, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	series, err := st.LoadSeries(runID)
	if err != nil {
		return nil, nil, err
	}

	if len(series.Times) == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, series, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	axis, err := axisIndex(plotAxis)
	if err != nil {
		return err
	}

	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(series.Times))

	setpoints := splitAxes(series.Setpoints)[axis]
	measured := splitAxes(series.Measured)[axis]
	outputs := splitAxes(series.Outputs)[axis]

	graph := asciigraph.PlotMany([][]float64{setpoints, measured},
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
		asciigraph.Caption(plotAxis+" rate: setpoint (yellow) / measured (green)"),
	)
	fmt.Println(graph)
	fmt.Println()

	graph = asciigraph.Plot(outputs,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption(plotAxis+" output"),
	)
	fmt.Println(graph)

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	axis, err := axisIndex(plotAxis)
	if err != nil {
		return err
	}

	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s (%s)\n", meta.ID, plotAxis)
	if g, ok := meta.Axes[plotAxis]; ok {
		fmt.Printf("gains: kp=%g ki=%g kd=%g\n", g["kp"], g["ki"], g["kd"])
	}
	fmt.Println()

	truth := splitAxes(series.Truth)[axis]
	setpoints := splitAxes(series.Setpoints)[axis]

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T\tSTEP\tRISE\tOVERSHOOT\tSETTLE(5%)")
	steps := 0
	for i := 1; i < len(setpoints); i++ {
		if setpoints[i] == setpoints[i-1] {
			continue
		}
		steps++
		end := nextChange(setpoints, i)
		r := analysis.StepResponse(series.Times[:end], truth[:end], i, setpoints[i], 0.05)
		settle := "never"
		if r.Settled {
			settle = fmt.Sprintf("%.3fs", r.SettlingTime)
		}
		fmt.Fprintf(w, "%.2fs\t%+.0f\t%.3fs\t%.1f%%\t%s\n",
			series.Times[i], setpoints[i]-setpoints[i-1], r.RiseTime, r.Overshoot*100, settle)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if steps == 0 {
		fmt.Println("no setpoint changes on this axis")
	}

	residual := make([]float64, len(truth))
	for i := range truth {
		residual[i] = truth[i] - setpoints[i]
	}
	ps := analysis.PowerSpectrum(residual)
	if len(ps) < 2 {
		return nil
	}

	fmt.Println()
	plotData := ps[:max(len(ps)/4, 2)]
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("tracking error spectrum"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, power := analysis.DominantFrequency(residual, meta.Dt)
	fmt.Printf("dominant frequency: %.2f hz (magnitude %.1f)\n", freq, power)
	return nil
}

func nextChange(vals []float64, from int) int {
	for i := from + 1; i < len(vals); i++ {
		if vals[i] != vals[from] {
			return i
		}
	}
	return len(vals)
}

func exportRun(cmd *cobra.Command, args []string) error {
	meta, series, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, series)
}
