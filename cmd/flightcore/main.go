package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/flightcore/internal/automation"
	"github.com/san-kum/flightcore/internal/calib"
	"github.com/san-kum/flightcore/internal/config"
	"github.com/san-kum/flightcore/internal/experiment"
	"github.com/san-kum/flightcore/internal/imu"
	"github.com/san-kum/flightcore/internal/metrics"
	"github.com/san-kum/flightcore/internal/sim"
	"github.com/san-kum/flightcore/internal/storage"
	"github.com/san-kum/flightcore/internal/viz"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	preset     string

	dt         float64
	duration   float64
	seed       int64
	integrator string
	kp         float64
	ki         float64
	kd         float64
	noise      float64
	motion     float64
	pollEvery  int
	force      bool
	numRuns    int
	plotAxis   string

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "flightcore",
		Short:        "rate controller and gyro calibration lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".flightcore", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")

	calibrateCmd := &cobra.Command{
		Use:   "calibrate",
		Short: "calibrate the simulated gyro",
		Args:  cobra.NoArgs,
		RunE:  runCalibrate,
	}
	addFlightFlags(calibrateCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "calibrate, fly the setpoint profile and save the run",
		Args:  cobra.NoArgs,
		RunE:  runFlight,
	}
	addFlightFlags(runCmd)
	runCmd.Flags().BoolVar(&force, "force", false, "fly even if calibration fails")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "fly with a live view and interactive gain tuning",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addFlightFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "fly independent seeded runs in parallel",
		Args:  cobra.NoArgs,
		RunE:  runBench,
	}
	addFlightFlags(benchCmd)
	benchCmd.Flags().IntVar(&numRuns, "runs", 8, "number of runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "fly once per value of one regulator parameter and compare",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addFlightFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&plotAxis, "axis", "roll", "axis to sweep")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "kp", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 2.0, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot setpoint, measured rate and output of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotAxis, "axis", "roll", "axis to plot")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step response and oscillation analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&plotAxis, "axis", "roll", "axis to analyze")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(calibrateCmd, runCmd, liveCmd, benchCmd, sweepCmd, listCmd, plotCmd, analyzeCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addFlightFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "control tick in seconds")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "flight duration in seconds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "sensor noise seed")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain, all axes")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "integral gain per microsecond, all axes")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "derivative gain in microseconds, all axes")
	cmd.Flags().Float64Var(&noise, "noise", config.DefaultNoise, "gyro noise amplitude in raw counts")
	cmd.Flags().Float64Var(&motion, "motion", 0, "roll spin-up per read during calibration")
	cmd.Flags().IntVar(&pollEvery, "poll-every", 1, "gyro data ready on every n-th poll")
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// resolveConfig applies preset, then config file, then explicitly set flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		var err error
		cfg, err = config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	for _, a := range []*config.AxisConfig{&cfg.Axes.Roll, &cfg.Axes.Pitch, &cfg.Axes.Yaw} {
		if flags.Changed("kp") {
			a.Kp = kp
		}
		if flags.Changed("ki") {
			a.Ki = ki
		}
		if flags.Changed("kd") {
			a.Kd = kd
		}
	}
	if flags.Changed("noise") {
		cfg.Sensor.Noise = noise
	}
	if flags.Changed("motion") {
		cfg.Sensor.Motion = imu.Rates{Roll: motion}
	}
	if flags.Changed("poll-every") {
		cfg.Sensor.PollEvery = pollEvery
	}

	return cfg, cfg.Validate()
}

func printCalibrationEvent(ev calib.Event) {
	switch ev.State {
	case calib.Validating:
		fmt.Printf("  %s  attempt %d\n", viz.CalibrationState(ev.State), ev.Attempt)
	case calib.Reestimating:
		fmt.Printf("  %s  residual %s  -> %d samples\n", viz.CalibrationState(ev.State), formatRates(ev.Average), ev.Iterations)
	default:
		fmt.Printf("  %s\n", viz.CalibrationState(ev.State))
	}
}

func formatRates(r imu.Rates) string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f)", r.Roll, r.Pitch, r.Yaw)
}

func calibrationRecord(res calib.Result, err error) *storage.CalibrationRecord {
	rec := &storage.CalibrationRecord{
		Bias:     res.Bias,
		Residual: res.Residual,
		Attempts: res.Attempts,
		Samples:  res.Samples,
		Elapsed:  res.Elapsed,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exp := experiment.New(cfg,
		experiment.WithLogger(newLogger()),
		experiment.WithCalibrationOptions(calib.WithObserver(printCalibrationEvent)),
	)
	if err := exp.Setup(); err != nil {
		return err
	}

	fmt.Printf("calibrating gyro (tolerance %.1f, %d samples)...\n", cfg.Calibration.Tolerance, cfg.Calibration.Samples)
	res, err := exp.Calibrate(ctx)

	var cerr *calib.Error
	if errors.As(err, &cerr) {
		fmt.Printf("\nfailed after %d attempts, last residual %s\n", cerr.Attempts, formatRates(cerr.Residual))
		return err
	}
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("bias:     %s\n", formatRates(res.Bias))
	fmt.Printf("residual: %s\n", formatRates(res.Residual))
	fmt.Printf("attempts: %d\n", res.Attempts)
	fmt.Printf("samples:  %d\n", res.Samples)
	fmt.Printf("elapsed:  %v\n", res.Elapsed.Round(time.Millisecond))
	return nil
}

func runFlight(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger()
	exp := experiment.New(cfg, experiment.WithLogger(logger))
	if err := exp.Setup(); err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Println("calibrating gyro...")
	res, calErr := exp.Calibrate(ctx)
	if calErr != nil {
		if !force {
			return fmt.Errorf("calibration: %w", calErr)
		}
		logger.Warn("flying uncalibrated", "err", calErr)
	} else {
		fmt.Printf("bias %s after %d attempts\n", formatRates(res.Bias), res.Attempts)
	}

	fmt.Printf("flying %.1fs at dt=%.4fs...\n", cfg.Duration, cfg.Dt)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	axes := exp.Axes()
	meta := storage.RunMetadata{
		Preset:     preset,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Axes: map[string]map[string]float64{
			"roll":  axes.Roll.GetParams(),
			"pitch": axes.Pitch.GetParams(),
			"yaw":   axes.Yaw.GetParams(),
		},
		Calibration: calibrationRecord(res, calErr),
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	att, err := exp.Attitude().ReadAttitude(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("final attitude: r=%.0f p=%.0f y=%.0f\n", att.Roll, att.Pitch, att.Yaw)
	fmt.Println("\nmetrics:")
	for _, name := range []string{"tracking_rms", "control_effort"} {
		fmt.Printf("  %-15s %.3f\n", name, result.Metrics[name])
	}
	sat := result.Metrics["saturation"]
	fmt.Printf("  %-15s %.3f %s\n", "saturation", sat, viz.Bar(sat, 20))

	fmt.Println("\noutputs:")
	outs := splitAxes(result.Outputs)
	for i, name := range axisNames {
		fmt.Printf("  %-6s %s\n", name, viz.Sparkline(outs[i], 60))
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	// keep logs off the terminal the view draws on
	exp := experiment.New(cfg)
	if err := exp.Setup(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("calibrating gyro...")
	if _, err := exp.Calibrate(ctx); err != nil {
		return fmt.Errorf("calibration: %w", err)
	}
	exp.Axes().Start(0)

	m := viz.NewModel(ctx, exp.Simulator(), exp.Plant(), cfg.Profile(), cfg.Dt).WithAttitude(exp.Attitude())

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if numRuns < 1 {
		return fmt.Errorf("runs must be positive, got %d", numRuns)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	build := experiment.Factory(cfg,
		experiment.WithLogger(newLogger()),
		experiment.WithCalibrationOptions(calib.WithSleep(func(context.Context, time.Duration) error { return nil })),
	)
	ens := sim.NewEnsemble(build, numRuns, cfg.Seed)

	fmt.Printf("flying %d runs in parallel...\n", numRuns)
	start := time.Now()

	results, err := ens.Run(ctx, cfg.Profile(), cfg.SimConfig())
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	steps := 0
	for _, r := range results {
		steps += r.StepsTaken
	}

	fmt.Printf("completed in %v (%.0f steps/sec)\n\n", elapsed, float64(steps)/elapsed.Seconds())
	for _, m := range metrics.Defaults() {
		name := m.Name()
		vals := make([]float64, len(results))
		for i, r := range results {
			vals[i] = r.Metrics[name]
		}
		mean, spread := meanSpread(vals)
		fmt.Printf("  %-15s %.3f ± %.3f\n", name, mean, spread)
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := newLogger()
	sweep := automation.Sweep{
		Axis:     plotAxis,
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
	}

	fmt.Printf("sweeping %s %s over [%g, %g]...\n\n", sweep.Axis, sweep.Param, sweep.Min, sweep.Max)
	results, err := automation.RunSweep(ctx, cfg, sweep, logger, experiment.WithLogger(logger))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTRACKING\tEFFORT\tSATURATION\tOSCILLATION\n", sweep.Param)
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%.2f\t%.2f\t%.3f\t%.1f hz\n",
			r.Value,
			r.Metrics["tracking_rms"],
			r.Metrics["control_effort"],
			r.Metrics["saturation"],
			r.Oscillation,
		)
	}
	return w.Flush()
}
