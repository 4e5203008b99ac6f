package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/flightcore/internal/imu"
)

func newFlightCmd(t *testing.T) *cobra.Command {
	t.Helper()
	preset, configFile = "", ""
	cmd := &cobra.Command{Use: "test"}
	addFlightFlags(cmd)
	return cmd
}

func TestResolveConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.yaml")
	doc := "duration: 3\naxes:\n  roll:\n    kp: 0.8\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newFlightCmd(t)
	for k, v := range map[string]string{
		"preset": "windup",
		"config": path,
		"time":   "1.5",
		"motion": "0.25",
	} {
		if err := cmd.Flags().Set(k, v); err != nil {
			t.Fatal(err)
		}
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	if cfg.Duration != 1.5 {
		t.Errorf("flag should override config: duration %f", cfg.Duration)
	}
	if cfg.Axes.Roll.Kp != 0.8 {
		t.Errorf("config should override preset: kp %f", cfg.Axes.Roll.Kp)
	}
	if cfg.Axes.Roll.OutputLimit != 100 {
		t.Errorf("preset value lost: output limit %f", cfg.Axes.Roll.OutputLimit)
	}
	if cfg.Sensor.Motion != (imu.Rates{Roll: 0.25}) {
		t.Errorf("unexpected motion %+v", cfg.Sensor.Motion)
	}
}

func TestResolveConfigGainFlagsApplyToAllAxes(t *testing.T) {
	cmd := newFlightCmd(t)
	if err := cmd.Flags().Set("kd", "0"); err != nil {
		t.Fatal(err)
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Axes.Roll.Kd != 0 || cfg.Axes.Pitch.Kd != 0 || cfg.Axes.Yaw.Kd != 0 {
		t.Errorf("expected kd 0 on every axis, got %+v", cfg.Axes)
	}
}

func TestResolveConfigUnknownPreset(t *testing.T) {
	cmd := newFlightCmd(t)
	if err := cmd.Flags().Set("preset", "acrobatic"); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveConfig(cmd); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestSplitAxes(t *testing.T) {
	got := splitAxes([]imu.Rates{{Roll: 1, Pitch: 2, Yaw: 3}, {Roll: 4, Pitch: 5, Yaw: 6}})
	if got[0][1] != 4 || got[1][0] != 2 || got[2][1] != 6 {
		t.Errorf("unexpected split %v", got)
	}
}

func TestMeanSpread(t *testing.T) {
	mean, spread := meanSpread([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	if mean != 5 || spread != 2 {
		t.Errorf("expected 5 ± 2, got %f ± %f", mean, spread)
	}
}
