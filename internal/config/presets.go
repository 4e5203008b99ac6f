package config

import (
	"sort"
	"time"

	"github.com/san-kum/flightcore/internal/imu"
)

// Presets modify the default configuration.
var Presets = map[string]func(*Config){
	"default": func(c *Config) {},
	"aggressive": func(c *Config) {
		for _, a := range []*AxisConfig{&c.Axes.Roll, &c.Axes.Pitch} {
			a.Kp = 3.0
			a.Ki = 2e-5
			a.Kd = 2000
		}
	},
	"sluggish": func(c *Config) {
		for _, a := range []*AxisConfig{&c.Axes.Roll, &c.Axes.Pitch, &c.Axes.Yaw} {
			a.Kp = 0.05
			a.Ki = 0
			a.Kd = 0
		}
	},
	"windup": func(c *Config) {
		c.Axes.Roll.OutputLimit = 100
		c.Axes.Roll.IntegralLimit = 1000
	},
	"noisy": func(c *Config) {
		c.Sensor.Noise = 60
		c.Calibration.Samples = 200
	},
	"moving": func(c *Config) {
		c.Sensor.Motion = imu.Rates{Roll: 0.5}
		c.Calibration.MaxAttempts = 5
		c.Calibration.Interval = time.Millisecond
	},
	"polled": func(c *Config) {
		c.Sensor.PollEvery = 4
	},
}

// GetPreset returns the default configuration with the named preset applied,
// or nil if there is no such preset.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
