package models

import (
	"context"
	"math/rand"

	"github.com/san-kum/flightcore/internal/imu"
)

// StationaryGyro is a gyroscope at rest: every reading is the true bias plus
// uniform noise bounded by ±Noise on each axis.
type StationaryGyro struct {
	Bias  imu.Rates
	Noise float64
	rng   *rand.Rand
}

func NewStationaryGyro(bias imu.Rates, noise float64, seed int64) *StationaryGyro {
	return &StationaryGyro{
		Bias:  bias,
		Noise: noise,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func (g *StationaryGyro) ReadRaw(ctx context.Context) (imu.Rates, error) {
	if err := ctx.Err(); err != nil {
		return imu.Rates{}, err
	}
	return g.Bias.Add(g.noise()), nil
}

func (g *StationaryGyro) noise() imu.Rates {
	if g.Noise == 0 {
		return imu.Rates{}
	}
	n := func() float64 { return (g.rng.Float64()*2 - 1) * g.Noise }
	return imu.Rates{Roll: n(), Pitch: n(), Yaw: n()}
}

// MovingGyro is a gyroscope on an airframe that keeps spinning up: each
// reading adds Accel times the number of previous readings. No fixed bias
// can cancel it, so calibration never validates.
type MovingGyro struct {
	*StationaryGyro
	Accel imu.Rates
	reads int
}

func NewMovingGyro(bias imu.Rates, noise float64, accel imu.Rates, seed int64) *MovingGyro {
	return &MovingGyro{
		StationaryGyro: NewStationaryGyro(bias, noise, seed),
		Accel:          accel,
	}
}

func (g *MovingGyro) ReadRaw(ctx context.Context) (imu.Rates, error) {
	r, err := g.StationaryGyro.ReadRaw(ctx)
	if err != nil {
		return imu.Rates{}, err
	}
	motion := g.Accel.Scale(float64(g.reads))
	g.reads++
	return r.Add(motion), nil
}

// TruthSource exposes the true body rates of a simulated plant.
type TruthSource interface {
	Rates() imu.Rates
}

// PlantGyro measures a simulated plant: true rates plus bias and noise.
type PlantGyro struct {
	*StationaryGyro
	plant TruthSource
}

func NewPlantGyro(plant TruthSource, bias imu.Rates, noise float64, seed int64) *PlantGyro {
	return &PlantGyro{
		StationaryGyro: NewStationaryGyro(bias, noise, seed),
		plant:          plant,
	}
}

func (g *PlantGyro) ReadRaw(ctx context.Context) (imu.Rates, error) {
	r, err := g.StationaryGyro.ReadRaw(ctx)
	if err != nil {
		return imu.Rates{}, err
	}
	return r.Add(g.plant.Rates()), nil
}

// DataReadyGyro turns a RawReader into a data-ready style sensor that only
// has a fresh sample on every Every-th poll.
type DataReadyGyro struct {
	src   imu.RawReader
	Every int
	polls int
}

func NewDataReadyGyro(src imu.RawReader, every int) *DataReadyGyro {
	if every < 1 {
		every = 1
	}
	return &DataReadyGyro{src: src, Every: every}
}

func (g *DataReadyGyro) TryRead() (imu.Rates, bool) {
	g.polls++
	if g.polls%g.Every != 0 {
		return imu.Rates{}, false
	}
	r, err := g.src.ReadRaw(context.Background())
	if err != nil {
		return imu.Rates{}, false
	}
	return r, true
}
