package imu

import (
	"context"
	"time"
)

// RawReader delivers uncorrected angular rates from the sensor transport.
type RawReader interface {
	ReadRaw(ctx context.Context) (Rates, error)
}

// AttitudeReader delivers absolute orientation samples, typically from a
// motion processor fusing gyro and accelerometer data.
type AttitudeReader interface {
	ReadAttitude(ctx context.Context) (Attitude, error)
}

// Poller is a non-blocking sensor that reports whether a fresh sample is ready.
type Poller interface {
	TryRead() (Rates, bool)
}

// Blocking turns a Poller into a RawReader that waits for the next sample,
// checking every interval until one is ready or ctx is done.
func Blocking(p Poller, interval time.Duration) RawReader {
	return &blockingReader{p: p, interval: interval}
}

type blockingReader struct {
	p        Poller
	interval time.Duration
}

func (b *blockingReader) ReadRaw(ctx context.Context) (Rates, error) {
	for {
		if r, ok := b.p.TryRead(); ok {
			return r, nil
		}
		if b.interval <= 0 {
			if err := ctx.Err(); err != nil {
				return Rates{}, err
			}
			continue
		}
		t := time.NewTimer(b.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return Rates{}, ctx.Err()
		case <-t.C:
		}
	}
}

// Source owns the standing bias of a gyroscope and subtracts it from every
// raw reading. It is not safe for concurrent use.
type Source struct {
	raw  RawReader
	bias Rates
}

func NewSource(raw RawReader) *Source {
	return &Source{raw: raw}
}

func (s *Source) ReadRaw(ctx context.Context) (Rates, error) {
	return s.raw.ReadRaw(ctx)
}

// ReadCalibrated returns the raw reading minus the standing bias.
func (s *Source) ReadCalibrated(ctx context.Context) (Rates, error) {
	r, err := s.raw.ReadRaw(ctx)
	if err != nil {
		return Rates{}, err
	}
	return r.Sub(s.bias), nil
}

func (s *Source) Bias() Rates { return s.bias }

func (s *Source) SetBias(b Rates) { s.bias = b }
