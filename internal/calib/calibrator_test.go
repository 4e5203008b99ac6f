package calib_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/flightcore/internal/calib"
	"github.com/san-kum/flightcore/internal/imu"
	"github.com/san-kum/flightcore/internal/models"
)

var trueBias = imu.Rates{Roll: 105, Pitch: 95, Yaw: -21}

func fastConfig() calib.Config {
	cfg := calib.DefaultConfig()
	cfg.Interval = 0
	return cfg
}

func expectWithin(got, want imu.Rates, tol float64) {
	ExpectWithOffset(1, got.Sub(want).Within(tol)).To(BeTrue(), "got %+v, want %+v within %f", got, want, tol)
}

var _ = Describe("Calibrator", func() {
	var (
		ctx    context.Context
		src    *imu.Source
		events []calib.Event
	)

	record := calib.WithObserver(func(ev calib.Event) { events = append(events, ev) })

	BeforeEach(func() {
		ctx = context.Background()
		events = nil
	})

	Context("with a stationary gyro", func() {
		BeforeEach(func() {
			src = imu.NewSource(models.NewStationaryGyro(trueBias, 20, 42))
		})

		It("converges on the true bias", func() {
			c := calib.New(src, fastConfig(), record)

			res, err := c.Calibrate(ctx)
			Expect(err).NotTo(HaveOccurred())

			expectWithin(res.Bias, trueBias, calib.DefaultTolerance)
			Expect(res.Residual.Within(calib.DefaultTolerance)).To(BeTrue())
			Expect(res.Attempts).To(Equal(1))
			Expect(res.Samples).To(Equal(2*calib.DefaultSamples + calib.DefaultInitialIterations))
			Expect(src.Bias()).To(Equal(res.Bias))
			Expect(c.State()).To(Equal(calib.Calibrated))
		})

		It("walks the state machine in order", func() {
			_, err := calib.New(src, fastConfig(), record).Calibrate(ctx)
			Expect(err).NotTo(HaveOccurred())

			states := make([]calib.State, 0, len(events))
			for _, ev := range events {
				states = append(states, ev.State)
			}
			Expect(states).To(Equal([]calib.State{
				calib.Validating, calib.Reestimating, calib.Validating, calib.Calibrated,
			}))
		})

		It("starts from a zero bias regardless of the standing one", func() {
			src.SetBias(imu.Rates{Roll: 5000})
			_, err := calib.New(src, fastConfig(), record).Calibrate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(events[0].Average).To(Equal(imu.Rates{}))
		})

		It("paces every read with the configured interval", func() {
			var sleeps []time.Duration
			cfg := calib.DefaultConfig()
			c := calib.New(src, cfg, calib.WithSleep(func(ctx context.Context, d time.Duration) error {
				sleeps = append(sleeps, d)
				return nil
			}))

			res, err := c.Calibrate(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(sleeps).To(HaveLen(res.Samples))
			Expect(sleeps).To(HaveEach(cfg.Interval))
		})
	})

	Context("with an unbiased quiet gyro", func() {
		It("accepts the first validation", func() {
			src = imu.NewSource(models.NewStationaryGyro(imu.Rates{}, 2, 7))
			res, err := calib.New(src, fastConfig()).Calibrate(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Attempts).To(BeZero())
			Expect(res.Bias).To(Equal(imu.Rates{}))
		})
	})

	Context("with a gyro that never stops moving", func() {
		previous := imu.Rates{Roll: 1, Pitch: 2, Yaw: 3}

		BeforeEach(func() {
			src = imu.NewSource(models.NewMovingGyro(trueBias, 5, imu.Rates{Roll: 1}, 3))
			src.SetBias(previous)
		})

		It("gives up after the attempt budget", func() {
			cfg := fastConfig()
			cfg.MaxAttempts = 3

			c := calib.New(src, cfg)
			_, err := c.Calibrate(ctx)

			Expect(err).To(MatchError(calib.ErrNotConverged))
			var cerr *calib.Error
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Attempts).To(Equal(4))
			Expect(cerr.Residual.Within(cfg.Tolerance)).To(BeFalse())
			Expect(src.Bias()).To(Equal(previous))
			Expect(c.State()).To(Equal(calib.Failed))
		})

		It("grows the raw sample count up to the cap", func() {
			cfg := fastConfig()
			cfg.MaxAttempts = 11

			_, err := calib.New(src, cfg, record).Calibrate(ctx)
			Expect(err).To(HaveOccurred())

			var iterations []int
			for _, ev := range events {
				if ev.State == calib.Reestimating {
					iterations = append(iterations, ev.Iterations)
				}
			}
			Expect(iterations).To(Equal([]int{300, 500, 700, 900, 1100, 1300, 1500, 1700, 1900, 2000, 2000}))
		})

		It("stops on timeout when retries are unbounded", func() {
			cfg := fastConfig()
			cfg.MaxAttempts = 0
			cfg.Timeout = 20 * time.Millisecond

			_, err := calib.New(src, cfg).Calibrate(ctx)

			Expect(err).To(MatchError(calib.ErrCanceled))
			Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
			Expect(src.Bias()).To(Equal(previous))
		})

		It("stops when the caller cancels", func() {
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()

			cfg := fastConfig()
			cfg.MaxAttempts = 0
			c := calib.New(src, cfg, calib.WithObserver(func(ev calib.Event) {
				if ev.State == calib.Reestimating && ev.Attempt == 2 {
					cancel()
				}
			}))

			_, err := c.Calibrate(cctx)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(errors.Is(err, calib.ErrCanceled)).To(BeTrue())
		})
	})

	It("rejects an invalid config", func() {
		cfg := calib.DefaultConfig()
		cfg.Samples = 0
		_, err := calib.New(imu.NewSource(models.NewStationaryGyro(imu.Rates{}, 0, 1)), cfg).Calibrate(ctx)
		Expect(err).To(HaveOccurred())
	})

	DescribeTable("Validate tolerance",
		func(tol float64, valid bool) {
			cfg := calib.DefaultConfig()
			cfg.Tolerance = tol
			if valid {
				Expect(cfg.Validate()).To(Succeed())
			} else {
				Expect(cfg.Validate()).To(HaveOccurred())
			}
		},
		Entry("default", calib.DefaultTolerance, true),
		Entry("zero", 0.0, false),
		Entry("negative", -1.0, false),
		Entry("nan", math.NaN(), false),
	)
})

var _ = Describe("State", func() {
	DescribeTable("String",
		func(s calib.State, want string) {
			Expect(s.String()).To(Equal(want))
		},
		Entry("uncalibrated", calib.Uncalibrated, "uncalibrated"),
		Entry("validating", calib.Validating, "averaging-validation"),
		Entry("re-estimating", calib.Reestimating, "re-estimating-raw-bias"),
		Entry("calibrated", calib.Calibrated, "calibrated"),
		Entry("failed", calib.Failed, "failed"),
	)
})
