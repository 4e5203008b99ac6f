package imu_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/flightcore/internal/imu"
)

type fixedReader struct {
	r   imu.Rates
	err error
}

func (f *fixedReader) ReadRaw(ctx context.Context) (imu.Rates, error) {
	return f.r, f.err
}

type countdownPoller struct {
	left int
	r    imu.Rates
}

func (c *countdownPoller) TryRead() (imu.Rates, bool) {
	if c.left > 0 {
		c.left--
		return imu.Rates{}, false
	}
	return c.r, true
}

var _ = Describe("Source", func() {
	raw := imu.Rates{Roll: 110, Pitch: 90, Yaw: -20}

	It("subtracts the standing bias from calibrated reads only", func() {
		src := imu.NewSource(&fixedReader{r: raw})
		src.SetBias(imu.Rates{Roll: 100, Pitch: 100, Yaw: -20})

		r, err := src.ReadRaw(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(raw))

		c, err := src.ReadCalibrated(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(c).To(Equal(imu.Rates{Roll: 10, Pitch: -10, Yaw: 0}))
	})

	It("propagates transport errors", func() {
		boom := errors.New("i2c nack")
		src := imu.NewSource(&fixedReader{err: boom})

		_, err := src.ReadCalibrated(context.Background())
		Expect(err).To(MatchError(boom))
	})
})

var _ = Describe("Blocking", func() {
	It("waits for the data-ready sample", func() {
		p := &countdownPoller{left: 3, r: imu.Rates{Yaw: 1}}
		r, err := imu.Blocking(p, time.Microsecond).ReadRaw(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(r.Yaw).To(Equal(1.0))
		Expect(p.left).To(BeZero())
	})

	It("gives up when the context ends", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()

		p := &countdownPoller{left: math.MaxInt}
		_, err := imu.Blocking(p, time.Millisecond).ReadRaw(ctx)
		Expect(err).To(MatchError(context.DeadlineExceeded))
	})
})

var _ = Describe("Rates", func() {
	r := imu.Rates{Roll: -3, Pitch: 9.5, Yaw: 1}

	It("reports the largest magnitude", func() {
		Expect(r.Max()).To(Equal(9.5))
	})

	DescribeTable("Within is strict on every axis",
		func(tol float64, want bool) {
			Expect(r.Within(tol)).To(Equal(want))
		},
		Entry("above all", 10.0, true),
		Entry("equal to max", 9.5, false),
		Entry("below one", 5.0, false),
	)

	It("detects invalid values", func() {
		Expect(r.IsValid()).To(BeTrue())
		Expect(imu.Rates{Pitch: math.NaN()}.IsValid()).To(BeFalse())
		Expect(imu.Rates{Yaw: math.Inf(-1)}.IsValid()).To(BeFalse())
	})
})

var _ = Describe("AttitudeFromEuler", func() {
	It("maps the half-open turn onto the attitude scale", func() {
		a := imu.AttitudeFromEuler(math.Pi, 0, -math.Pi)
		Expect(a.Yaw).To(BeNumerically("~", imu.AttitudeScale, 1e-9))
		Expect(a.Pitch).To(BeNumerically("~", imu.AttitudeScale/2, 1e-9))
		Expect(a.Roll).To(BeNumerically("~", 0, 1e-9))
	})
})
