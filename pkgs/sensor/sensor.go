// Package sensor simulates an image sensor: exposure, optical blur,
// read noise, the colour filter array and demosaicing.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/goplus/isp/internal/parallel"
	"github.com/goplus/isp/pkgs/cfa"
	"github.com/goplus/isp/pkgs/frame"
)

// DefaultDepth is the bit depth used when none is given.
const DefaultDepth = frame.Depth16

var (
	ErrInvalidSize  = errors.New("sensor size must be positive")
	ErrSizeMismatch = errors.New("image size does not match sensor")
	ErrInvalidNoise = errors.New("noise level must be a non-negative number")
)

// Sensor holds the photosite values of one exposure, in digital numbers.
type Sensor struct {
	depth frame.Depth
	raw   *frame.Plane
	rng   *rand.Rand
}

// Option configures a Sensor.
type Option func(*Sensor)

// WithSeed makes the noise sequence reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Sensor) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// New returns a dark w x h sensor of the given depth.
func New(depth frame.Depth, w, h int, opts ...Option) (*Sensor, error) {
	if !depth.Valid() {
		return nil, fmt.Errorf("%w: %d", frame.ErrUnsupportedDepth, int(depth))
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	s := &Sensor{depth: depth, raw: frame.NewPlane(w, h)}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		WithSeed(uint64(time.Now().UnixNano()))(s)
	}
	return s, nil
}

func (s *Sensor) Depth() frame.Depth { return s.depth }
func (s *Sensor) Width() int         { return s.raw.Width }
func (s *Sensor) Height() int        { return s.raw.Height }

// Raw returns the current photosite values. The plane is owned by the
// sensor and changes with every later operation.
func (s *Sensor) Raw() *frame.Plane { return s.raw }

// CaptureLight exposes the sensor to scene, whose radiance is in [0, 1],
// scaling it to the full scale of the sensor depth.
func (s *Sensor) CaptureLight(scene *frame.Plane) error {
	if !scene.SameSize(s.raw) {
		return fmt.Errorf("%w: scene %dx%d, sensor %dx%d",
			ErrSizeMismatch, scene.Width, scene.Height, s.raw.Width, s.raw.Height)
	}
	full := s.depth.FullScale()
	for i, v := range scene.Pix {
		s.raw.Pix[i] = s.depth.Quantize(v * full)
	}
	return nil
}

// AddNoise adds zero-mean Gaussian noise with standard deviation sigma,
// in digital numbers. The noise sequence is fixed by the sensor's seed.
func (s *Sensor) AddNoise(ctx context.Context, sigma float64) error {
	if !(sigma >= 0) {
		return fmt.Errorf("%w: %v", ErrInvalidNoise, sigma)
	}
	for y := range s.raw.Height {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := s.raw.Row(y)
		for x, v := range row {
			row[x] = s.depth.Quantize(v + s.rng.NormFloat64()*sigma)
		}
	}
	return nil
}

// ApplyCFA attenuates every photosite by the weight of the filter over it.
func (s *Sensor) ApplyCFA(ctx context.Context, p *cfa.Pattern) error {
	return parallel.Rows(ctx, s.raw.Height, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			row := s.raw.Row(y)
			for x, v := range row {
				row[x] = s.depth.Quantize(v * p.Weight(p.At(x, y)))
			}
		}
		return nil
	})
}
