package sensor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/goplus/isp/internal/parallel"
	"github.com/goplus/isp/pkgs/frame"
)

const (
	DefaultPSFSize  = 7
	DefaultPSFSigma = 1.5
)

var ErrInvalidPSF = errors.New("PSF must have odd, positive dimensions")

// GaussianKernel returns a normalised 1-D Gaussian of the given odd size.
// A non-positive sigma is derived from the size as 0.3*((size-1)/2-1)+0.8.
func GaussianKernel(size int, sigma float64) ([]float64, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidPSF, size)
	}
	if sigma <= 0 {
		sigma = 0.3*(float64(size-1)*0.5-1) + 0.8
	}
	k := make([]float64, size)
	c := float64(size-1) / 2
	twoSigmaSq := 2 * sigma * sigma
	var sum float64
	for i := range k {
		d := float64(i) - c
		k[i] = math.Exp(-d * d / twoSigmaSq)
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k, nil
}

// GaussianPSF returns the size x size point spread function formed by the
// outer product of two Gaussian kernels. It sums to 1.
func GaussianPSF(size int, sigma float64) (*frame.Plane, error) {
	k, err := GaussianKernel(size, sigma)
	if err != nil {
		return nil, err
	}
	psf := frame.NewPlane(size, size)
	for y, ky := range k {
		for x, kx := range k {
			psf.Set(x, y, ky*kx)
		}
	}
	return psf, nil
}

// ApplyDiffraction blurs the sensor with psf, centred on each photosite.
// Samples outside the sensor are mirrored without repeating the edge.
func (s *Sensor) ApplyDiffraction(ctx context.Context, psf *frame.Plane) error {
	if psf.Width <= 0 || psf.Height <= 0 || psf.Width%2 == 0 || psf.Height%2 == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidPSF, psf.Width, psf.Height)
	}
	src := s.raw
	dst := frame.NewPlane(src.Width, src.Height)
	ax, ay := psf.Width/2, psf.Height/2
	err := parallel.Rows(ctx, src.Height, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			row := dst.Row(y)
			for x := range row {
				var acc float64
				for j := range psf.Height {
					sy := reflect101(y+j-ay, src.Height)
					for i := range psf.Width {
						acc += psf.At(i, j) * src.At(reflect101(x+i-ax, src.Width), sy)
					}
				}
				row[x] = s.depth.Quantize(acc)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.raw = dst
	return nil
}

// reflect101 maps i into [0, n) by mirroring about the edge samples:
// -1 maps to 1 and n maps to n-2. Parity is preserved for n > 1.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}
