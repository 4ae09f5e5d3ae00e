package isp

import (
	"context"
	"math"

	"github.com/goplus/isp/internal/parallel"
	"github.com/goplus/isp/pkgs/frame"
)

// Non-local means defaults, with H given for 8-bit samples.
const (
	DefaultDenoiseH = 30
	DefaultTemplate = 7
	DefaultSearch   = 21
)

// Denoise is non-local means filtering applied to each channel. Every
// pixel becomes a weighted mean of the pixels in its Search x Search
// window, weighted by exp(-d/H^2) where d is the mean squared difference
// of the Template x Template patches around the two pixels.
type Denoise struct {
	H        float64
	Template int
	Search   int
}

func (*Denoise) Name() string { return StageDenoise }

func (d *Denoise) Process(ctx context.Context, in *frame.RGB) (*frame.RGB, error) {
	out := frame.NewRGB(in.Width, in.Height)
	if d.H <= 0 {
		copy(out.Pix, in.Pix)
		return out, nil
	}
	for _, c := range []frame.Channel{frame.R, frame.G, frame.B} {
		p, err := d.plane(ctx, in.Channel(c))
		if err != nil {
			return nil, err
		}
		out.SetChannel(c, p)
	}
	return out, nil
}

func (d *Denoise) plane(ctx context.Context, src *frame.Plane) (*frame.Plane, error) {
	tr := max(d.Template, 1) / 2
	sr := max(d.Search, 1) / 2
	w, h := src.Width, src.Height
	dst := frame.NewPlane(w, h)
	invH2 := 1 / (d.H * d.H)
	area := float64((2*tr + 1) * (2*tr + 1))

	at := func(x, y int) float64 {
		return src.At(reflect101(x, w), reflect101(y, h))
	}

	err := parallel.Rows(ctx, h, func(y0, y1 int) error {
		bh := y1 - y0
		// Integral image of squared patch differences over the band plus
		// a template margin, one row and column of zero padding first.
		iw, ih := w+2*tr+1, bh+2*tr+1
		integral := make([]float64, iw*ih)
		sum := make([]float64, w*bh)
		wsum := make([]float64, w*bh)

		for dy := -sr; dy <= sr; dy++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			for dx := -sr; dx <= sr; dx++ {
				for j := 1; j < ih; j++ {
					y := y0 - tr + j - 1
					var rowAcc float64
					for i := 1; i < iw; i++ {
						x := i - 1 - tr
						diff := at(x, y) - at(x+dx, y+dy)
						rowAcc += diff * diff
						integral[j*iw+i] = integral[(j-1)*iw+i] + rowAcc
					}
				}
				for by := range bh {
					y := y0 + by
					for x := range w {
						// Patch centred on (x, y) spans integral cells
						// [x, x+2tr+1) by [by, by+2tr+1).
						x0, x1 := x, x+2*tr+1
						r0, r1 := by, by+2*tr+1
						ssd := integral[r1*iw+x1] - integral[r0*iw+x1] - integral[r1*iw+x0] + integral[r0*iw+x0]
						wt := math.Exp(-ssd / area * invH2)
						k := by*w + x
						sum[k] += wt * at(x+dx, y+dy)
						wsum[k] += wt
					}
				}
			}
		}
		for by := range bh {
			row := dst.Row(y0 + by)
			for x := range row {
				k := by*w + x
				row[x] = sum[k] / wsum[k]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dst, nil
}

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
