package isp

import (
	"context"
	"fmt"
	"math"

	"github.com/goplus/isp/pkgs/frame"
)

// BlackLevel subtracts the sensor pedestal from every sample.
type BlackLevel struct {
	Level float64
}

func (*BlackLevel) Name() string { return StageBLC }

func (b *BlackLevel) Process(ctx context.Context, in *frame.RGB) (*frame.RGB, error) {
	out := frame.NewRGB(in.Width, in.Height)
	for i, v := range in.Pix {
		out.Pix[i] = v - b.Level
	}
	return out, nil
}

// LensShading divides every channel by a gain map to undo vignetting.
// Where the map is 0 the output is 0.
type LensShading struct {
	Map *frame.Plane
}

func (*LensShading) Name() string { return StageLSC }

func (l *LensShading) Process(ctx context.Context, in *frame.RGB) (*frame.RGB, error) {
	if l.Map == nil || l.Map.Width != in.Width || l.Map.Height != in.Height {
		w, h := 0, 0
		if l.Map != nil {
			w, h = l.Map.Width, l.Map.Height
		}
		return nil, fmt.Errorf("%w: shading map %dx%d, image %dx%d", ErrSizeMismatch, w, h, in.Width, in.Height)
	}
	out := frame.NewRGB(in.Width, in.Height)
	for i, m := range l.Map.Pix {
		for c := range 3 {
			if m != 0 {
				out.Pix[3*i+c] = in.Pix[3*i+c] / m
			}
		}
	}
	return out, nil
}

// RadialShading returns a w x h vignetting map falling from 1 at the
// centre to 1-strength at the corners, following r^2.
func RadialShading(w, h int, strength float64) *frame.Plane {
	m := frame.NewPlane(max(w, 0), max(h, 0))
	cx, cy := float64(w)/2, float64(h)/2
	r2max := cx*cx + cy*cy
	if r2max == 0 {
		r2max = 1
	}
	for y := range m.Height {
		dy := float64(y) + 0.5 - cy
		for x := range m.Width {
			dx := float64(x) + 0.5 - cx
			m.Set(x, y, 1-strength*math.Min((dx*dx+dy*dy)/r2max, 1))
		}
	}
	return m
}
