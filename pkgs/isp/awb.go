package isp

import (
	"context"
	"slices"

	"github.com/goplus/isp/pkgs/frame"
)

// DefaultAWBPercent is the share of samples clipped at each end.
const DefaultAWBPercent = 2

// AutoWhiteBalance stretches every channel independently so that its
// Percent-th percentile maps to 0 and its (100-Percent)-th percentile maps
// to OutputMax, equalising the channels of a grey world.
type AutoWhiteBalance struct {
	Percent   float64
	OutputMax float64
}

func (*AutoWhiteBalance) Name() string { return StageAWB }

func (a *AutoWhiteBalance) Process(ctx context.Context, in *frame.RGB) (*frame.RGB, error) {
	out := frame.NewRGB(in.Width, in.Height)
	for _, c := range []frame.Channel{frame.R, frame.G, frame.B} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := in.Channel(c)
		lo, hi := percentiles(p.Pix, a.Percent)
		if hi > lo {
			gain := a.OutputMax / (hi - lo)
			for i, v := range p.Pix {
				p.Pix[i] = min(max((v-lo)*gain, 0), a.OutputMax)
			}
		}
		out.SetChannel(c, p)
	}
	return out, nil
}

// percentiles returns the pct-th and (100-pct)-th percentile of pix.
func percentiles(pix []float64, pct float64) (lo, hi float64) {
	if len(pix) == 0 {
		return 0, 0
	}
	sorted := slices.Clone(pix)
	slices.Sort(sorted)
	pct = min(max(pct, 0), 50)
	last := len(sorted) - 1
	i := int(pct / 100 * float64(last))
	return sorted[i], sorted[last-i]
}
