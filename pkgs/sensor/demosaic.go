package sensor

import (
	"context"

	"github.com/goplus/isp/internal/parallel"
	"github.com/goplus/isp/pkgs/cfa"
	"github.com/goplus/isp/pkgs/frame"
)

var primaries = [3]cfa.Color{cfa.Red, cfa.Green, cfa.Blue}

// Demosaic reconstructs a full colour image from the filtered photosites.
// Each colour in the tile is taken from the photosite itself or averaged
// over the neighbours carrying that filter in the surrounding 3x3 window.
// Primaries missing from the tile are recovered from the clear channel as
// what the present primaries leave over, split by the default weights;
// without a clear filter they stay 0.
func (s *Sensor) Demosaic(ctx context.Context, p *cfa.Pattern) (*frame.RGB, error) {
	raw := s.raw
	out := frame.NewRGB(raw.Width, raw.Height)

	var present [4]bool
	for _, c := range cfa.Colors {
		present[c] = p.Has(c)
	}
	var missingWeight float64
	for _, c := range primaries {
		if !present[c] {
			missingWeight += cfa.DefaultWeight(c)
		}
	}

	err := parallel.Rows(ctx, raw.Height, func(y0, y1 int) error {
		for y := y0; y < y1; y++ {
			for x := range raw.Width {
				var sum, n [4]float64
				for dy := -1; dy <= 1; dy++ {
					sy := reflect101(y+dy, raw.Height)
					for dx := -1; dx <= 1; dx++ {
						sx := reflect101(x+dx, raw.Width)
						c := p.At(sx, sy)
						sum[c] += raw.At(sx, sy)
						n[c]++
					}
				}
				var est [4]float64
				for c := range est {
					if n[c] > 0 {
						est[c] = sum[c] / n[c]
					}
				}
				own := p.At(x, y)
				est[own] = raw.At(x, y)

				var rgb [3]float64
				var known float64
				for i, c := range primaries {
					if present[c] {
						rgb[i] = est[c]
						known += est[c]
					}
				}
				if present[cfa.Clear] && missingWeight > 0 {
					rest := max(est[cfa.Clear]-known, 0)
					for i, c := range primaries {
						if !present[c] {
							rgb[i] = rest * cfa.DefaultWeight(c) / missingWeight
						}
					}
				}
				out.Set(x, y,
					s.depth.Quantize(rgb[0]),
					s.depth.Quantize(rgb[1]),
					s.depth.Quantize(rgb[2]))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
