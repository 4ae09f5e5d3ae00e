// Package isp implements image signal processing stages applied to a
// demosaiced sensor image.
package isp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/goplus/isp/pkgs/frame"
)

var (
	ErrUnknownStage = errors.New("unknown ISP stage")
	ErrSizeMismatch = errors.New("size mismatch")
)

// Stage transforms an image. Implementations must not modify their input.
type Stage interface {
	Name() string
	Process(ctx context.Context, in *frame.RGB) (*frame.RGB, error)
}

// Pipeline runs stages in order. After every stage samples are brought
// back to what the sensor depth can hold.
type Pipeline struct {
	L      hclog.Logger
	Depth  frame.Depth
	Stages []Stage
}

func (p *Pipeline) Process(ctx context.Context, in *frame.RGB) (*frame.RGB, error) {
	L := p.L
	if L == nil {
		L = hclog.L()
	}
	out := in
	for _, s := range p.Stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := s.Process(ctx, out)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
		if p.Depth.Valid() {
			next.Quantize(p.Depth)
		}
		L.Debug("stage done", "stage", s.Name(), "max", next.Max())
		out = next
	}
	if out == in {
		out = in.Clone()
	}
	return out, nil
}

// StageOptions carries the parameters ParseStages needs.
type StageOptions struct {
	Depth      frame.Depth
	BlackLevel float64 // in 8-bit units, scaled to Depth
	Shading    float64 // radial fall-off strength for lsc
	Width      int
	Height     int
}

// Stage names accepted by ParseStages.
const (
	StageAWB     = "awb"
	StageDenoise = "denoise"
	StageBLC     = "blc"
	StageLSC     = "lsc"
)

// ParseStages builds the named stages in order.
func ParseStages(names []string, opts StageOptions) ([]Stage, error) {
	scale := 1.0
	if opts.Depth.Valid() {
		scale = opts.Depth.FullScale() / 255
	}
	var stages []Stage
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case StageAWB:
			stages = append(stages, &AutoWhiteBalance{Percent: DefaultAWBPercent, OutputMax: opts.Depth.FullScale()})
		case StageDenoise:
			stages = append(stages, &Denoise{
				H:        DefaultDenoiseH * scale,
				Template: DefaultTemplate,
				Search:   DefaultSearch,
			})
		case StageBLC:
			stages = append(stages, &BlackLevel{Level: opts.BlackLevel * scale})
		case StageLSC:
			stages = append(stages, &LensShading{Map: RadialShading(opts.Width, opts.Height, opts.Shading)})
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStage, name)
		}
	}
	return stages, nil
}
