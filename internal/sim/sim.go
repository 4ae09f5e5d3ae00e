package sim

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/goplus/isp/pkgs/cfa"
	"github.com/goplus/isp/pkgs/frame"
	"github.com/goplus/isp/pkgs/imageio"
	"github.com/goplus/isp/pkgs/isp"
	"github.com/goplus/isp/pkgs/scene"
	"github.com/goplus/isp/pkgs/sensor"
)

// Output file names.
const (
	SceneFile   = "scene.png"
	OutputFile  = "sensor_output.png"
	PreviewFile = "sensor_preview.png"
	RawTIFF     = "sensor_raw.tiff"
	OutputTIFF  = "sensor_output.tiff"
)

// Result summarises a finished run.
type Result struct {
	Files   []string
	Max     float64 // brightest output sample, in digital numbers
	Scale   float64 // factor applied for the 8-bit output
	Elapsed time.Duration
}

// Run simulates one exposure as described by cfg and writes the images to
// cfg.OutputDir.
func Run(ctx context.Context, cfg *Config, L hclog.Logger) (*Result, error) {
	if L == nil {
		L = hclog.L()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	pattern, err := cfa.New(cfg.CFA)
	if err != nil {
		return nil, err
	}
	if err := pattern.UpdateWeights(cfg.ColorWeights); err != nil {
		return nil, err
	}
	depth, err := frame.ParseDepth(cfg.BitDepth)
	if err != nil {
		return nil, err
	}

	sc, err := scene.Generate(scene.Kind(cfg.Pattern), cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	L.Debug("scene generated", "pattern", cfg.Pattern, "width", cfg.Width, "height", cfg.Height)

	s, err := sensor.New(depth, cfg.Width, cfg.Height, sensor.WithSeed(cfg.Seed))
	if err != nil {
		return nil, err
	}
	if err := s.CaptureLight(sc); err != nil {
		return nil, err
	}
	psf, err := sensor.GaussianPSF(cfg.PSFSize, cfg.PSFSigma)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyDiffraction(ctx, psf); err != nil {
		return nil, fmt.Errorf("diffraction: %w", err)
	}
	if err := s.AddNoise(ctx, cfg.Noise); err != nil {
		return nil, fmt.Errorf("noise: %w", err)
	}
	if err := s.ApplyCFA(ctx, pattern); err != nil {
		return nil, fmt.Errorf("cfa: %w", err)
	}
	raw := s.Raw().Clone()
	rgb, err := s.Demosaic(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("demosaic: %w", err)
	}
	L.Debug("sensor exposed", "depth", depth.String(), "cfa", pattern.String(), "noise", cfg.Noise)

	stages, err := isp.ParseStages(cfg.Stages, isp.StageOptions{
		Depth:      depth,
		BlackLevel: cfg.BlackLevel,
		Shading:    cfg.Shading,
		Width:      cfg.Width,
		Height:     cfg.Height,
	})
	if err != nil {
		return nil, err
	}
	pipeline := &isp.Pipeline{L: L.Named("isp"), Depth: depth, Stages: stages}
	out, err := pipeline.Process(ctx, rgb)
	if err != nil {
		return nil, err
	}

	res := &Result{Max: out.Max(), Scale: imageio.Scale8(out, depth)}
	write := func(name string, img image.Image) error {
		path := filepath.Join(cfg.OutputDir, name)
		if err := imageio.Write(path, img); err != nil {
			return err
		}
		L.Debug("wrote image", "path", path)
		res.Files = append(res.Files, path)
		return nil
	}

	if err := write(SceneFile, imageio.ToGray8(sc, 255)); err != nil {
		return nil, err
	}
	out8 := imageio.ToRGB8(out, depth)
	if err := write(OutputFile, out8); err != nil {
		return nil, err
	}
	if cfg.PreviewWidth > 0 {
		if err := write(PreviewFile, imageio.Preview(out8, cfg.PreviewWidth, 0)); err != nil {
			return nil, err
		}
	}
	if cfg.TIFF {
		if err := write(RawTIFF, imageio.ToGray16(raw, depth)); err != nil {
			return nil, err
		}
		if err := write(OutputTIFF, imageio.ToRGB16(out, depth)); err != nil {
			return nil, err
		}
	}

	res.Elapsed = time.Since(start)
	L.Info("simulation finished", "files", len(res.Files), "max", res.Max, "elapsed", res.Elapsed)
	return res, nil
}
