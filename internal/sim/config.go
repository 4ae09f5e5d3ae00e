// Package sim runs the sensor simulation end to end: scene generation,
// exposure, optics, noise, colour filtering, demosaicing, the ISP stages
// and image output.
package sim

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/goplus/isp/pkgs/cfa"
	"github.com/goplus/isp/pkgs/frame"
	"github.com/goplus/isp/pkgs/isp"
	"github.com/goplus/isp/pkgs/scene"
	"github.com/goplus/isp/pkgs/sensor"
)

const (
	DefaultNoise      = 0.5
	DefaultBlackLevel = 64
	DefaultShading    = 0.3

	// MaxPixels bounds Width*Height; it admits an 8K UHD frame.
	MaxPixels = 1 << 25
)

// Config describes a simulation run. It is read from YAML and overridden
// by command line flags.
type Config struct {
	Width        int      `yaml:"width"`
	Height       int      `yaml:"height"`
	BitDepth     int      `yaml:"bit_depth"`
	Noise        float64  `yaml:"noise"`
	CFA          string   `yaml:"cfa"`
	ColorWeights []string `yaml:"color_weights,omitempty"`
	Pattern      string   `yaml:"pattern"`
	PSFSize      int      `yaml:"psf_size"`
	PSFSigma     float64  `yaml:"psf_sigma"`
	Seed         uint64   `yaml:"seed"`

	Stages     []string `yaml:"isp,omitempty"`
	BlackLevel float64  `yaml:"black_level"`
	Shading    float64  `yaml:"shading"`

	OutputDir    string `yaml:"output"`
	TIFF         bool   `yaml:"tiff"`
	PreviewWidth int    `yaml:"preview_width"`
}

// DefaultConfig returns the configuration of a plain run: a 640x480 16-bit
// RCCB sensor looking at a gradient, no ISP stages, PNG output in the
// current directory.
func DefaultConfig() *Config {
	return &Config{
		Width:      scene.DefaultWidth,
		Height:     scene.DefaultHeight,
		BitDepth:   int(sensor.DefaultDepth),
		Noise:      DefaultNoise,
		CFA:        cfa.DefaultPattern,
		Pattern:    string(scene.KindGradient),
		PSFSize:    sensor.DefaultPSFSize,
		PSFSigma:   sensor.DefaultPSFSigma,
		Seed:       1,
		BlackLevel: DefaultBlackLevel,
		Shading:    DefaultShading,
		OutputDir:  ".",
	}
}

// LoadConfig reads a YAML file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read simulation config"), "path", path)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse simulation config"), "path", path)
	}
	return cfg, nil
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: %dx%d", scene.ErrInvalidSize, c.Width, c.Height))
	} else if c.Width > MaxPixels/c.Height {
		errs = append(errs, fmt.Errorf("%w: %dx%d exceeds %d pixels", scene.ErrInvalidSize, c.Width, c.Height, MaxPixels))
	}
	if _, err := frame.ParseDepth(c.BitDepth); err != nil {
		errs = append(errs, err)
	}
	if !(c.Noise >= 0) {
		errs = append(errs, fmt.Errorf("%w: %v", sensor.ErrInvalidNoise, c.Noise))
	}
	if p, err := cfa.New(c.CFA); err != nil {
		errs = append(errs, err)
	} else if err := p.UpdateWeights(c.ColorWeights); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(scene.Kinds, scene.Kind(c.Pattern)) {
		errs = append(errs, fmt.Errorf("%w: %q", scene.ErrUnknownKind, c.Pattern))
	}
	if _, err := sensor.GaussianKernel(c.PSFSize, c.PSFSigma); err != nil {
		errs = append(errs, err)
	}
	if _, err := isp.ParseStages(c.Stages, isp.StageOptions{}); err != nil {
		errs = append(errs, err)
	}
	if c.BlackLevel < 0 {
		errs = append(errs, fmt.Errorf("black level must not be negative: %v", c.BlackLevel))
	}
	if !(c.Shading >= 0 && c.Shading < 1) {
		errs = append(errs, fmt.Errorf("shading strength must be in [0, 1): %v", c.Shading))
	}
	if c.PreviewWidth < 0 || c.PreviewWidth > max(c.Width, 0) {
		errs = append(errs, fmt.Errorf("preview width must be in [0, %d]: %d", max(c.Width, 0), c.PreviewWidth))
	}
	return errors.Join(errs...)
}
