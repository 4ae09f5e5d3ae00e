// Package cfa models a 2x2 colour filter array laid over the sensor.
package cfa

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultPattern is a red-clear-clear-blue array.
const DefaultPattern = "RCCB"

var (
	ErrInvalidPattern = errors.New("CFA pattern must be 4 characters from R, G, B, C")
	ErrInvalidWeight  = errors.New("invalid color weight")
)

// Color is the filter over a single photosite.
type Color int

const (
	Red Color = iota
	Green
	Blue
	Clear
)

// Colors lists every filter colour.
var Colors = []Color{Red, Green, Blue, Clear}

var defaultWeights = [4]float64{
	Red:   0.299,
	Green: 0.587,
	Blue:  0.114,
	Clear: 1.0,
}

// DefaultWeight returns the transmission used for c until it is changed.
func DefaultWeight(c Color) float64 {
	return defaultWeights[c]
}

// ParseColor returns the colour for one of the letters R, G, B and C.
func ParseColor(b byte) (Color, error) {
	switch b {
	case 'R':
		return Red, nil
	case 'G':
		return Green, nil
	case 'B':
		return Blue, nil
	case 'C':
		return Clear, nil
	}
	return 0, fmt.Errorf("%w: unknown color %q", ErrInvalidPattern, b)
}

func (c Color) String() string {
	return string("RGBC"[c])
}

// Pattern is a 2x2 tile, row-major, repeated over the sensor, plus the
// transmission weight of each filter colour.
type Pattern struct {
	tile    [4]Color
	weights [4]float64
}

// New parses a pattern such as "RGGB" or "RCCB".
func New(s string) (*Pattern, error) {
	if len(s) != 4 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPattern, s)
	}
	p := &Pattern{weights: defaultWeights}
	for i := range 4 {
		c, err := ParseColor(s[i])
		if err != nil {
			return nil, err
		}
		p.tile[i] = c
	}
	return p, nil
}

// At returns the filter colour over the photosite at (x, y).
func (p *Pattern) At(x, y int) Color {
	return p.tile[(y%2)*2+x%2]
}

// Tile returns the 2x2 tile in row-major order.
func (p *Pattern) Tile() [4]Color {
	return p.tile
}

// Has reports whether c appears in the tile.
func (p *Pattern) Has(c Color) bool {
	for _, t := range p.tile {
		if t == c {
			return true
		}
	}
	return false
}

func (p *Pattern) Weight(c Color) float64 {
	return p.weights[c]
}

func (p *Pattern) SetWeight(c Color, w float64) {
	p.weights[c] = w
}

// UpdateWeights applies entries of the form "R:0.25". Weights must be
// finite and non-negative. Nothing is changed if any entry is invalid.
func (p *Pattern) UpdateWeights(entries []string) error {
	weights := p.weights
	for _, e := range entries {
		name, value, ok := strings.Cut(e, ":")
		name = strings.TrimSpace(name)
		if !ok || len(name) != 1 {
			return fmt.Errorf("%w: %q, want COLOR:WEIGHT", ErrInvalidWeight, e)
		}
		c, err := ParseColor(name[0])
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidWeight, e)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("%w: %q", ErrInvalidWeight, e)
		}
		weights[c] = w
	}
	p.weights = weights
	return nil
}

func (p *Pattern) String() string {
	var b strings.Builder
	for _, c := range p.tile {
		b.WriteString(c.String())
	}
	return b.String()
}
