// Package frame holds the pixel containers passed between scene, sensor
// and processing stages. Samples are float64 in sensor digital numbers.
package frame

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedDepth is returned for a bit depth the sensor cannot hold.
var ErrUnsupportedDepth = errors.New("unsupported bit depth")

// Depth is a sensor bit depth.
type Depth int

const (
	Depth8  Depth = 8
	Depth10 Depth = 10
	Depth12 Depth = 12
	Depth14 Depth = 14
	Depth16 Depth = 16
	Depth32 Depth = 32 // float32 samples
	Depth64 Depth = 64 // float64 samples
)

// Depths lists the supported bit depths.
var Depths = []Depth{Depth8, Depth10, Depth12, Depth14, Depth16, Depth32, Depth64}

// ParseDepth returns the Depth for n bits.
func ParseDepth(n int) (Depth, error) {
	d := Depth(n)
	if !d.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedDepth, n)
	}
	return d, nil
}

func (d Depth) Valid() bool {
	switch d {
	case Depth8, Depth10, Depth12, Depth14, Depth16, Depth32, Depth64:
		return true
	}
	return false
}

// IsFloat reports whether samples are stored as floating point.
func (d Depth) IsFloat() bool {
	return d == Depth32 || d == Depth64
}

// FullScale is the sample value a fully exposed pixel reaches: 2^n-1 for
// integer depths and 65535 for floating point depths.
func (d Depth) FullScale() float64 {
	if d.IsFloat() {
		return 65535
	}
	return float64(uint64(1)<<uint(d) - 1)
}

// Quantize converts v to what a sample of depth d can hold: rounded and
// saturated to [0, FullScale] for integer depths, rounded to float32 for
// 32 bits and unchanged for 64 bits.
func (d Depth) Quantize(v float64) float64 {
	switch d {
	case Depth64:
		return v
	case Depth32:
		return float64(float32(v))
	}
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if full := d.FullScale(); v >= full {
		return full
	}
	return math.RoundToEven(v)
}

func (d Depth) String() string {
	return fmt.Sprintf("%d-bit", int(d))
}

// Plane is a single-channel image stored row-major.
type Plane struct {
	Width, Height int
	Pix           []float64
}

// NewPlane returns a zeroed w x h plane.
func NewPlane(w, h int) *Plane {
	return &Plane{Width: w, Height: h, Pix: make([]float64, w*h)}
}

func (p *Plane) At(x, y int) float64 { return p.Pix[y*p.Width+x] }

func (p *Plane) Set(x, y int, v float64) { p.Pix[y*p.Width+x] = v }

// Row returns the samples of row y, sharing storage with p.
func (p *Plane) Row(y int) []float64 {
	return p.Pix[y*p.Width : (y+1)*p.Width]
}

func (p *Plane) Clone() *Plane {
	return &Plane{Width: p.Width, Height: p.Height, Pix: append([]float64(nil), p.Pix...)}
}

// Max returns the largest sample, or 0 for an empty plane.
func (p *Plane) Max() float64 {
	return maxOf(p.Pix)
}

// SameSize reports whether p and q have equal dimensions.
func (p *Plane) SameSize(q *Plane) bool {
	return p.Width == q.Width && p.Height == q.Height
}

// Quantize applies d.Quantize to every sample in place.
func (p *Plane) Quantize(d Depth) {
	for i, v := range p.Pix {
		p.Pix[i] = d.Quantize(v)
	}
}

// Channel indexes the samples of an RGB pixel.
type Channel int

const (
	R Channel = iota
	G
	B
)

// RGB is a three-channel image stored as interleaved R, G, B samples.
type RGB struct {
	Width, Height int
	Pix           []float64
}

// NewRGB returns a zeroed w x h image.
func NewRGB(w, h int) *RGB {
	return &RGB{Width: w, Height: h, Pix: make([]float64, 3*w*h)}
}

func (m *RGB) offset(x, y int) int { return 3 * (y*m.Width + x) }

func (m *RGB) At(x, y int) (r, g, b float64) {
	i := m.offset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

func (m *RGB) Set(x, y int, r, g, b float64) {
	i := m.offset(x, y)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

// Channel copies channel c into a new plane.
func (m *RGB) Channel(c Channel) *Plane {
	p := NewPlane(m.Width, m.Height)
	for i := range p.Pix {
		p.Pix[i] = m.Pix[3*i+int(c)]
	}
	return p
}

// SetChannel overwrites channel c with the samples of p.
func (m *RGB) SetChannel(c Channel, p *Plane) {
	for i, v := range p.Pix {
		m.Pix[3*i+int(c)] = v
	}
}

func (m *RGB) Clone() *RGB {
	return &RGB{Width: m.Width, Height: m.Height, Pix: append([]float64(nil), m.Pix...)}
}

// Max returns the largest sample over all channels.
func (m *RGB) Max() float64 {
	return maxOf(m.Pix)
}

// Quantize applies d.Quantize to every sample in place.
func (m *RGB) Quantize(d Depth) {
	for i, v := range m.Pix {
		m.Pix[i] = d.Quantize(v)
	}
}

func maxOf(pix []float64) float64 {
	if len(pix) == 0 {
		return 0
	}
	m := pix[0]
	for _, v := range pix[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
