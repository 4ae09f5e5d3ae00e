// Package scene generates synthetic test scenes with radiance in [0, 1].
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/goplus/isp/pkgs/frame"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	ErrUnknownKind = errors.New("unknown scene kind")
	ErrInvalidSize = errors.New("scene size must be positive")
)

// Kind names a scene generator.
type Kind string

const (
	KindGradient     Kind = "gradient"
	KindCheckerboard Kind = "checkerboard"
	KindSlantedEdge  Kind = "slanted-edge"
	KindRadialLines  Kind = "radial-lines"
)

// Kinds lists the scenes Generate knows.
var Kinds = []Kind{KindGradient, KindCheckerboard, KindSlantedEdge, KindRadialLines}

// Generate builds the named scene with its standard parameters: an 8x8
// checkerboard, a 20 degree slanted edge and a 16 spoke star.
func Generate(kind Kind, w, h int) (*frame.Plane, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	switch kind {
	case KindGradient:
		return Gradient(w, h), nil
	case KindCheckerboard:
		return Checkerboard(w, h, 8, 8), nil
	case KindSlantedEdge:
		return SlantedEdge(w, h, 20), nil
	case KindRadialLines:
		return RadialLines(w, h, 16), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Gradient brightens linearly from 0 at the top row; row y has value y/h.
func Gradient(w, h int) *frame.Plane {
	p := frame.NewPlane(w, h)
	for y := range h {
		v := float64(y) / float64(h)
		row := p.Row(y)
		for x := range row {
			row[x] = v
		}
	}
	return p
}

// Checkerboard tiles the image with nx by ny squares, white in the top
// left corner.
func Checkerboard(w, h, nx, ny int) *frame.Plane {
	p := frame.NewPlane(w, h)
	nx, ny = max(nx, 1), max(ny, 1)
	for y := range h {
		cy := y * ny / h
		for x := range w {
			cx := x * nx / w
			if (cx+cy)%2 == 0 {
				p.Set(x, y, 1)
			}
		}
	}
	return p
}

// SlantedEdge is a bright right half separated from a dark left half by an
// edge through the centre, tilted angleDeg from vertical so that it drifts
// right towards the bottom.
func SlantedEdge(w, h int, angleDeg float64) *frame.Plane {
	p := frame.NewPlane(w, h)
	a := angleDeg * math.Pi / 180
	sin, cos := math.Sincos(a)
	cx, cy := float64(w)/2, float64(h)/2
	for y := range h {
		dy := float64(y) + 0.5 - cy
		for x := range w {
			dx := float64(x) + 0.5 - cx
			if dx*cos-dy*sin > 0 {
				p.Set(x, y, 1)
			}
		}
	}
	return p
}

// RadialLines is a Siemens star: n bright spokes alternating with n dark
// ones around the centre.
func RadialLines(w, h, n int) *frame.Plane {
	p := frame.NewPlane(w, h)
	n = max(n, 1)
	cx, cy := float64(w)/2, float64(h)/2
	sectors := float64(2 * n)
	for y := range h {
		dy := float64(y) + 0.5 - cy
		for x := range w {
			dx := float64(x) + 0.5 - cx
			theta := math.Atan2(dy, dx) + math.Pi
			s := int(theta / (2 * math.Pi) * sectors)
			if s%2 == 0 {
				p.Set(x, y, 1)
			}
		}
	}
	return p
}
