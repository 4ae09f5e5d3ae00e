// Package imageio converts frames to standard images and writes them as
// PNG or TIFF.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/goplus/isp/pkgs/frame"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

func clamp8(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

func clamp16(v float64) uint16 {
	if !(v > 0) {
		return 0
	}
	if v >= 65535 {
		return 65535
	}
	return uint16(math.Round(v))
}

// ToGray8 returns p scaled by scale as an 8-bit grey image. A scene in
// [0, 1] uses scale 255.
func ToGray8(p *frame.Plane, scale float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for y := range p.Height {
		row := p.Row(y)
		for x, v := range row {
			img.Pix[y*img.Stride+x] = clamp8(v * scale)
		}
	}
	return img
}

// ToGray16 returns p as a 16-bit grey image, scaled so the full scale of
// depth maps to 65535.
func ToGray16(p *frame.Plane, depth frame.Depth) *image.Gray16 {
	scale := 65535 / depth.FullScale()
	img := image.NewGray16(image.Rect(0, 0, p.Width, p.Height))
	for y := range p.Height {
		for x, v := range p.Row(y) {
			img.SetGray16(x, y, color.Gray16{Y: clamp16(v * scale)})
		}
	}
	return img
}

// Scale8 is the factor ToRGB8 applies: deeper images are normalised so
// their brightest sample becomes 255, 8-bit images are kept as is.
func Scale8(m *frame.RGB, depth frame.Depth) float64 {
	if depth <= frame.Depth8 {
		return 1
	}
	peak := m.Max()
	if peak <= 0 {
		return 0
	}
	return 255 / peak
}

// ToRGB8 returns m as an opaque 8-bit image, scaled by Scale8.
func ToRGB8(m *frame.RGB, depth frame.Depth) *image.RGBA {
	scale := Scale8(m, depth)
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := range m.Height {
		for x := range m.Width {
			r, g, b := m.At(x, y)
			i := y*img.Stride + 4*x
			img.Pix[i+0] = clamp8(r * scale)
			img.Pix[i+1] = clamp8(g * scale)
			img.Pix[i+2] = clamp8(b * scale)
			img.Pix[i+3] = 0xff
		}
	}
	return img
}

// ToRGB16 returns m as an opaque 16-bit image, scaled so the full scale of
// depth maps to 65535.
func ToRGB16(m *frame.RGB, depth frame.Depth) *image.RGBA64 {
	scale := 65535 / depth.FullScale()
	img := image.NewRGBA64(image.Rect(0, 0, m.Width, m.Height))
	for y := range m.Height {
		for x := range m.Width {
			r, g, b := m.At(x, y)
			img.SetRGBA64(x, y, color.RGBA64{
				R: clamp16(r * scale),
				G: clamp16(g * scale),
				B: clamp16(b * scale),
				A: 0xffff,
			})
		}
	}
	return img
}

// Preview scales img to width w keeping its aspect ratio, or to w x h when
// h is positive. Images already no larger than w are returned unchanged.
func Preview(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if w <= 0 || (h <= 0 && b.Dx() <= w) {
		return img
	}
	if h <= 0 {
		h = max(1, int(math.Round(float64(b.Dy())*float64(w)/float64(b.Dx()))))
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// Write encodes img to path, choosing PNG or TIFF from the extension.
func Write(path string, img image.Image) (err error) {
	var encode func(*os.File) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		encode = func(f *os.File) error { return png.Encode(f, img) }
	case ".tif", ".tiff":
		encode = func(f *os.File) error {
			return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := encode(f); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
