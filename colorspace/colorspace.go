// Package colorspace converts decoded images into the three-channel 8-bit
// representation the aggregator sums over.
//
// The quantizer only assumes three channels in [0, 256); which colour space
// fills them is decided here, at the boundary. RGB and BGR keep the device
// values (BGR is the channel order of OpenCV-style pipelines). Lab encodes
// CIELAB the way OpenCV stores it in 8 bits, which makes channel averages
// perceptually meaningful.
package colorspace

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/hupe1980/slichash/model"
)

// ErrUnknown is returned by ByName for unsupported colour spaces.
var ErrUnknown = errors.New("colorspace: unknown colour space")

// Converter maps a colour onto three 8-bit channels.
type Converter interface {
	// Convert returns the channel values of c.
	Convert(c color.NRGBA) [model.Channels]uint8

	// Name returns the canonical name of the colour space.
	Name() string
}

// ByName returns the converter registered under name (case-insensitive):
// "rgb", "bgr" or "lab".
func ByName(name string) (Converter, error) {
	switch strings.ToLower(name) {
	case "rgb":
		return RGB{}, nil
	case "bgr":
		return BGR{}, nil
	case "lab", "cielab":
		return Lab{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
}

// RGB keeps the device red, green and blue values.
type RGB struct{}

func (RGB) Convert(c color.NRGBA) [model.Channels]uint8 {
	return [model.Channels]uint8{c.R, c.G, c.B}
}

func (RGB) Name() string { return "rgb" }

// BGR keeps the device values in blue, green, red order.
type BGR struct{}

func (BGR) Convert(c color.NRGBA) [model.Channels]uint8 {
	return [model.Channels]uint8{c.B, c.G, c.R}
}

func (BGR) Name() string { return "bgr" }

// Image is a converted image: three interleaved 8-bit channels per pixel.
// It implements aggregate.Source.
type Image struct {
	// Pix holds the channel values, Pix[(y*Width+x)*3+channel].
	Pix []uint8

	// Rect is the pixel rectangle; Rect.Min is the origin of Pix.
	Rect image.Rectangle

	// Space is the name of the colour space of Pix.
	Space string
}

// Bounds returns the pixel rectangle of the image.
func (m *Image) Bounds() image.Rectangle {
	return m.Rect
}

// Channels returns the channel values of the pixel at (x, y).
func (m *Image) Channels(x, y int) [model.Channels]uint8 {
	i := m.offset(x, y)
	return [model.Channels]uint8{m.Pix[i], m.Pix[i+1], m.Pix[i+2]}
}

func (m *Image) offset(x, y int) int {
	return ((y-m.Rect.Min.Y)*m.Rect.Dx() + (x - m.Rect.Min.X)) * model.Channels
}

// Convert applies conv to every pixel of img.
func Convert(img image.Image, conv Converter) *Image {
	b := img.Bounds()
	out := &Image{
		Pix:   make([]uint8, b.Dx()*b.Dy()*model.Channels),
		Rect:  b,
		Space: conv.Name(),
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := conv.Convert(nrgbaAt(img, x, y))
			copy(out.Pix[i:i+model.Channels], c[:])
			i += model.Channels
		}
	}
	return out
}

// nrgbaAt reads a pixel as non-premultiplied 8-bit RGBA, avoiding the
// interface conversion for the common concrete types.
func nrgbaAt(img image.Image, x, y int) color.NRGBA {
	switch m := img.(type) {
	case *image.NRGBA:
		return m.NRGBAAt(x, y)
	case *image.RGBA:
		c := m.RGBAAt(x, y)
		if c.A == 0xff {
			return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
		}
	}
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}
