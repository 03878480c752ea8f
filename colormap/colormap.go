// Package colormap turns scalars into colors for point cloud rendering.
//
// Maps are defined on [0, 1]. Inputs outside that domain are not clamped by callers; each Map documents
// what it does with them.
package colormap

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Map converts a normalized scalar to a color.
type Map interface {
	At(x float64) color.NRGBA
}

// Normalize linearly maps h from [min, max] to [0, 1]. The result is not clamped.
func Normalize(h, minimum, maximum float64) float64 {
	return (h - minimum) / (maximum - minimum)
}

// LUTSize is the number of entries in a lookup table map.
const LUTSize = 256

// anchor is one (x, value) breakpoint of a piecewise linear channel.
type anchor struct {
	x, y float64
}

// LUT is a lookup table colormap of LUTSize entries.
//
// x is scaled by LUTSize and truncated to pick an entry, with x == 1 picking the last entry. Inputs below the
// domain get the Under color and inputs above it the Over color, which default to the first and last
// entries. NaN gets the Bad color, transparent black.
type LUT struct {
	Name  string
	lut   [LUTSize]color.NRGBA
	Under color.NRGBA
	Over  color.NRGBA
	Bad   color.NRGBA
}

// At returns the color for x.
func (m *LUT) At(x float64) color.NRGBA {
	if math.IsNaN(x) {
		return m.Bad
	}
	xa := x * LUTSize
	if xa == LUTSize {
		xa = LUTSize - 1
	}
	// clip first so the int conversion can't overflow; truncation toward zero means values just below 0
	// still land on the first entry
	xa = math.Max(-1, math.Min(xa, LUTSize))
	idx := int(xa)
	switch {
	case idx < 0:
		return m.Under
	case idx > LUTSize-1:
		return m.Over
	default:
		return m.lut[idx]
	}
}

// Entry returns the i-th table entry.
func (m *LUT) Entry(i int) color.NRGBA {
	return m.lut[i]
}

func newLUT(name string, at func(x float64) colorful.Color) *LUT {
	m := &LUT{Name: name}
	for i := range m.lut {
		m.lut[i] = toNRGBA(at(float64(i) / (LUTSize - 1)))
	}
	m.Under = m.lut[0]
	m.Over = m.lut[LUTSize-1]
	m.Bad = color.NRGBA{}
	return m
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

// interpolate evaluates a piecewise linear channel at x in [0, 1].
func interpolate(anchors []anchor, x float64) float64 {
	if x <= anchors[0].x {
		return anchors[0].y
	}
	for i := 1; i < len(anchors); i++ {
		if x <= anchors[i].x {
			a, b := anchors[i-1], anchors[i]
			return a.y + (x-a.x)/(b.x-a.x)*(b.y-a.y)
		}
	}
	return anchors[len(anchors)-1].y
}

var (
	jetRed   = []anchor{{0, 0}, {0.35, 0}, {0.66, 1}, {0.89, 1}, {1, 0.5}}
	jetGreen = []anchor{{0, 0}, {0.125, 0}, {0.375, 1}, {0.64, 1}, {0.91, 0}, {1, 0}}
	jetBlue  = []anchor{{0, 0.5}, {0.11, 1}, {0.34, 1}, {0.65, 0}, {1, 0}}
)

// NewJet returns the classic "jet" map: dark blue through cyan, yellow and red to dark red.
func NewJet() *LUT {
	return newLUT("jet", func(x float64) colorful.Color {
		return colorful.Color{R: interpolate(jetRed, x), G: interpolate(jetGreen, x), B: interpolate(jetBlue, x)}
	})
}

// NewBlend returns a map running from one color to another through the HCL color space, which keeps the
// perceived lightness change even.
func NewBlend(name string, from, to colorful.Color) *LUT {
	return newLUT(name, func(x float64) colorful.Color {
		return from.BlendHcl(to, x)
	})
}

// NewHeat returns a blue to red blend.
func NewHeat() *LUT {
	return NewBlend("heat", colorful.Color{R: 0, G: 0, B: 1}, colorful.Color{R: 1, G: 0, B: 0})
}

// FromName returns a named map: "jet" (the default for an empty name) or "heat".
func FromName(name string) (Map, bool) {
	switch name {
	case "", "jet":
		return NewJet(), true
	case "heat":
		return NewHeat(), true
	default:
		return nil, false
	}
}
