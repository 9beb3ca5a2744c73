// Package colorutil provides shared color utilities for the face review
// application.
package colorutil

import (
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red    = color.RGBA{R: 220, G: 50, B: 47, A: 255}
	Green  = color.RGBA{R: 0, G: 200, B: 80, A: 255}
	Yellow = color.RGBA{R: 255, G: 200, B: 0, A: 255}
)

// Luminance returns the perceived brightness of a color in [0, 255]
// using the Rec. 601 weights.
func Luminance(c color.RGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// ContrastText returns black or white, whichever reads better on the
// given background color.
func ContrastText(background color.RGBA) color.RGBA {
	if Luminance(background) > 140 {
		return Black
	}
	return White
}

// Blend alpha-blends src over dst with the given opacity in [0, 1].
func Blend(dst, src color.RGBA, opacity float64) color.RGBA {
	if opacity >= 1 {
		return src
	}
	if opacity <= 0 {
		return dst
	}
	inv := 1 - opacity
	return color.RGBA{
		R: uint8(float64(src.R)*opacity + float64(dst.R)*inv),
		G: uint8(float64(src.G)*opacity + float64(dst.G)*inv),
		B: uint8(float64(src.B)*opacity + float64(dst.B)*inv),
		A: 255,
	}
}
