package overlay

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"face-review/pkg/colorutil"
	"face-review/pkg/geometry"
)

// drawRectOutline draws a rectangle outline of the given thickness,
// clipped to the output bounds.
func drawRectOutline(output *image.RGBA, r geometry.Rect, col color.RGBA, thickness int) {
	x1, y1 := int(r.X), int(r.Y)
	x2, y2 := int(r.MaxX()), int(r.MaxY())
	bounds := output.Bounds()

	for t := 0; t < thickness; t++ {
		for x := x1; x <= x2; x++ {
			if x >= bounds.Min.X && x < bounds.Max.X {
				if y1+t >= bounds.Min.Y && y1+t < bounds.Max.Y {
					output.SetRGBA(x, y1+t, col)
				}
				if y2-t >= bounds.Min.Y && y2-t < bounds.Max.Y {
					output.SetRGBA(x, y2-t, col)
				}
			}
		}
		for y := y1; y <= y2; y++ {
			if y >= bounds.Min.Y && y < bounds.Max.Y {
				if x1+t >= bounds.Min.X && x1+t < bounds.Max.X {
					output.SetRGBA(x1+t, y, col)
				}
				if x2-t >= bounds.Min.X && x2-t < bounds.Max.X {
					output.SetRGBA(x2-t, y, col)
				}
			}
		}
	}
}

// fillRect fills a rectangle, alpha-blending when opacity < 1.
func fillRect(output *image.RGBA, r geometry.Rect, col color.RGBA, opacity float64) {
	x1, y1 := int(r.X), int(r.Y)
	x2, y2 := int(r.MaxX()), int(r.MaxY())
	bounds := output.Bounds()

	for y := y1; y <= y2; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := x1; x <= x2; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			if opacity >= 1 {
				output.SetRGBA(x, y, col)
			} else {
				output.SetRGBA(x, y, colorutil.Blend(output.RGBAAt(x, y), col, opacity))
			}
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(output *image.RGBA, p1, p2 geometry.Point2D, col color.RGBA, thickness int) {
	x1, y1 := int(p1.X), int(p1.Y)
	x2, y2 := int(p2.X), int(p2.Y)
	bounds := output.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					output.SetRGBA(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawText renders a string with the given face, anchored at the text
// baseline origin (x, y).
func drawText(output *image.RGBA, text string, x, y int, fontFace font.Face, col color.RGBA) {
	d := &font.Drawer{
		Dst:  output,
		Src:  image.NewUniform(col),
		Face: fontFace,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
