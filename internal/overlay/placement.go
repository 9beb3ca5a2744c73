package overlay

import (
	"math"

	"face-review/internal/config"
	"face-review/pkg/geometry"
)

// LabelPlacement is the solver result: the top-left corner of the label
// rectangle in surface coordinates, and whether the label had to be put
// outside the displayed image extent.
type LabelPlacement struct {
	X            float64
	Y            float64
	OutsideImage bool
}

// Rect returns the placed label rectangle for the given label size.
func (p LabelPlacement) Rect(w, h float64) geometry.Rect {
	return geometry.NewRect(p.X, p.Y, w, h)
}

// Solver finds non-overlapping label positions. It scans candidate label
// centers on concentric rings around the face box, radius ascending and
// angle ascending from 0°, and accepts the first candidate that clears
// every obstacle; candidates fully inside the image extent win over
// out-of-bounds ones. The scan is bounded, so with dense obstacles it
// degrades to a fixed position above the box instead of failing.
type Solver struct {
	cfg     config.OverlayConfig
	surface geometry.Size
}

// NewSolver creates a solver for one render pass.
func NewSolver(cfg config.OverlayConfig, surface geometry.Size) *Solver {
	return &Solver{cfg: cfg, surface: surface}
}

// Buffer returns the collision padding for the current zoom level. It
// follows the displayed image width so label spacing looks the same at
// every zoom.
func (s *Solver) Buffer(displayedImageWidth float64) float64 {
	return math.Max(s.cfg.MinBufferPx, displayedImageWidth*s.cfg.BufferRatio)
}

// Place finds a position for a labelW x labelH label belonging to
// faceBox. All rectangles are in surface coordinates. obstacles holds
// every face box and label already placed in this render pass.
func (s *Solver) Place(faceBox geometry.Rect, labelW, labelH float64, obstacles []geometry.Rect, imageBounds geometry.Rect) LabelPlacement {
	buffer := s.Buffer(imageBounds.Width)
	center := faceBox.Center()

	startRadius := math.Max(faceBox.Width, faceBox.Height)/2 + s.cfg.RadiusStartGap
	maxRadius := 2 * s.surface.Diagonal()
	if maxRadius < startRadius {
		maxRadius = startRadius
	}

	angleStep := s.cfg.AngleStepDeg
	if angleStep <= 0 {
		angleStep = 15
	}
	radiusStep := s.cfg.RadiusStep
	if radiusStep <= 0 {
		radiusStep = 25
	}

	var fallback *LabelPlacement

	for radius := startRadius; radius <= maxRadius; radius += radiusStep {
		for angle := 0.0; angle < 360.0; angle += angleStep {
			rad := angle * math.Pi / 180
			candidate := geometry.RectAround(geometry.Point2D{
				X: center.X + radius*math.Cos(rad),
				Y: center.Y + radius*math.Sin(rad),
			}, labelW, labelH)

			if overlapsAny(candidate, obstacles, buffer) {
				continue
			}

			if imageBounds.ContainsRect(candidate) {
				// First-fit: the scan order is the preference order.
				return LabelPlacement{X: candidate.X, Y: candidate.Y}
			}
			if fallback == nil {
				fallback = &LabelPlacement{X: candidate.X, Y: candidate.Y, OutsideImage: true}
			}
		}
	}

	if fallback != nil {
		return *fallback
	}

	// Every candidate collided. Pin the label above the box; overlapping
	// output beats dropping the label entirely.
	return LabelPlacement{
		X:            center.X - labelW/2,
		Y:            faceBox.Y - labelH - buffer,
		OutsideImage: true,
	}
}

func overlapsAny(candidate geometry.Rect, obstacles []geometry.Rect, buffer float64) bool {
	for _, o := range obstacles {
		if candidate.IntersectsBuffered(o, buffer) {
			return true
		}
	}
	return false
}
