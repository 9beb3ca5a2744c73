// Package overlay renders confidence-colored face bounding boxes and
// collision-free identity labels over the displayed image.
package overlay

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"face-review/internal/config"
	"face-review/internal/face"
	"face-review/internal/viewport"
	"face-review/pkg/colorutil"
	"face-review/pkg/geometry"
)

// Mode selects which faces the overlay draws.
type Mode int

const (
	ModeNone   Mode = iota // overlay hidden
	ModeSingle             // only the active face, for stepping through
	ModeAll                // every face
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModeAll:
		return "all"
	default:
		return "none"
	}
}

// Label geometry padding around the text, in surface pixels.
const (
	labelPadX = 4
	labelPadY = 2

	boxStroke       = 2
	activeBoxStroke = 4
	connectorStroke = 1
	labelOpacity    = 0.75
)

// Renderer draws the face overlay. It holds no per-frame state: every
// Render call recomputes all placements from the current transform, since
// any pan or zoom invalidates surface coordinates wholesale.
type Renderer struct {
	cfg  config.OverlayConfig
	font font.Face
}

// NewRenderer creates a renderer with the given tunables.
func NewRenderer(cfg config.OverlayConfig) *Renderer {
	return &Renderer{cfg: cfg, font: basicfont.Face7x13}
}

// StrokeColor maps a detection confidence to one of three tier colors.
// Three tiers, not a gradient: the point is quick visual triage.
func (r *Renderer) StrokeColor(confidence float64) color.RGBA {
	switch {
	case confidence > r.cfg.HighConfidence:
		return r.cfg.HighColor
	case confidence > r.cfg.MediumConfidence:
		return r.cfg.MediumColor
	default:
		return r.cfg.LowColor
	}
}

// MeasureLabel returns the label rectangle size for a text, including
// padding.
func (r *Renderer) MeasureLabel(text string) (w, h float64) {
	adv := font.MeasureString(r.font, text)
	m := r.font.Metrics()
	w = float64(adv.Ceil()) + 2*labelPadX
	h = float64((m.Ascent + m.Descent).Ceil()) + 2*labelPadY
	return w, h
}

// Render draws the overlay for the given faces onto output. The face list
// is read-only input; faces without a bounding box are skipped silently.
// activeIndex is only consulted in single mode and for stroke emphasis;
// out-of-range values simply select nothing.
func (r *Renderer) Render(output *image.RGBA, vp *viewport.Viewport, faces []face.Annotation, mode Mode, activeIndex int) {
	if mode == ModeNone || len(faces) == 0 || !vp.HasImage() {
		return
	}

	imageBounds := vp.ImageBoundsOnSurface()
	solver := NewSolver(r.cfg, vp.SurfaceSize())

	// Obstacles accumulate across the pass: every face box and every
	// placed label becomes an obstacle for later labels.
	obstacles := make([]geometry.Rect, 0, len(faces)*2)

	for i, f := range faces {
		if mode == ModeSingle && i != activeIndex {
			continue
		}
		if !f.Valid() {
			continue
		}

		boxSurface := vp.RectToSurface(f.Box)
		col := r.StrokeColor(f.Confidence)

		stroke := boxStroke
		if i == activeIndex {
			stroke = activeBoxStroke
		}
		drawRectOutline(output, boxSurface, col, stroke)

		obstacles = append(obstacles, boxSurface)

		if !f.Named() {
			continue
		}

		text := f.Label()
		labelW, labelH := r.MeasureLabel(text)
		placed := solver.Place(boxSurface, labelW, labelH, obstacles, imageBounds)
		labelRect := placed.Rect(labelW, labelH)

		// Connector from the box edge (never the center, so the line
		// stays off the face) toward the label.
		start := boxSurface.NearestEdgePoint(labelRect.Center())
		drawLine(output, start, labelRect.Center(), col, connectorStroke)

		// Tier-colored background; text flips black/white with the
		// tier's brightness so yellow labels stay legible.
		fillRect(output, labelRect, col, labelOpacity)
		drawRectOutline(output, labelRect, col, 1)

		ascent := r.font.Metrics().Ascent.Ceil()
		drawText(output, text,
			int(labelRect.X)+labelPadX,
			int(labelRect.Y)+labelPadY+ascent,
			r.font, colorutil.ContrastText(col))

		obstacles = append(obstacles, labelRect)
	}
}
