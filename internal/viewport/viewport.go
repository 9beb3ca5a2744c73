// Package viewport maintains the coordinate transform between image space
// and the drawing surface, under two mutually exclusive modes: auto-fit
// (scale and origin derived every render) and manual (explicit zoom factor
// and pan owned by the user).
package viewport

import (
	"sync"

	"face-review/pkg/geometry"
)

// Zoom limits and steps. The discrete step matches one menu/tap zoom;
// the continuous step is applied once per animation tick while a zoom
// key is held.
const (
	MinZoom        = 0.1
	MaxZoom        = 10.0
	DiscreteStep   = 1.25
	ContinuousStep = 1.04
)

// Mode selects how the transform is derived.
type Mode int

const (
	ModeAuto   Mode = iota // fit image to surface, derived each render
	ModeManual             // zoom factor and pan are authoritative
)

func (m Mode) String() string {
	if m == ModeManual {
		return "manual"
	}
	return "auto"
}

// State is the serializable snapshot of a viewport.
type State struct {
	Mode Mode             `json:"mode"`
	Zoom float64          `json:"zoom"`
	Pan  geometry.Point2D `json:"pan"`
}

// Viewport owns the image-to-surface transform. In auto mode the zoom and
// pan fields are ignored; they become authoritative on the first zoom or
// pan operation, seeded from the auto-fit transform so the image does not
// jump at the transition.
//
// All methods are safe for concurrent use: continuous keyboard zoom ticks
// on a timer goroutine and image loads complete on a loader goroutine,
// both while the paint callback reads the transform.
type Viewport struct {
	mu sync.RWMutex

	mode Mode
	zoom float64
	pan  geometry.Point2D

	surface geometry.Size
	imageW  int
	imageH  int
}

// New creates a viewport in auto-fit mode with no image.
func New() *Viewport {
	return &Viewport{mode: ModeAuto, zoom: 1.0}
}

// HasImage reports whether an image size has been supplied.
func (v *Viewport) HasImage() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.hasImage()
}

func (v *Viewport) hasImage() bool {
	return v.imageW > 0 && v.imageH > 0
}

// Mode returns the current zoom mode.
func (v *Viewport) Mode() Mode {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.mode
}

// ZoomFactor returns the effective scale currently applied.
func (v *Viewport) ZoomFactor() float64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	scale, _, _ := v.scaleAndOrigin()
	return scale
}

// SetSurfaceSize records the drawing surface size. Must be called whenever
// the host resizes the surface; in auto mode the transform is derived from
// it on the next render.
func (v *Viewport) SetSurfaceSize(w, h float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.surface = geometry.NewSize(w, h)
}

// SurfaceSize returns the current drawing surface size.
func (v *Viewport) SurfaceSize() geometry.Size {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.surface
}

// SetImageSize installs a new image. Any manual zoom/pan belongs to the
// previous image, so the viewport drops back to auto-fit.
func (v *Viewport) SetImageSize(w, h int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.imageW = w
	v.imageH = h
	v.resetToAuto()
}

// ScaleAndOrigin resolves the current transform. In auto mode the scale
// fits the image inside the surface preserving aspect ratio and the origin
// centers it on the leftover axis; in manual mode both come straight from
// the stored zoom factor and pan.
func (v *Viewport) ScaleAndOrigin() (scale, originX, originY float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scaleAndOrigin()
}

func (v *Viewport) scaleAndOrigin() (scale, originX, originY float64) {
	if !v.hasImage() {
		return 1, 0, 0
	}
	if v.mode == ModeManual {
		return v.zoom, v.pan.X, v.pan.Y
	}
	return v.autoFit()
}

func (v *Viewport) autoFit() (scale, originX, originY float64) {
	if v.surface.Width <= 0 || v.surface.Height <= 0 {
		return 1, 0, 0
	}
	sx := v.surface.Width / float64(v.imageW)
	sy := v.surface.Height / float64(v.imageH)
	scale = sx
	if sy < sx {
		scale = sy
	}
	originX = (v.surface.Width - float64(v.imageW)*scale) / 2
	originY = (v.surface.Height - float64(v.imageH)*scale) / 2
	return scale, originX, originY
}

// ToSurface converts an image-space point to surface coordinates.
func (v *Viewport) ToSurface(p geometry.Point2D) geometry.Point2D {
	v.mu.RLock()
	defer v.mu.RUnlock()
	scale, ox, oy := v.scaleAndOrigin()
	return geometry.Point2D{X: p.X*scale + ox, Y: p.Y*scale + oy}
}

// ToImage converts a surface-space point back to image coordinates.
func (v *Viewport) ToImage(p geometry.Point2D) geometry.Point2D {
	v.mu.RLock()
	defer v.mu.RUnlock()
	scale, ox, oy := v.scaleAndOrigin()
	if scale == 0 {
		return geometry.Point2D{}
	}
	return geometry.Point2D{X: (p.X - ox) / scale, Y: (p.Y - oy) / scale}
}

// RectToSurface converts an image-space rectangle to surface coordinates.
func (v *Viewport) RectToSurface(r geometry.Rect) geometry.Rect {
	v.mu.RLock()
	defer v.mu.RUnlock()
	scale, ox, oy := v.scaleAndOrigin()
	return r.Scale(scale).Translate(ox, oy)
}

// ImageBoundsOnSurface returns the displayed image extent in surface
// coordinates. Zero rect when no image is loaded.
func (v *Viewport) ImageBoundsOnSurface() geometry.Rect {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if !v.hasImage() {
		return geometry.Rect{}
	}
	scale, ox, oy := v.scaleAndOrigin()
	return geometry.NewRect(ox, oy, float64(v.imageW)*scale, float64(v.imageH)*scale)
}

// switchToManual freezes the current derived transform into authoritative
// zoom/pan state. The surface-space position of the image is identical
// immediately before and after the switch.
func (v *Viewport) switchToManual() {
	if v.mode == ModeManual {
		return
	}
	scale, ox, oy := v.autoFit()
	v.zoom = scale
	v.pan = geometry.Point2D{X: ox, Y: oy}
	v.mode = ModeManual
}

// Zoom multiplies the zoom factor, keeping the current pan. The factor is
// clamped silently so any request lands inside [MinZoom, MaxZoom].
// No-op when no image is loaded.
func (v *Viewport) Zoom(factor float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.hasImage() {
		return
	}
	v.switchToManual()
	v.zoom = geometry.Clamp(v.zoom*factor, MinZoom, MaxZoom)
}

// ZoomAt multiplies the zoom factor anchored at a surface point: the image
// point under the anchor before the zoom stays under it afterwards.
// No-op when no image is loaded.
func (v *Viewport) ZoomAt(factor float64, anchor geometry.Point2D) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.zoomAt(factor, anchor)
}

func (v *Viewport) zoomAt(factor float64, anchor geometry.Point2D) {
	if !v.hasImage() {
		return
	}
	v.switchToManual()

	oldZoom := v.zoom
	newZoom := geometry.Clamp(oldZoom*factor, MinZoom, MaxZoom)
	if newZoom == oldZoom {
		return
	}

	// pan' = anchor - (anchor - pan) * (newZoom / oldZoom)
	ratio := newZoom / oldZoom
	v.pan = geometry.Point2D{
		X: anchor.X - (anchor.X-v.pan.X)*ratio,
		Y: anchor.Y - (anchor.Y-v.pan.Y)*ratio,
	}
	v.zoom = newZoom
}

// SetZoomFactor sets an absolute zoom factor, clamped, anchored at the
// surface center so the view does not lurch sideways.
func (v *Viewport) SetZoomFactor(value float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.hasImage() {
		return
	}
	v.switchToManual()
	if v.zoom > 0 {
		center := geometry.Point2D{X: v.surface.Width / 2, Y: v.surface.Height / 2}
		v.zoomAt(value/v.zoom, center)
	}
}

// ResetToOneToOne shows the image at its intrinsic pixel size.
func (v *Viewport) ResetToOneToOne() {
	v.SetZoomFactor(1.0)
}

// SwitchToAutoFit discards manual zoom/pan and re-derives the fit on the
// next render.
func (v *Viewport) SwitchToAutoFit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.resetToAuto()
}

func (v *Viewport) resetToAuto() {
	v.mode = ModeAuto
	v.zoom = 1.0
	v.pan = geometry.Point2D{}
}

// PanBy shifts the view by a surface-space delta, entering manual mode if
// needed. No-op without an image.
func (v *Viewport) PanBy(dx, dy float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.hasImage() {
		return
	}
	v.switchToManual()
	v.pan.X += dx
	v.pan.Y += dy
}

// CenterOn pans so the given image-space point sits at the surface center,
// preserving the current zoom. No-op without an image.
func (v *Viewport) CenterOn(imagePt geometry.Point2D) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.hasImage() {
		return
	}
	v.switchToManual()
	v.pan = geometry.Point2D{
		X: v.surface.Width/2 - imagePt.X*v.zoom,
		Y: v.surface.Height/2 - imagePt.Y*v.zoom,
	}
}

// Snapshot returns the persistable viewport state.
func (v *Viewport) Snapshot() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return State{Mode: v.mode, Zoom: v.zoom, Pan: v.pan}
}

// Restore reinstates a previously captured snapshot. The zoom factor is
// re-clamped in case the limits changed between sessions.
func (v *Viewport) Restore(s State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mode = s.Mode
	v.zoom = geometry.Clamp(s.Zoom, MinZoom, MaxZoom)
	if s.Zoom == 0 {
		v.zoom = 1.0
	}
	v.pan = s.Pan
}
