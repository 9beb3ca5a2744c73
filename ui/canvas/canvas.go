// Package canvas provides the face review canvas with pan, zoom, and
// face selection.
package canvas

import (
	"image"
	"math"

	"face-review/internal/app"
	"face-review/internal/config"
	"face-review/internal/face"
	"face-review/internal/overlay"
	"face-review/internal/viewport"
	"face-review/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// FaceCanvas displays the loaded photo with the face overlay on top.
// All zoom and pan state lives in the viewport; the widget only
// translates Fyne input events into viewport operations and redraws.
type FaceCanvas struct {
	widget.BaseWidget

	state    *app.State
	vp       *viewport.Viewport
	renderer *overlay.Renderer
	keys     *viewport.KeyZoom

	raster *fynecanvas.Raster

	// Last rendered output, kept for tests and sampling.
	lastOutput *image.RGBA

	// Callbacks
	onZoomChange func(zoom float64)
	onFacePicked func(index int)
}

// NewFaceCanvas creates the canvas bound to the application state.
func NewFaceCanvas(state *app.State, cfg config.OverlayConfig) *FaceCanvas {
	fc := &FaceCanvas{
		state:    state,
		vp:       viewport.New(),
		renderer: overlay.NewRenderer(cfg),
	}
	fc.keys = viewport.NewKeyZoom(fc.zoomAtCenter)

	fc.raster = fynecanvas.NewRaster(fc.draw)
	fc.raster.ScaleMode = fynecanvas.ImageScalePixels

	state.On(app.EventImageLoaded, func(data interface{}) {
		r := fc.state.CurrentRaster()
		if r == nil || r.Empty() {
			fc.vp.SetImageSize(0, 0)
		} else {
			fc.vp.SetImageSize(r.Width, r.Height)
		}
		fc.Refresh()
	})
	state.On(app.EventFacesChanged, func(interface{}) { fc.Refresh() })
	state.On(app.EventActiveFaceChanged, func(interface{}) { fc.Refresh() })
	state.On(app.EventOverlayModeChanged, func(interface{}) { fc.Refresh() })

	fc.ExtendBaseWidget(fc)
	return fc
}

// Viewport exposes the transform for the window's menu actions and for
// state snapshots.
func (fc *FaceCanvas) Viewport() *viewport.Viewport {
	return fc.vp
}

// Keys exposes the keyboard zoom state machine for event wiring.
func (fc *FaceCanvas) Keys() *viewport.KeyZoom {
	return fc.keys
}

// OnZoomChange sets a callback invoked after every zoom change.
func (fc *FaceCanvas) OnZoomChange(callback func(zoom float64)) {
	fc.onZoomChange = callback
}

// OnFacePicked sets a callback for clicks that land on a face box.
func (fc *FaceCanvas) OnFacePicked(callback func(index int)) {
	fc.onFacePicked = callback
}

func (fc *FaceCanvas) zoomChanged() {
	fc.Refresh()
	if fc.onZoomChange != nil {
		fc.onZoomChange(fc.vp.ZoomFactor())
	}
}

// zoomAtCenter applies a zoom factor anchored at the surface center,
// used by keyboard zoom where there is no cursor anchor.
func (fc *FaceCanvas) zoomAtCenter(factor float64) {
	s := fc.vp.SurfaceSize()
	fc.vp.ZoomAt(factor, geometry.Point2D{X: s.Width / 2, Y: s.Height / 2})
	fc.zoomChanged()
}

// ZoomIn applies one discrete zoom step at the surface center.
func (fc *FaceCanvas) ZoomIn() {
	fc.zoomAtCenter(viewport.DiscreteStep)
}

// ZoomOut applies one discrete zoom step out at the surface center.
func (fc *FaceCanvas) ZoomOut() {
	fc.zoomAtCenter(1 / viewport.DiscreteStep)
}

// ActualSize shows the image at 1:1 pixel scale.
func (fc *FaceCanvas) ActualSize() {
	fc.vp.ResetToOneToOne()
	fc.zoomChanged()
}

// FitToWindow returns to the auto-fit transform.
func (fc *FaceCanvas) FitToWindow() {
	fc.vp.SwitchToAutoFit()
	fc.zoomChanged()
}

// CenterOnActiveFace pans so the active face's box center sits at the
// surface center, keeping the current zoom.
func (fc *FaceCanvas) CenterOnActiveFace() {
	faces := fc.state.CurrentFaces()
	_, active := fc.state.CurrentOverlay()
	if active < 0 || active >= len(faces) {
		return
	}
	fc.vp.CenterOn(faces[active].Box.Center())
	fc.Refresh()
}

// Scrolled zooms toward the cursor one discrete step per wheel notch.
func (fc *FaceCanvas) Scrolled(ev *fyne.ScrollEvent) {
	anchor := geometry.Point2D{X: float64(ev.Position.X), Y: float64(ev.Position.Y)}
	if ev.Scrolled.DY > 0 {
		fc.vp.ZoomAt(viewport.DiscreteStep, anchor)
	} else if ev.Scrolled.DY < 0 {
		fc.vp.ZoomAt(1/viewport.DiscreteStep, anchor)
	}
	fc.zoomChanged()
}

// Dragged pans the view by the drag delta.
func (fc *FaceCanvas) Dragged(ev *fyne.DragEvent) {
	fc.vp.PanBy(float64(ev.Dragged.DX), float64(ev.Dragged.DY))
	fc.Refresh()
}

// DragEnd implements fyne.Draggable.
func (fc *FaceCanvas) DragEnd() {}

// Tapped selects the face under the cursor, if any. The smallest box
// containing the point wins so nested faces stay reachable.
func (fc *FaceCanvas) Tapped(ev *fyne.PointEvent) {
	imgPt := fc.vp.ToImage(geometry.Point2D{
		X: float64(ev.Position.X),
		Y: float64(ev.Position.Y),
	})

	best := FaceAt(fc.state.CurrentFaces(), imgPt)
	if best < 0 {
		return
	}

	fc.state.SetActiveFace(best)
	if fc.onFacePicked != nil {
		fc.onFacePicked(best)
	}
}

// Refresh redraws the canvas.
func (fc *FaceCanvas) Refresh() {
	fc.raster.Refresh()
	fc.BaseWidget.Refresh()
}

// RenderedOutput returns the last rendered frame for sampling.
func (fc *FaceCanvas) RenderedOutput() *image.RGBA {
	return fc.lastOutput
}

// draw is the raster drawing function. The raster fills the widget, so
// w and h are the surface size.
func (fc *FaceCanvas) draw(w, h int) image.Image {
	fc.vp.SetSurfaceSize(float64(w), float64(h))

	output := image.NewRGBA(image.Rect(0, 0, w, h))

	// Dark neutral background behind the photo
	for i := 0; i < len(output.Pix); i += 4 {
		output.Pix[i] = 0x20
		output.Pix[i+1] = 0x20
		output.Pix[i+2] = 0x20
		output.Pix[i+3] = 0xff
	}

	r := fc.state.CurrentRaster()
	if r != nil && !r.Empty() {
		fc.composite(output, r.Image, w, h)

		mode, active := fc.state.CurrentOverlay()
		fc.renderer.Render(output, fc.vp, fc.state.CurrentFaces(), mode, active)
	}

	// While a decode is in flight the previous image stays up, dimmed,
	// so the pending load is visible on the canvas itself.
	if fc.state.Loading() {
		dimSurface(output)
	}

	fc.lastOutput = output
	return output
}

// dimSurface halves the brightness of every pixel in place.
func dimSurface(img *image.RGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] >>= 1
		img.Pix[i+1] >>= 1
		img.Pix[i+2] >>= 1
	}
}

// composite draws the photo through the viewport transform with
// nearest-neighbor sampling.
func (fc *FaceCanvas) composite(output *image.RGBA, src image.Image, w, h int) {
	scale, ox, oy := fc.vp.ScaleAndOrigin()
	if scale <= 0 {
		return
	}
	srcBounds := src.Bounds()

	// Clip the destination loop to the image's on-surface extent.
	dst := fc.vp.ImageBoundsOnSurface()
	x0 := int(math.Max(0, dst.X))
	y0 := int(math.Max(0, dst.Y))
	x1 := int(math.Min(float64(w), dst.MaxX()))
	y1 := int(math.Min(float64(h), dst.MaxY()))

	for y := y0; y < y1; y++ {
		srcY := srcBounds.Min.Y + int((float64(y)-oy)/scale)
		if srcY < srcBounds.Min.Y || srcY >= srcBounds.Max.Y {
			continue
		}
		for x := x0; x < x1; x++ {
			srcX := srcBounds.Min.X + int((float64(x)-ox)/scale)
			if srcX < srcBounds.Min.X || srcX >= srcBounds.Max.X {
				continue
			}
			output.Set(x, y, src.At(srcX, srcY))
		}
	}
}

// FaceAt returns the index of the smallest face containing the given
// image-space point, or -1.
func FaceAt(faces []face.Annotation, pt geometry.Point2D) int {
	best := -1
	bestArea := math.MaxFloat64
	for i, f := range faces {
		if !f.Valid() || !f.Box.Contains(pt) {
			continue
		}
		area := f.Box.Width * f.Box.Height
		if area < bestArea {
			best = i
			bestArea = area
		}
	}
	return best
}

// CreateRenderer implements fyne.Widget.
func (fc *FaceCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &faceCanvasRenderer{canvas: fc}
}

type faceCanvasRenderer struct {
	canvas *FaceCanvas
}

func (r *faceCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
}

func (r *faceCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *faceCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *faceCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *faceCanvasRenderer) Destroy() {
	r.canvas.keys.Cancel()
}
