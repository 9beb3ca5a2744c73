package viewport

import (
	"math"
	"testing"
	"time"

	"face-review/pkg/geometry"
)

const epsilon = 1e-9

func newTestViewport() *Viewport {
	v := New()
	v.SetSurfaceSize(800, 600)
	v.SetImageSize(1600, 800)
	return v
}

func TestAutoFitWideImage(t *testing.T) {
	// Surface 800x600, image 1600x800: width is the limiting axis.
	v := newTestViewport()

	scale, ox, oy := v.ScaleAndOrigin()
	if scale != 0.5 {
		t.Errorf("scale = %v, want 0.5", scale)
	}
	if ox != 0 {
		t.Errorf("originX = %v, want 0", ox)
	}
	if oy != 100 {
		t.Errorf("originY = %v, want 100", oy)
	}
}

func TestAutoFitTallImage(t *testing.T) {
	v := New()
	v.SetSurfaceSize(800, 600)
	v.SetImageSize(600, 1200)

	scale, ox, oy := v.ScaleAndOrigin()
	if scale != 0.5 {
		t.Errorf("scale = %v, want 0.5", scale)
	}
	if oy != 0 {
		t.Errorf("originY = %v, want 0", oy)
	}
	if ox != 250 {
		t.Errorf("originX = %v, want 250", ox)
	}
}

func TestZoomAtAnchorScenario(t *testing.T) {
	// zoom(1.5, anchor=(400,300)) from zoom 1.0 pan (0,0)
	// must yield zoom 1.5 pan (-200,-150).
	v := newTestViewport()
	v.Restore(State{Mode: ModeManual, Zoom: 1.0})

	v.ZoomAt(1.5, geometry.Point2D{X: 400, Y: 300})

	s := v.Snapshot()
	if s.Zoom != 1.5 {
		t.Errorf("zoom = %v, want 1.5", s.Zoom)
	}
	if s.Pan.X != -200 || s.Pan.Y != -150 {
		t.Errorf("pan = %+v, want (-200,-150)", s.Pan)
	}
}

func TestZoomToCursorInvariant(t *testing.T) {
	v := newTestViewport()
	anchor := geometry.Point2D{X: 337, Y: 412}

	for _, factor := range []float64{1.25, 1.25, 0.8, 2.0, 1.04, 0.5, 1.1, 0.96} {
		before := v.ToImage(anchor)
		v.ZoomAt(factor, anchor)
		after := v.ToImage(anchor)

		if math.Abs(before.X-after.X) > 1e-6 || math.Abs(before.Y-after.Y) > 1e-6 {
			t.Fatalf("anchor image point moved from %+v to %+v at factor %v",
				before, after, factor)
		}
	}
}

func TestZoomClamping(t *testing.T) {
	v := newTestViewport()

	v.ZoomAt(1e9, geometry.Point2D{X: 100, Y: 100})
	if z := v.Snapshot().Zoom; z != MaxZoom {
		t.Errorf("zoom = %v, want clamp to %v", z, MaxZoom)
	}

	v.ZoomAt(1e-9, geometry.Point2D{X: 100, Y: 100})
	if z := v.Snapshot().Zoom; z != MinZoom {
		t.Errorf("zoom = %v, want clamp to %v", z, MinZoom)
	}
}

func TestModeSwitchContinuity(t *testing.T) {
	v := newTestViewport()

	// Sample where the image corners land in auto mode.
	topLeftBefore := v.ToSurface(geometry.Point2D{})
	bottomRightBefore := v.ToSurface(geometry.Point2D{X: 1600, Y: 800})

	// The first zoom switches to manual; a factor of 1 must leave the
	// image exactly where auto-fit had placed it.
	v.Zoom(1.0)
	if v.Mode() != ModeManual {
		t.Fatal("zoom should switch to manual mode")
	}

	topLeftAfter := v.ToSurface(geometry.Point2D{})
	bottomRightAfter := v.ToSurface(geometry.Point2D{X: 1600, Y: 800})

	if math.Abs(topLeftBefore.X-topLeftAfter.X) > epsilon ||
		math.Abs(topLeftBefore.Y-topLeftAfter.Y) > epsilon {
		t.Errorf("top-left moved: %+v -> %+v", topLeftBefore, topLeftAfter)
	}
	if math.Abs(bottomRightBefore.X-bottomRightAfter.X) > epsilon ||
		math.Abs(bottomRightBefore.Y-bottomRightAfter.Y) > epsilon {
		t.Errorf("bottom-right moved: %+v -> %+v", bottomRightBefore, bottomRightAfter)
	}
}

func TestSwitchToAutoFitDiscardsManual(t *testing.T) {
	v := newTestViewport()
	v.ZoomAt(3.0, geometry.Point2D{X: 10, Y: 10})
	v.PanBy(123, 456)

	v.SwitchToAutoFit()
	if v.Mode() != ModeAuto {
		t.Fatal("expected auto mode")
	}
	scale, ox, oy := v.ScaleAndOrigin()
	if scale != 0.5 || ox != 0 || oy != 100 {
		t.Errorf("auto fit not re-derived: scale=%v origin=(%v,%v)", scale, ox, oy)
	}
}

func TestRoundTripTransform(t *testing.T) {
	v := newTestViewport()
	v.ZoomAt(1.7, geometry.Point2D{X: 200, Y: 150})
	v.PanBy(-40, 25)

	for _, p := range []geometry.Point2D{{X: 0, Y: 0}, {X: 800, Y: 400}, {X: 1599, Y: 799}} {
		back := v.ToImage(v.ToSurface(p))
		if math.Abs(back.X-p.X) > 1e-6 || math.Abs(back.Y-p.Y) > 1e-6 {
			t.Errorf("round trip of %+v gave %+v", p, back)
		}
	}
}

func TestNoImageNoOps(t *testing.T) {
	v := New()
	v.SetSurfaceSize(800, 600)

	v.Zoom(2.0)
	v.ZoomAt(2.0, geometry.Point2D{X: 1, Y: 2})
	v.PanBy(10, 10)
	v.CenterOn(geometry.Point2D{X: 5, Y: 5})
	v.ResetToOneToOne()

	if v.Mode() != ModeAuto {
		t.Error("operations without an image must not change mode")
	}
	scale, ox, oy := v.ScaleAndOrigin()
	if scale != 1 || ox != 0 || oy != 0 {
		t.Errorf("expected identity transform, got scale=%v origin=(%v,%v)", scale, ox, oy)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	v := newTestViewport()
	v.ZoomAt(2.5, geometry.Point2D{X: 321, Y: 123})

	s := v.Snapshot()

	other := New()
	other.SetSurfaceSize(800, 600)
	other.SetImageSize(1600, 800)
	other.Restore(s)

	if other.Snapshot() != s {
		t.Errorf("round trip changed state: %+v -> %+v", s, other.Snapshot())
	}
}

func TestCenterOn(t *testing.T) {
	v := newTestViewport()
	v.SetZoomFactor(1.0)

	target := geometry.Point2D{X: 1000, Y: 200}
	v.CenterOn(target)

	got := v.ToSurface(target)
	if math.Abs(got.X-400) > epsilon || math.Abs(got.Y-300) > epsilon {
		t.Errorf("target at %+v, want surface center (400,300)", got)
	}
}

func TestResetToOneToOneKeepsCenter(t *testing.T) {
	v := newTestViewport()
	centerImage := v.ToImage(geometry.Point2D{X: 400, Y: 300})

	v.ResetToOneToOne()

	if z := v.Snapshot().Zoom; z != 1.0 {
		t.Fatalf("zoom = %v, want 1.0", z)
	}
	got := v.ToImage(geometry.Point2D{X: 400, Y: 300})
	if math.Abs(got.X-centerImage.X) > 1e-6 || math.Abs(got.Y-centerImage.Y) > 1e-6 {
		t.Errorf("surface center drifted: %+v -> %+v", centerImage, got)
	}
}

// Exercises held-key zoom ticking on its timer goroutine while a render
// loop reads the transform, the way the canvas drives it. Run with the
// race detector to verify the locking.
func TestConcurrentKeyZoomAndRender(t *testing.T) {
	v := newTestViewport()

	kz := NewKeyZoom(func(factor float64) {
		s := v.SurfaceSize()
		v.ZoomAt(factor, geometry.Point2D{X: s.Width / 2, Y: s.Height / 2})
	})
	kz.SetTimings(time.Millisecond, time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2000; i++ {
			scale, ox, oy := v.ScaleAndOrigin()
			if scale <= 0 {
				t.Errorf("scale = %v with origin (%v,%v)", scale, ox, oy)
				return
			}
			_ = v.ImageBoundsOnSurface()
			_ = v.ToImage(geometry.Point2D{X: 100, Y: 100})
		}
	}()

	kz.KeyDown(ZoomIn)
	time.Sleep(50 * time.Millisecond)
	kz.KeyUp()
	<-done

	if z := v.ZoomFactor(); z < MinZoom || z > MaxZoom {
		t.Errorf("zoom %v escaped [%v, %v]", z, MinZoom, MaxZoom)
	}
}

// SetImageSize arrives from the image-loader goroutine while the paint
// path reads the transform.
func TestConcurrentImageInstallAndRead(t *testing.T) {
	v := newTestViewport()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			v.SetImageSize(1600+i, 800)
		}
	}()

	for i := 0; i < 1000; i++ {
		_, _, _ = v.ScaleAndOrigin()
		_ = v.HasImage()
	}
	<-done

	if !v.HasImage() {
		t.Error("image size lost")
	}
}
