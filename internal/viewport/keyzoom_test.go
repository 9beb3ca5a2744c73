package viewport

import (
	"math"
	"sync"
	"testing"
	"time"
)

// zoomRecorder collects factors delivered by the key machine.
type zoomRecorder struct {
	mu      sync.Mutex
	factors []float64
}

func (r *zoomRecorder) record(f float64) {
	r.mu.Lock()
	r.factors = append(r.factors, f)
	r.mu.Unlock()
}

func (r *zoomRecorder) snapshot() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.factors...)
}

func TestKeyZoomTapIsDiscrete(t *testing.T) {
	rec := &zoomRecorder{}
	kz := NewKeyZoom(rec.record)
	kz.SetTimings(100*time.Millisecond, 10*time.Millisecond)

	kz.KeyDown(ZoomIn)
	time.Sleep(20 * time.Millisecond) // release well before the hold delay
	kz.KeyUp()

	time.Sleep(150 * time.Millisecond) // hold timer must not fire late

	got := rec.snapshot()
	if len(got) != 1 {
		t.Fatalf("expected one discrete step, got %d events", len(got))
	}
	if got[0] != DiscreteStep {
		t.Errorf("factor = %v, want %v", got[0], DiscreteStep)
	}
}

func TestKeyZoomTapOutInverts(t *testing.T) {
	rec := &zoomRecorder{}
	kz := NewKeyZoom(rec.record)
	kz.SetTimings(100*time.Millisecond, 10*time.Millisecond)

	kz.KeyDown(ZoomOut)
	kz.KeyUp()

	got := rec.snapshot()
	if len(got) != 1 {
		t.Fatalf("expected one step, got %d", len(got))
	}
	if math.Abs(got[0]-1/DiscreteStep) > 1e-12 {
		t.Errorf("factor = %v, want %v", got[0], 1/DiscreteStep)
	}
}

func TestKeyZoomHoldIsContinuous(t *testing.T) {
	rec := &zoomRecorder{}
	kz := NewKeyZoom(rec.record)
	kz.SetTimings(30*time.Millisecond, 10*time.Millisecond)

	kz.KeyDown(ZoomIn)
	time.Sleep(150 * time.Millisecond)
	kz.KeyUp()

	got := rec.snapshot()
	if len(got) < 3 {
		t.Fatalf("expected several continuous ticks, got %d", len(got))
	}
	for _, f := range got {
		if f != ContinuousStep {
			t.Fatalf("continuous tick factor = %v, want %v", f, ContinuousStep)
		}
	}

	// No further ticks after release.
	n := len(got)
	time.Sleep(60 * time.Millisecond)
	if len(rec.snapshot()) != n {
		t.Error("ticks continued after KeyUp")
	}
}

func TestKeyZoomAutoRepeatIgnored(t *testing.T) {
	rec := &zoomRecorder{}
	kz := NewKeyZoom(rec.record)
	kz.SetTimings(100*time.Millisecond, 10*time.Millisecond)

	kz.KeyDown(ZoomIn)
	kz.KeyDown(ZoomIn) // OS auto-repeat
	kz.KeyDown(ZoomIn)
	kz.KeyUp()

	if got := rec.snapshot(); len(got) != 1 {
		t.Errorf("expected one step despite auto-repeat, got %d", len(got))
	}
}

func TestKeyZoomCancel(t *testing.T) {
	rec := &zoomRecorder{}
	kz := NewKeyZoom(rec.record)
	kz.SetTimings(30*time.Millisecond, 10*time.Millisecond)

	kz.KeyDown(ZoomIn)
	kz.Cancel()
	time.Sleep(80 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("cancel should suppress all zoom events, got %d", len(got))
	}

	// The machine is reusable after a cancel.
	kz.KeyDown(ZoomOut)
	kz.KeyUp()
	if got := rec.snapshot(); len(got) != 1 {
		t.Errorf("expected one step after cancel+tap, got %d", len(got))
	}
}
