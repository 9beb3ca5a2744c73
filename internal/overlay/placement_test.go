package overlay

import (
	"math"
	"testing"

	"face-review/internal/config"
	"face-review/pkg/geometry"
)

func newTestSolver() *Solver {
	return NewSolver(config.Default().Overlay, geometry.NewSize(800, 600))
}

func TestBufferScalesWithDisplayedWidth(t *testing.T) {
	s := newTestSolver()

	// Small displayed image: the pixel floor wins.
	if got := s.Buffer(100); got != 25 {
		t.Errorf("Buffer(100) = %v, want floor 25", got)
	}
	// Large displayed image: the ratio wins (2000 * 0.03 = 60).
	if got := s.Buffer(2000); got != 60 {
		t.Errorf("Buffer(2000) = %v, want 60", got)
	}
}

func TestPlaceFirstFitScanOrder(t *testing.T) {
	s := newTestSolver()
	bounds := geometry.NewRect(0, 0, 800, 600)
	faceBox := geometry.NewRect(300, 250, 60, 80)

	p := s.Place(faceBox, 70, 20, nil, bounds)
	if p.OutsideImage {
		t.Fatal("unobstructed label should land in bounds")
	}

	// With no obstacles the very first candidate wins: radius =
	// max(60,80)/2 + 20 = 60, angle 0 -> label centered at (cx+60, cy).
	cx, cy := 330.0, 290.0
	wantX := cx + 60 - 70.0/2
	wantY := cy - 20.0/2
	if math.Abs(p.X-wantX) > 1e-9 || math.Abs(p.Y-wantY) > 1e-9 {
		t.Errorf("placement (%v,%v), want (%v,%v)", p.X, p.Y, wantX, wantY)
	}
}

func TestPlaceDeterministic(t *testing.T) {
	s := newTestSolver()
	bounds := geometry.NewRect(0, 0, 800, 600)
	faceBox := geometry.NewRect(100, 100, 50, 50)
	obstacles := []geometry.Rect{faceBox, geometry.NewRect(180, 80, 60, 40)}

	a := s.Place(faceBox, 90, 18, obstacles, bounds)
	b := s.Place(faceBox, 90, 18, obstacles, bounds)
	if a != b {
		t.Errorf("same input produced %+v and %+v", a, b)
	}
}

func TestPlacePrefersInBounds(t *testing.T) {
	s := newTestSolver()
	bounds := geometry.NewRect(0, 0, 800, 600)
	// Face hugging the right edge: the angle-0 candidate pokes outside.
	faceBox := geometry.NewRect(740, 250, 50, 50)

	p := s.Place(faceBox, 80, 20, []geometry.Rect{faceBox}, bounds)
	if p.OutsideImage {
		t.Fatal("an in-bounds candidate exists and must be preferred")
	}
	if !bounds.ContainsRect(p.Rect(80, 20)) {
		t.Errorf("placement %+v escapes image bounds", p)
	}
}

func TestPlaceCloseFacesScenario(t *testing.T) {
	// Two 60px boxes 40px apart, both labeled: the gap is smaller than
	// the buffered clearance, so the solver must spread the labels out.
	s := newTestSolver()
	bounds := geometry.NewRect(0, 0, 800, 600)
	boxA := geometry.NewRect(100, 200, 60, 60)
	boxB := geometry.NewRect(200, 200, 60, 60)
	labelW, labelH := 88.0, 18.0

	buffer := s.Buffer(bounds.Width)

	obstacles := []geometry.Rect{boxA}
	pa := s.Place(boxA, labelW, labelH, obstacles, bounds)
	la := pa.Rect(labelW, labelH)
	obstacles = append(obstacles, la, boxB)
	pb := s.Place(boxB, labelW, labelH, obstacles, bounds)
	lb := pb.Rect(labelW, labelH)

	if pa.OutsideImage || pb.OutsideImage {
		t.Fatalf("both labels should fit in an 800x600 surface: %+v %+v", pa, pb)
	}

	placed := []geometry.Rect{boxA, boxB, la, lb}
	for i := 2; i < len(placed); i++ { // labels against everything prior
		for j := 0; j < i; j++ {
			if placed[i].IntersectsBuffered(placed[j], buffer) {
				t.Errorf("label %d overlaps obstacle %d: %+v vs %+v", i, j, placed[i], placed[j])
			}
		}
	}
}

func TestPlaceManyFacesNonOverlap(t *testing.T) {
	// Grid of faces, all labeled: every successfully placed label must
	// clear every earlier box and label under the buffered AABB test.
	s := newTestSolver()
	bounds := geometry.NewRect(0, 0, 800, 600)
	labelW, labelH := 72.0, 18.0
	buffer := s.Buffer(bounds.Width)

	var obstacles []geometry.Rect
	var labels []geometry.Rect

	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			box := geometry.NewRect(float64(60+col*150), float64(60+row*130), 50, 50)
			obstacles = append(obstacles, box)

			p := s.Place(box, labelW, labelH, obstacles, bounds)
			if p.OutsideImage {
				continue // defined fallback, not a failure
			}
			label := p.Rect(labelW, labelH)

			for k, o := range obstacles {
				if label.IntersectsBuffered(o, buffer) {
					t.Fatalf("label for box %d overlaps obstacle %d", len(labels), k)
				}
			}
			for k, other := range labels {
				if label.IntersectsBuffered(other, buffer) {
					t.Fatalf("labels %d and %d overlap", len(labels), k)
				}
			}

			labels = append(labels, label)
			obstacles = append(obstacles, label)
		}
	}

	if len(labels) == 0 {
		t.Error("expected at least some labels to place in bounds")
	}
}

func TestPlaceExhaustionFallsBackAboveBox(t *testing.T) {
	// A tiny 40x40 surface leaves no clear spot anywhere.
	s := NewSolver(config.Default().Overlay, geometry.NewSize(40, 40))
	bounds := geometry.NewRect(0, 0, 40, 40)
	faceBox := geometry.NewRect(0, 0, 40, 40)
	// Blanket the area around the face with obstacles.
	obstacles := []geometry.Rect{faceBox, geometry.NewRect(-200, -200, 440, 440)}

	p := s.Place(faceBox, 60, 20, obstacles, bounds)
	if !p.OutsideImage {
		t.Error("exhausted scan must flag the fallback placement")
	}
	if p.Y >= faceBox.Y {
		t.Errorf("fallback should sit above the box, got y=%v", p.Y)
	}
	wantX := faceBox.Center().X - 30
	if math.Abs(p.X-wantX) > 1e-9 {
		t.Errorf("fallback should center over the box, got x=%v want %v", p.X, wantX)
	}
}
