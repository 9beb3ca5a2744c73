package face

import (
	"testing"

	"face-review/pkg/geometry"
)

func TestLabel(t *testing.T) {
	a := Annotation{
		Box:        geometry.NewRect(10, 10, 40, 50),
		Name:       "Grace Hopper",
		Confidence: 0.924,
	}
	if got := a.Label(); got != "Grace Hopper (92%)" {
		t.Errorf("Label() = %q", got)
	}

	a.Name = ""
	if got := a.Label(); got != "" {
		t.Errorf("unnamed face should have empty label, got %q", got)
	}
}

func TestValid(t *testing.T) {
	if (Annotation{}).Valid() {
		t.Error("zero annotation should be invalid")
	}
	if !(Annotation{Box: geometry.NewRect(0, 0, 10, 10)}).Valid() {
		t.Error("annotation with box should be valid")
	}
}

func TestClampIndex(t *testing.T) {
	faces := []Annotation{
		{Box: geometry.NewRect(0, 0, 10, 10)},
		{Box: geometry.NewRect(20, 0, 10, 10)},
	}

	if got := ClampIndex(5, faces); got != 1 {
		t.Errorf("ClampIndex(5) = %d, want 1", got)
	}
	if got := ClampIndex(-3, faces); got != 0 {
		t.Errorf("ClampIndex(-3) = %d, want 0", got)
	}
	if got := ClampIndex(0, nil); got != -1 {
		t.Errorf("ClampIndex on empty list = %d, want -1", got)
	}
}
