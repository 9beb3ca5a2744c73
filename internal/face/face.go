// Package face defines the face annotation data model shared by the
// detector, the overlay renderer, and project persistence.
package face

import (
	"fmt"

	"face-review/pkg/geometry"
)

// Annotation is one detected (or manually drawn) face on the current image.
// The bounding box is in image-space pixels. Name is empty until the face
// has been identified.
type Annotation struct {
	Box        geometry.Rect `json:"box"`
	Name       string        `json:"name,omitempty"`
	Confidence float64       `json:"confidence"`
	Manual     bool          `json:"manual,omitempty"`
}

// Valid reports whether the annotation carries a drawable bounding box.
// Backend responses occasionally contain entries without a box (for
// example a match result whose detection was discarded); these are
// skipped during rendering rather than treated as errors.
func (a Annotation) Valid() bool {
	return !a.Box.Empty()
}

// Named reports whether the face has an identity label to draw.
func (a Annotation) Named() bool {
	return a.Name != ""
}

// Label returns the overlay label text, e.g. "Ada Lovelace (92%)".
func (a Annotation) Label() string {
	if a.Name == "" {
		return ""
	}
	return fmt.Sprintf("%s (%.0f%%)", a.Name, a.Confidence*100)
}

// CountNamed returns how many annotations in the list carry a name.
func CountNamed(faces []Annotation) int {
	n := 0
	for _, f := range faces {
		if f.Named() {
			n++
		}
	}
	return n
}

// ClampIndex limits an active-face index to the valid range for the list.
// Returns -1 for an empty list.
func ClampIndex(i int, faces []Annotation) int {
	if len(faces) == 0 {
		return -1
	}
	if i < 0 {
		return 0
	}
	if i >= len(faces) {
		return len(faces) - 1
	}
	return i
}
