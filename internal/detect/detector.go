// Package detect runs DNN face detection over a decoded raster. It is a
// collaborator of the viewer, not part of the rendering engine: the engine
// only consumes the annotations produced here.
package detect

import (
	"fmt"
	"image"
	"log"
	"sort"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"face-review/internal/config"
	"face-review/internal/face"
	"face-review/pkg/geometry"
)

// dnnInputSize is the fixed input of the SSD face model.
const dnnInputSize = 300

// Detector wraps an OpenCV DNN face detection network (the res10 SSD
// Caffe model). Not safe for concurrent use.
type Detector struct {
	cfg config.DetectorConfig
	net gocv.Net
}

// New loads the detection network from the configured model files.
func New(cfg config.DetectorConfig) (*Detector, error) {
	net := gocv.ReadNetFromCaffe(cfg.ProtoPath, cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load face model from %s / %s", cfg.ProtoPath, cfg.ModelPath)
	}
	return &Detector{cfg: cfg, net: net}, nil
}

// Close releases the network.
func (d *Detector) Close() error {
	return d.net.Close()
}

// Detect returns face annotations in image-space pixels of img, sorted
// left to right. Oversized inputs are downscaled before inference and the
// boxes scaled back, which keeps detection time bounded on scanner-sized
// rasters.
func (d *Detector) Detect(img image.Image) ([]face.Annotation, error) {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, nil
	}

	work := img
	upscale := 1.0
	longEdge := bounds.Dx()
	if bounds.Dy() > longEdge {
		longEdge = bounds.Dy()
	}
	if d.cfg.MaxInputEdge > 0 && longEdge > d.cfg.MaxInputEdge {
		work = imaging.Fit(img, d.cfg.MaxInputEdge, d.cfg.MaxInputEdge, imaging.Lanczos)
		upscale = float64(bounds.Dx()) / float64(work.Bounds().Dx())
	}

	mat, err := gocv.ImageToMatRGB(work)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0,
		image.Pt(dnnInputSize, dnnInputSize),
		gocv.NewScalar(104, 177, 123, 0), false, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	defer prob.Close()

	w := float64(work.Bounds().Dx())
	h := float64(work.Bounds().Dy())

	var found []face.Annotation
	for i := 0; i < prob.Total(); i += 7 {
		confidence := float64(prob.GetFloatAt(0, i+2))
		if confidence < d.cfg.Confidence {
			continue
		}
		x1 := float64(prob.GetFloatAt(0, i+3)) * w
		y1 := float64(prob.GetFloatAt(0, i+4)) * h
		x2 := float64(prob.GetFloatAt(0, i+5)) * w
		y2 := float64(prob.GetFloatAt(0, i+6)) * h

		box := geometry.NewRect(x1, y1, x2-x1, y2-y1).Scale(upscale)
		if box.Empty() {
			continue
		}
		found = append(found, face.Annotation{Box: box, Confidence: confidence})
	}

	found = suppressOverlaps(found, d.cfg.NMSOverlap)

	sort.Slice(found, func(i, j int) bool {
		return found[i].Box.X < found[j].Box.X
	})

	if len(found) > 0 {
		confs := make([]float64, len(found))
		for i, f := range found {
			confs[i] = f.Confidence
		}
		log.Printf("detect: %d faces, mean confidence %.2f", len(found), stat.Mean(confs, nil))
	}

	return found, nil
}

// suppressOverlaps performs greedy non-maximum suppression: keep the most
// confident detection, drop any remaining one whose IoU with a kept box
// exceeds maxOverlap.
func suppressOverlaps(faces []face.Annotation, maxOverlap float64) []face.Annotation {
	if len(faces) < 2 {
		return faces
	}

	// Argsort ranks ascending by confidence; walk it backwards for the
	// greedy most-confident-first pass.
	confs := make([]float64, len(faces))
	for i, f := range faces {
		confs[i] = f.Confidence
	}
	order := make([]int, len(faces))
	floats.Argsort(confs, order)

	var kept []face.Annotation
	for i := len(order) - 1; i >= 0; i-- {
		candidate := faces[order[i]]
		overlapping := false
		for _, k := range kept {
			if iou(candidate.Box, k.Box) > maxOverlap {
				overlapping = true
				break
			}
		}
		if !overlapping {
			kept = append(kept, candidate)
		}
	}
	return kept
}

// iou returns the intersection-over-union of two rectangles.
func iou(a, b geometry.Rect) float64 {
	if !a.Intersects(b) {
		return 0
	}
	ix := minFloat(a.MaxX(), b.MaxX()) - maxFloat(a.X, b.X)
	iy := minFloat(a.MaxY(), b.MaxY()) - maxFloat(a.Y, b.Y)
	inter := ix * iy
	union := a.Width*a.Height + b.Width*b.Height - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
