// Command facedetect runs face detection on a photo and prints the
// results, optionally writing them as a .facerev project.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"face-review/internal/config"
	"face-review/internal/detect"
	"face-review/internal/project"
	"face-review/internal/raster"
)

func main() {
	imagePath := flag.String("image", "", "Path to photo (PNG, JPEG, GIF, BMP, TIFF, or WebP)")
	proto := flag.String("proto", "", "Detector prototxt path (default from config)")
	model := flag.String("model", "", "Detector caffemodel path (default from config)")
	confidence := flag.Float64("confidence", 0, "Minimum detection confidence (0 = config default)")
	out := flag.String("out", "", "Write detections as a .facerev project")
	asJSON := flag.Bool("json", false, "Print detections as JSON instead of text")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: facedetect -image <path> [-confidence 0.5] [-out faces.facerev] [-json]")
		os.Exit(1)
	}

	cfg := config.Default()
	if *proto != "" {
		cfg.Detector.ProtoPath = *proto
	}
	if *model != "" {
		cfg.Detector.ModelPath = *model
	}
	if *confidence > 0 {
		cfg.Detector.Confidence = *confidence
	}

	r, err := raster.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded image: %dx%d pixels\n", r.Width, r.Height)

	det, err := detect.New(cfg.Detector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load detector: %v\n", err)
		os.Exit(1)
	}
	defer det.Close()

	faces, err := det.Detect(r.Image)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Detection failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(faces); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Printf("\nDetected %d faces:\n", len(faces))
		for i, f := range faces {
			fmt.Printf("  %2d: (%.0f,%.0f) %.0fx%.0f confidence %.2f\n",
				i, f.Box.X, f.Box.Y, f.Box.Width, f.Box.Height, f.Confidence)
		}
	}

	if *out != "" {
		p := project.New("facedetect")
		p.SetImage(*out, *imagePath)
		p.Faces = faces
		if len(faces) > 0 {
			p.ActiveFace = 0
		}
		if err := p.Save(*out); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save project: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *out)
	}
}
