package raster

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}

	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeTestPNG(t, 64, 48)

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Width != 64 || r.Height != 48 {
		t.Errorf("size = %dx%d, want 64x48", r.Width, r.Height)
	}
	if r.Path != path {
		t.Errorf("path = %q", r.Path)
	}
	if r.Empty() {
		t.Error("loaded raster should not be empty")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadUndecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected decode error")
	}
}

func TestEmpty(t *testing.T) {
	var r *Raster
	if !r.Empty() {
		t.Error("nil raster should be empty")
	}
	if FromImage(image.NewRGBA(image.Rect(0, 0, 10, 10))).Empty() {
		t.Error("10x10 raster should not be empty")
	}
}
