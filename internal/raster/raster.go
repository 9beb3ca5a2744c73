// Package raster provides decoded image loading for the viewer.
package raster

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "github.com/chai2010/webp"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Raster is an immutable decoded bitmap plus its intrinsic pixel size.
// It is created once per load and shared read-only with the viewport and
// the overlay renderer for the lifetime of the displayed image.
type Raster struct {
	Path   string
	Image  image.Image
	Width  int
	Height int
}

// Load decodes the image at path. RAW formats are expected to have been
// converted to a displayable format upstream; Load only handles formats
// registered with image.Decode (PNG, JPEG, GIF, TIFF, BMP, WebP).
func Load(path string) (*Raster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	bounds := img.Bounds()
	return &Raster{
		Path:   path,
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// FromImage wraps an already-decoded image.
func FromImage(img image.Image) *Raster {
	bounds := img.Bounds()
	return &Raster{
		Image:  img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}
}

// Empty reports whether the raster has no pixels.
func (r *Raster) Empty() bool {
	return r == nil || r.Image == nil || r.Width == 0 || r.Height == 0
}
