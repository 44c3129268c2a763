// Package imageio loads and saves the images a stage reads and writes.
package imageio

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"

	"frequency-filters/internal/errs"
	"frequency-filters/internal/raster"
)

// Codec decodes source images and encodes results. The format is chosen
// from the file extension.
type Codec interface {
	Load(path string) (image.Image, error)
	LoadGray(path string) (*image.Gray, error)
	Save(path string, img image.Image) error
}

// ImagingCodec is the pure Go Codec.
type ImagingCodec struct {
	// JPEGQuality applies to .jpg and .jpeg outputs; zero means 95.
	JPEGQuality int
}

func (c ImagingCodec) Load(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open %s: %v: %w", path, err, errs.ErrUnreadableImage)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %v: %w", path, err, errs.ErrUnreadableImage)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("image %s is empty: %w", path, errs.ErrUnreadableImage)
	}
	return img, nil
}

func (c ImagingCodec) LoadGray(path string) (*image.Gray, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	return raster.Grayscale(img), nil
}

func (c ImagingCodec) Save(path string, img image.Image) error {
	quality := c.JPEGQuality
	if quality == 0 {
		quality = 95
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// Fit scales img down so neither side exceeds maxSide, keeping the aspect
// ratio. Images already within bounds, or a non-positive maxSide, are
// returned unchanged.
func Fit(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	if maxSide <= 0 || (b.Dx() <= maxSide && b.Dy() <= maxSide) {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}
