// Package raster converts between Go images and the numeric grids used by the
// frequency-domain filters.
package raster

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"frequency-filters/internal/errs"
)

// Grayscale converts img to 8-bit luma with ITU-R 601-2 weights
// (L = R*299/1000 + G*587/1000 + B*114/1000, rounded).
// The result always starts at the origin and never aliases img.
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < h; y++ {
			so := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[so:so+w])
		}
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			so := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := dst.Pix[y*dst.Stride : y*dst.Stride+w]
			for x := range row {
				p := src.Pix[so+4*x : so+4*x+3 : so+4*x+3]
				row[x] = luma(p[0], p[1], p[2])
			}
		}
	case *image.RGBA:
		for y := 0; y < h; y++ {
			so := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := dst.Pix[y*dst.Stride : y*dst.Stride+w]
			for x := range row {
				p := src.Pix[so+4*x : so+4*x+3 : so+4*x+3]
				row[x] = luma(p[0], p[1], p[2])
			}
		}
	default:
		for y := 0; y < h; y++ {
			row := dst.Pix[y*dst.Stride : y*dst.Stride+w]
			for x := range row {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				row[x] = luma(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			}
		}
	}

	return dst
}

func luma(r, g, b uint8) uint8 {
	return uint8((19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16)
}

// Compact returns img itself when its pixels are stored contiguously from the
// origin, otherwise a compact copy. Callers must treat the result as read-only.
func Compact(img *image.Gray) *image.Gray {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == b.Dx() {
		return img
	}
	return Grayscale(img)
}

// ValidateGray rejects nil and zero-area images.
func ValidateGray(img *image.Gray, operation string) error {
	if img == nil {
		return fmt.Errorf("%s: nil image: %w", operation, errs.ErrInvalidInput)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return fmt.Errorf("%s: image has invalid dimensions %dx%d: %w",
			operation, b.Dx(), b.Dy(), errs.ErrInvalidInput)
	}
	return nil
}

// ToDense copies a grayscale image into a rows×cols matrix of intensities.
func ToDense(img *image.Gray) *mat.Dense {
	g := Compact(img)
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	data := make([]float64, w*h)
	for i, v := range g.Pix[:w*h] {
		data[i] = float64(v)
	}
	return mat.NewDense(h, w, data)
}

// Stats returns the mean and standard deviation of the image intensities.
func Stats(img *image.Gray) (mean, std float64) {
	g := Compact(img)
	n := g.Bounds().Dx() * g.Bounds().Dy()
	if n == 0 {
		return 0, 0
	}
	values := make([]float64, n)
	for i, v := range g.Pix[:n] {
		values[i] = float64(v)
	}
	return stat.MeanStdDev(values, nil)
}

// AbsDiff returns |a - b| per pixel. Both images must share dimensions.
func AbsDiff(a, b *image.Gray) (*image.Gray, error) {
	ca, cb := Compact(a), Compact(b)
	if ca.Bounds().Size() != cb.Bounds().Size() {
		return nil, fmt.Errorf("difference of %v and %v images: %w",
			ca.Bounds().Size(), cb.Bounds().Size(), errs.ErrShapeMismatch)
	}
	dst := image.NewGray(image.Rect(0, 0, ca.Bounds().Dx(), ca.Bounds().Dy()))
	for i := range dst.Pix {
		x, y := int(ca.Pix[i]), int(cb.Pix[i])
		if x > y {
			dst.Pix[i] = uint8(x - y)
		} else {
			dst.Pix[i] = uint8(y - x)
		}
	}
	return dst, nil
}
