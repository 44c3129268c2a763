package gabor

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"frequency-filters/internal/errs"
	"frequency-filters/internal/raster"
)

// Convolver applies a square, odd-sided kernel to a grayscale image.
//
// Implementations must produce a same-size 8-bit image by correlating the
// kernel (anchored at its center) with the image, replicating edge pixels
// past the border, then rounding and saturating each result to [0,255].
type Convolver interface {
	Convolve(img *image.Gray, kernel mat.Matrix) (*image.Gray, error)
}

// NativeConvolver is the pure Go Convolver.
type NativeConvolver struct{}

func (NativeConvolver) Convolve(img *image.Gray, kernel mat.Matrix) (*image.Gray, error) {
	if err := raster.ValidateGray(img, "convolve"); err != nil {
		return nil, err
	}
	if err := ValidateKernel(kernel); err != nil {
		return nil, err
	}

	src := raster.Compact(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	side, _ := kernel.Dims()
	half := side / 2

	coeffs := make([]float64, side*side)
	for r := 0; r < side; r++ {
		for c := 0; c < side; c++ {
			coeffs[r*side+c] = kernel.At(r, c)
		}
	}

	// Clamped offsets for every tap position, precomputed per axis.
	cols := make([]int, w*side)
	for x := 0; x < w; x++ {
		for k := 0; k < side; k++ {
			cols[x*side+k] = clamp(x+k-half, w)
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for kr := 0; kr < side; kr++ {
				row := src.Pix[clamp(y+kr-half, h)*w:]
				taps := coeffs[kr*side : (kr+1)*side]
				for kc, cx := range cols[x*side : (x+1)*side] {
					acc += taps[kc] * float64(row[cx])
				}
			}
			dst.Pix[y*w+x] = saturate(math.RoundToEven(acc))
		}
	}
	return dst, nil
}

// ValidateKernel rejects kernels that are not square with an odd side.
func ValidateKernel(kernel mat.Matrix) error {
	if kernel == nil {
		return fmt.Errorf("convolve: nil kernel: %w", errs.ErrInvalidParameter)
	}
	r, c := kernel.Dims()
	if r != c || r%2 == 0 {
		return fmt.Errorf("convolve: kernel %dx%d is not square with an odd side: %w", r, c, errs.ErrInvalidParameter)
	}
	return nil
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func saturate(v float64) uint8 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
