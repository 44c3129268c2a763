// Package spectral filters grayscale images in the frequency domain.
//
// The forward transform is shifted so the zero frequency sits at
// (rows/2, cols/2), the same center the mask builders use.
package spectral

import (
	"fmt"
	"image"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/mat"

	"frequency-filters/internal/errs"
	"frequency-filters/internal/raster"
)

// constantTolerance is the relative spread below which a field normalizes to zero.
const constantTolerance = 1e-9

// Result holds the filtered image and the spectra seen on the way.
type Result struct {
	// Image is the reconstruction rescaled to [0,255].
	Image *image.Gray
	// Reconstruction is the magnitude of the inverse transform before rescaling.
	Reconstruction *mat.Dense
	// OriginalSpectrum and FilteredSpectrum are 20*ln(|F|+1) of the centered
	// spectrum before and after masking.
	OriginalSpectrum *mat.Dense
	FilteredSpectrum *mat.Dense
}

// Apply multiplies the centered spectrum of img by mask and transforms back.
// The mask must have the same dimensions as the image.
func Apply(img *image.Gray, mask mat.Matrix) (*Result, error) {
	if err := raster.ValidateGray(img, "frequency filter"); err != nil {
		return nil, err
	}
	if mask == nil {
		return nil, fmt.Errorf("frequency filter: nil mask: %w", errs.ErrInvalidInput)
	}

	rows, cols := img.Bounds().Dy(), img.Bounds().Dx()
	if mr, mc := mask.Dims(); mr != rows || mc != cols {
		return nil, fmt.Errorf("frequency filter: mask %dx%d for image %dx%d: %w",
			mr, mc, rows, cols, errs.ErrShapeMismatch)
	}

	spectrum := Forward(img)
	original := LogMagnitude(spectrum)

	for r, row := range spectrum {
		for c := range row {
			row[c] *= complex(mask.At(r, c), 0)
		}
	}
	filtered := LogMagnitude(spectrum)

	reconstruction := Inverse(spectrum)

	return &Result{
		Image:            Normalize(reconstruction),
		Reconstruction:   reconstruction,
		OriginalSpectrum: original,
		FilteredSpectrum: filtered,
	}, nil
}

// Forward returns the centered 2D spectrum of img.
func Forward(img *image.Gray) [][]complex128 {
	g := raster.Compact(img)
	rows, cols := g.Bounds().Dy(), g.Bounds().Dx()

	field := make([][]float64, rows)
	for r := range field {
		field[r] = make([]float64, cols)
		for c, v := range g.Pix[r*cols : (r+1)*cols] {
			field[r][c] = float64(v)
		}
	}

	return Shift(fft.FFT2Real(field))
}

// Inverse undoes the centering of spectrum, transforms it back and returns
// the magnitude of every sample.
func Inverse(spectrum [][]complex128) *mat.Dense {
	spatial := fft.IFFT2(InverseShift(spectrum))
	rows, cols := dims(spatial)

	out := mat.NewDense(rows, cols, nil)
	for r, row := range spatial {
		for c, v := range row {
			out.Set(r, c, cmplx.Abs(v))
		}
	}
	return out
}

// Shift moves the zero frequency from (0,0) to (rows/2, cols/2).
func Shift(in [][]complex128) [][]complex128 {
	rows, cols := dims(in)
	out := alloc(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[(r+rows/2)%rows][(c+cols/2)%cols] = in[r][c]
		}
	}
	return out
}

// InverseShift is the inverse of Shift for odd and even sizes.
func InverseShift(in [][]complex128) [][]complex128 {
	rows, cols := dims(in)
	out := alloc(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[r][c] = in[(r+rows/2)%rows][(c+cols/2)%cols]
		}
	}
	return out
}

// LogMagnitude returns 20*ln(|F|+1) for every coefficient.
func LogMagnitude(spectrum [][]complex128) *mat.Dense {
	rows, cols := dims(spectrum)
	out := mat.NewDense(rows, cols, nil)
	for r, row := range spectrum {
		for c, v := range row {
			out.Set(r, c, 20*math.Log(cmplx.Abs(v)+1))
		}
	}
	return out
}

// Normalize rescales field linearly so its minimum maps to 0 and its maximum
// to 255, truncating to 8 bit. A constant field yields an all-zero image.
func Normalize(field mat.Matrix) *image.Gray {
	rows, cols := field.Dims()
	out := image.NewGray(image.Rect(0, 0, cols, rows))
	if rows == 0 || cols == 0 {
		return out
	}

	lo, hi := mat.Min(field), mat.Max(field)
	spread := hi - lo
	if spread <= constantTolerance*math.Max(1, math.Abs(hi)) {
		return out
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := 255 * (field.At(r, c) - lo) / spread
			out.Pix[r*cols+c] = uint8(math.Max(0, math.Min(255, v)))
		}
	}
	return out
}

func dims(m [][]complex128) (rows, cols int) {
	if len(m) == 0 {
		return 0, 0
	}
	return len(m), len(m[0])
}

func alloc(rows, cols int) [][]complex128 {
	backing := make([]complex128, rows*cols)
	out := make([][]complex128, rows)
	for r := range out {
		out[r] = backing[r*cols : (r+1)*cols : (r+1)*cols]
	}
	return out
}
