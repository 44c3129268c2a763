// Package mask builds the frequency masks applied to centered spectra.
//
// Every mask is centered on (rows/2, cols/2), the position of the zero
// frequency after a spectrum shift.
package mask

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"frequency-filters/internal/errs"
)

// SmoothEpsilon keeps the smooth high-pass finite at the center.
const SmoothEpsilon = 1e-4

// LowPass returns the ideal low-pass mask: 1 within cutoff of the center, 0 elsewhere.
func LowPass(rows, cols int, cutoff float64) (*mat.Dense, error) {
	if err := validate(rows, cols, cutoff); err != nil {
		return nil, fmt.Errorf("low-pass mask: %w", err)
	}
	return build(rows, cols, func(d float64) float64 {
		if d <= cutoff {
			return 1
		}
		return 0
	}), nil
}

// HighPass returns 1 - LowPass(rows, cols, cutoff).
func HighPass(rows, cols int, cutoff float64) (*mat.Dense, error) {
	if err := validate(rows, cols, cutoff); err != nil {
		return nil, fmt.Errorf("high-pass mask: %w", err)
	}
	return build(rows, cols, func(d float64) float64 {
		if d <= cutoff {
			return 0
		}
		return 1
	}), nil
}

// SmoothHighPass returns a Butterworth-style high-pass mask,
// 1 / (1 + (cutoff/(d+eps))^(2*order)), continuous in [0,1].
func SmoothHighPass(rows, cols int, cutoff float64, order int) (*mat.Dense, error) {
	if err := validate(rows, cols, cutoff); err != nil {
		return nil, fmt.Errorf("smooth high-pass mask: %w", err)
	}
	if order < 1 {
		return nil, fmt.Errorf("smooth high-pass mask: order %d below 1: %w", order, errs.ErrInvalidParameter)
	}

	exp := float64(2 * order)
	return build(rows, cols, func(d float64) float64 {
		return 1 / (1 + math.Pow(cutoff/(d+SmoothEpsilon), exp))
	}), nil
}

func validate(rows, cols int, cutoff float64) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("shape %dx%d: %w", rows, cols, errs.ErrInvalidParameter)
	}
	if cutoff < 0 || math.IsNaN(cutoff) {
		return fmt.Errorf("cutoff %v: %w", cutoff, errs.ErrInvalidParameter)
	}
	return nil
}

func build(rows, cols int, value func(d float64) float64) *mat.Dense {
	cr, cc := rows/2, cols/2
	data := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		dr := float64(r - cr)
		for c := 0; c < cols; c++ {
			dc := float64(c - cc)
			data[r*cols+c] = value(math.Hypot(dr, dc))
		}
	}
	return mat.NewDense(rows, cols, data)
}
