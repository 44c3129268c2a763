package gabor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"frequency-filters/internal/errs"
)

// Kernel builds a real Gabor kernel the way OpenCV's getGaborKernel does.
// The side is 2*(size/2)+1 so the kernel always has a center sample.
func Kernel(size int, sigma, theta, lambda, gamma, psi float64) (*mat.Dense, error) {
	switch {
	case size <= 0:
		return nil, fmt.Errorf("gabor kernel: size %d: %w", size, errs.ErrInvalidParameter)
	case !(sigma > 0):
		return nil, fmt.Errorf("gabor kernel: sigma %v: %w", sigma, errs.ErrInvalidParameter)
	case lambda == 0 || math.IsNaN(lambda):
		return nil, fmt.Errorf("gabor kernel: wavelength %v: %w", lambda, errs.ErrInvalidParameter)
	case !(gamma > 0):
		return nil, fmt.Errorf("gabor kernel: aspect ratio %v: %w", gamma, errs.ErrInvalidParameter)
	}

	half := size / 2
	side := 2*half + 1

	sigmaX, sigmaY := sigma, sigma/gamma
	ex := -0.5 / (sigmaX * sigmaX)
	ey := -0.5 / (sigmaY * sigmaY)
	wave := 2 * math.Pi / lambda
	s, c := math.Sincos(theta)

	k := mat.NewDense(side, side, nil)
	for y := -half; y <= half; y++ {
		for x := -half; x <= half; x++ {
			xr := float64(x)*c + float64(y)*s
			yr := -float64(x)*s + float64(y)*c
			v := math.Exp(ex*xr*xr+ey*yr*yr) * math.Cos(wave*xr+psi)
			k.Set(half-y, half-x, v)
		}
	}
	return k, nil
}

// Normalize divides k by factor times the sum of its coefficients.
// A factor above 1 leaves the kernel summing to 1/factor.
func Normalize(k mat.Matrix, factor float64) (*mat.Dense, error) {
	if !(factor > 0) {
		return nil, fmt.Errorf("normalize kernel: factor %v: %w", factor, errs.ErrInvalidParameter)
	}
	sum := mat.Sum(k)
	if math.Abs(sum) < 1e-12 || math.IsNaN(sum) {
		return nil, fmt.Errorf("normalize kernel: coefficient sum %v: %w", sum, errs.ErrInvalidParameter)
	}

	var out mat.Dense
	out.Scale(1/(factor*sum), k)
	return &out, nil
}

// Thetas returns n orientations evenly spaced over [0, pi).
func Thetas(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) * math.Pi / float64(n)
	}
	return out
}
