// Package gabor enhances texture with a bank of oriented Gabor kernels.
package gabor

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"frequency-filters/internal/errs"
	"frequency-filters/internal/raster"
)

// Params configures a filter bank.
type Params struct {
	KernelSize          int       `toml:"kernel_size"`
	Sigma               float64   `toml:"sigma"`
	Orientations        int       `toml:"orientations"`
	Lambda              float64   `toml:"lambda"`
	Gamma               float64   `toml:"gamma"`
	Psi                 float64   `toml:"psi"`
	Weights             []float64 `toml:"weights"`
	NormalizationFactor float64   `toml:"normalization_factor"`
}

// DefaultParams returns the classroom defaults: four 31x31 kernels with
// diagonal orientations weighted 1.2 and a 1.5x normalization divisor.
func DefaultParams() Params {
	return Params{
		KernelSize:          31,
		Sigma:               5,
		Orientations:        4,
		Lambda:              10,
		Gamma:               0.5,
		Psi:                 0,
		Weights:             []float64{1, 1.2, 1, 1.2},
		NormalizationFactor: 1.5,
	}
}

func (p Params) Validate() error {
	if p.Orientations < 1 {
		return fmt.Errorf("gabor bank: %d orientations: %w", p.Orientations, errs.ErrInvalidParameter)
	}
	if len(p.Weights) != p.Orientations {
		return fmt.Errorf("gabor bank: %d weights for %d orientations: %w",
			len(p.Weights), p.Orientations, errs.ErrInvalidParameter)
	}
	if floats.Sum(p.Weights) == 0 {
		return fmt.Errorf("gabor bank: weights sum to zero: %w", errs.ErrInvalidParameter)
	}
	if !(p.NormalizationFactor > 0) {
		return fmt.Errorf("gabor bank: normalization factor %v: %w", p.NormalizationFactor, errs.ErrInvalidParameter)
	}
	return nil
}

// Bank holds one normalized kernel per orientation.
type Bank struct {
	params    Params
	thetas    []float64
	kernels   []*mat.Dense
	convolver Convolver
}

// NewBank builds and normalizes every kernel up front. A nil convolver
// selects NativeConvolver.
func NewBank(p Params, conv Convolver) (*Bank, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if conv == nil {
		conv = NativeConvolver{}
	}

	b := &Bank{
		params:    p,
		thetas:    Thetas(p.Orientations),
		convolver: conv,
	}
	b.params.Weights = append([]float64(nil), p.Weights...)

	for i, theta := range b.thetas {
		k, err := Kernel(p.KernelSize, p.Sigma, theta, p.Lambda, p.Gamma, p.Psi)
		if err != nil {
			return nil, err
		}
		nk, err := Normalize(k, p.NormalizationFactor)
		if err != nil {
			return nil, fmt.Errorf("orientation %d (theta %.4f): %w", i, theta, err)
		}
		b.kernels = append(b.kernels, nk)
	}
	return b, nil
}

// Params returns a copy of the parameters the bank was built with.
func (b *Bank) Params() Params {
	p := b.params
	p.Weights = append([]float64(nil), b.params.Weights...)
	return p
}

// Thetas returns the kernel orientations in radians, in kernel order.
func (b *Bank) Thetas() []float64 {
	return append([]float64(nil), b.thetas...)
}

// Kernels returns the normalized kernels in orientation order.
func (b *Bank) Kernels() []*mat.Dense {
	out := make([]*mat.Dense, len(b.kernels))
	for i, k := range b.kernels {
		out[i] = mat.DenseCopyOf(k)
	}
	return out
}

// Result is the combined image plus the response of every orientation.
type Result struct {
	Image     *image.Gray
	Responses []*image.Gray
}

// Enhance convolves img with every kernel and combines the responses.
func (b *Bank) Enhance(img *image.Gray) (*Result, error) {
	if err := raster.ValidateGray(img, "gabor enhance"); err != nil {
		return nil, err
	}

	responses := make([]*image.Gray, len(b.kernels))
	for i, k := range b.kernels {
		r, err := b.convolver.Convolve(img, k)
		if err != nil {
			return nil, fmt.Errorf("gabor enhance: orientation %d: %w", i, err)
		}
		responses[i] = r
	}

	combined, err := Combine(responses, b.params.Weights)
	if err != nil {
		return nil, err
	}
	return &Result{Image: combined, Responses: responses}, nil
}

// Combine returns sum(w_i * r_i) / sum(w_i), clipped to [0,255] and truncated.
func Combine(responses []*image.Gray, weights []float64) (*image.Gray, error) {
	if len(responses) == 0 {
		return nil, fmt.Errorf("combine responses: none given: %w", errs.ErrInvalidInput)
	}
	if len(weights) != len(responses) {
		return nil, fmt.Errorf("combine responses: %d weights for %d responses: %w",
			len(weights), len(responses), errs.ErrInvalidParameter)
	}
	total := floats.Sum(weights)
	if total == 0 {
		return nil, fmt.Errorf("combine responses: weights sum to zero: %w", errs.ErrInvalidParameter)
	}

	size := responses[0].Bounds().Size()
	acc := make([]float64, size.X*size.Y)
	for i, r := range responses {
		c := raster.Compact(r)
		if c.Bounds().Size() != size {
			return nil, fmt.Errorf("combine responses: response %d is %v, want %v: %w",
				i, c.Bounds().Size(), size, errs.ErrShapeMismatch)
		}
		w := weights[i]
		for j, v := range c.Pix[:len(acc)] {
			acc[j] += w * float64(v)
		}
	}

	out := image.NewGray(image.Rect(0, 0, size.X, size.Y))
	for j, v := range acc {
		out.Pix[j] = uint8(math.Max(0, math.Min(255, v/total)))
	}
	return out, nil
}
