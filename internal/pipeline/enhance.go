package pipeline

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"frequency-filters/internal/errs"
	"frequency-filters/internal/processing/gabor"
	"frequency-filters/internal/processing/mask"
	"frequency-filters/internal/processing/spectral"
	"frequency-filters/internal/raster"
)

// EnhanceOptions configures the FFT and Gabor enhancement of one image.
type EnhanceOptions struct {
	Cutoff float64
	Order  int
	Gabor  gabor.Params
	// Convolver defaults to gabor.NativeConvolver.
	Convolver gabor.Convolver
}

func DefaultEnhanceOptions() EnhanceOptions {
	return EnhanceOptions{
		Cutoff: 30,
		Order:  2,
		Gabor:  gabor.DefaultParams(),
	}
}

// EnhanceResult holds both enhancements and their absolute difference.
type EnhanceResult struct {
	Gray       *image.Gray
	Mask       *mat.Dense
	FFT        *spectral.Result
	Gabor      *gabor.Result
	Difference *image.Gray
	PSNRFFT    float64 // FFT result against Gray
	PSNRGabor  float64 // Gabor result against Gray
}

// Fields returns the finite quality figures for logging and the catalog.
func (r *EnhanceResult) Fields() map[string]float64 {
	out := make(map[string]float64, 3)
	if !math.IsInf(r.PSNRFFT, 0) {
		out["psnr_fft"] = r.PSNRFFT
	}
	if !math.IsInf(r.PSNRGabor, 0) {
		out["psnr_gabor"] = r.PSNRGabor
	}
	mean, _ := raster.Stats(r.Difference)
	out["difference_mean"] = mean
	return out
}

// Enhancer reuses one Gabor bank across images.
type Enhancer struct {
	cutoff float64
	order  int
	bank   *gabor.Bank
}

func NewEnhancer(opts EnhanceOptions) (*Enhancer, error) {
	if opts.Cutoff < 0 || math.IsNaN(opts.Cutoff) || opts.Order < 1 {
		return nil, fmt.Errorf("enhance: cutoff %v, order %d: %w", opts.Cutoff, opts.Order, errs.ErrInvalidParameter)
	}
	bank, err := gabor.NewBank(opts.Gabor, opts.Convolver)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	return &Enhancer{cutoff: opts.Cutoff, order: opts.Order, bank: bank}, nil
}

// Enhance sharpens gray with a smooth high-pass in the frequency domain and,
// separately, with the Gabor bank.
func (e *Enhancer) Enhance(gray *image.Gray) (*EnhanceResult, error) {
	if err := raster.ValidateGray(gray, "enhance"); err != nil {
		return nil, err
	}
	rows, cols := gray.Bounds().Dy(), gray.Bounds().Dx()

	m, err := mask.SmoothHighPass(rows, cols, e.cutoff, e.order)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	fft, err := spectral.Apply(gray, m)
	if err != nil {
		return nil, fmt.Errorf("enhance: fft: %w", err)
	}
	gab, err := e.bank.Enhance(gray)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	diff, err := raster.AbsDiff(fft.Image, gab.Image)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}

	g := raster.Grayscale(gray)
	psnrFFT, err := PSNR(g, fft.Image)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}
	psnrGabor, err := PSNR(g, gab.Image)
	if err != nil {
		return nil, fmt.Errorf("enhance: %w", err)
	}

	return &EnhanceResult{
		Gray:       g,
		Mask:       m,
		FFT:        fft,
		Gabor:      gab,
		Difference: diff,
		PSNRFFT:    psnrFFT,
		PSNRGabor:  psnrGabor,
	}, nil
}

// Enhance builds an Enhancer for opts and runs it once.
func Enhance(gray *image.Gray, opts EnhanceOptions) (*EnhanceResult, error) {
	e, err := NewEnhancer(opts)
	if err != nil {
		return nil, err
	}
	return e.Enhance(gray)
}
