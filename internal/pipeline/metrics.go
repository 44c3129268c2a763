package pipeline

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"frequency-filters/internal/errs"
	"frequency-filters/internal/raster"
)

// SegmentationMetrics describes how well a binarization separates the
// grayscale intensities it was computed from.
type SegmentationMetrics struct {
	ForegroundRatio  float64 // share of pixels mapped to 255
	ForegroundMean   float64
	BackgroundMean   float64
	RegionUniformity float64 // 1 / (1 + weighted intra-class variance / 255)
}

// CalculateSegmentationMetrics splits gray by the foreground of binary and
// measures each class.
func CalculateSegmentationMetrics(gray, binary *image.Gray) (*SegmentationMetrics, error) {
	g, b := raster.Compact(gray), raster.Compact(binary)
	if g.Bounds().Size() != b.Bounds().Size() {
		return nil, fmt.Errorf("segmentation metrics: gray %v, binary %v: %w",
			g.Bounds().Size(), b.Bounds().Size(), errs.ErrShapeMismatch)
	}

	n := g.Bounds().Dx() * g.Bounds().Dy()
	if n == 0 {
		return nil, fmt.Errorf("segmentation metrics: empty image: %w", errs.ErrInvalidInput)
	}

	var foreground, background []float64
	for i, v := range g.Pix[:n] {
		if b.Pix[i] > 127 {
			foreground = append(foreground, float64(v))
		} else {
			background = append(background, float64(v))
		}
	}

	fgMean, fgVar := classStats(foreground)
	bgMean, bgVar := classStats(background)
	weighted := (float64(len(foreground))*fgVar + float64(len(background))*bgVar) / float64(n)

	return &SegmentationMetrics{
		ForegroundRatio:  float64(len(foreground)) / float64(n),
		ForegroundMean:   fgMean,
		BackgroundMean:   bgMean,
		RegionUniformity: 1 / (1 + weighted/255),
	}, nil
}

func classStats(values []float64) (mean, variance float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanVariance(values, nil)
}

// Fields flattens the metrics for logging and the results catalog.
func (m SegmentationMetrics) Fields() map[string]float64 {
	return map[string]float64{
		"foreground_ratio":  m.ForegroundRatio,
		"foreground_mean":   m.ForegroundMean,
		"background_mean":   m.BackgroundMean,
		"region_uniformity": m.RegionUniformity,
	}
}

// PSNR returns the peak signal-to-noise ratio of b against a in decibels.
// Identical images yield +Inf.
func PSNR(a, b *image.Gray) (float64, error) {
	ca, cb := raster.Compact(a), raster.Compact(b)
	if ca.Bounds().Size() != cb.Bounds().Size() {
		return 0, fmt.Errorf("psnr: %v vs %v: %w", ca.Bounds().Size(), cb.Bounds().Size(), errs.ErrShapeMismatch)
	}
	n := ca.Bounds().Dx() * ca.Bounds().Dy()
	if n == 0 {
		return 0, fmt.Errorf("psnr: empty image: %w", errs.ErrInvalidInput)
	}

	var sse float64
	for i := 0; i < n; i++ {
		d := float64(ca.Pix[i]) - float64(cb.Pix[i])
		sse += d * d
	}
	if sse == 0 {
		return math.Inf(1), nil
	}
	mse := sse / float64(n)
	return 10 * math.Log10(255*255/mse), nil
}
