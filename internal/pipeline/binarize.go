package pipeline

import (
	"fmt"
	"image"

	"frequency-filters/internal/errs"
	"frequency-filters/internal/processing/threshold"
	"frequency-filters/internal/raster"
)

// BinarizeResult is the grayscale version of a source image and its Otsu
// binarization.
type BinarizeResult struct {
	Gray      *image.Gray
	Threshold uint8
	Binary    *image.Gray
	Metrics   SegmentationMetrics
}

// Binarize converts img to grayscale and thresholds it with Otsu's method.
func Binarize(img image.Image) (*BinarizeResult, error) {
	if img == nil {
		return nil, fmt.Errorf("binarize: nil image: %w", errs.ErrInvalidInput)
	}

	gray := raster.Grayscale(img)
	res, err := threshold.Apply(gray)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}

	metrics, err := CalculateSegmentationMetrics(gray, res.Binary)
	if err != nil {
		return nil, fmt.Errorf("binarize: %w", err)
	}

	return &BinarizeResult{
		Gray:      gray,
		Threshold: res.Threshold,
		Binary:    res.Binary,
		Metrics:   *metrics,
	}, nil
}
