package threshold

import (
	"fmt"
	"image"

	"frequency-filters/internal/errs"
	"frequency-filters/internal/processing/histogram"
	"frequency-filters/internal/raster"
)

// Otsu returns the threshold t in [0,255] that maximizes the between-class
// variance when pixels are split into intensities <= t and > t.
//
// totalSum is the sum of level*count over all bins. Levels where either class
// is empty are skipped; the first level reaching the maximum wins, so a
// uniform image yields 0.
func Otsu(bins [histogram.Levels]uint64, total, totalSum uint64) (uint8, error) {
	if total == 0 {
		return 0, fmt.Errorf("otsu threshold: zero pixel count: %w", errs.ErrInvalidInput)
	}

	var (
		w1, s1    uint64
		best      float64
		threshold uint8
	)

	for i := 0; i < histogram.Levels; i++ {
		w1 += bins[i]
		s1 += uint64(i) * bins[i]

		if w1 == 0 || w1 >= total {
			continue
		}
		w2 := total - w1
		s2 := totalSum - s1

		mean1 := float64(s1) / float64(w1)
		mean2 := float64(s2) / float64(w2)
		diff := mean1 - mean2
		variance := float64(w1) * float64(w2) * diff * diff

		if variance > best {
			best = variance
			threshold = uint8(i)
		}
	}

	return threshold, nil
}

// Binarize maps intensities above t to 255 and the rest to 0.
func Binarize(img *image.Gray, t uint8) *image.Gray {
	var lut [histogram.Levels]uint8
	for v := int(t) + 1; v < histogram.Levels; v++ {
		lut[v] = 255
	}

	src := raster.Compact(img)
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		dst.Pix[i] = lut[v]
	}
	return dst
}

// Result bundles the outcome of thresholding one image.
type Result struct {
	Histogram histogram.Histogram
	Threshold uint8
	Binary    *image.Gray
}

// Apply computes the Otsu threshold of img and binarizes it.
func Apply(img *image.Gray) (*Result, error) {
	if err := raster.ValidateGray(img, "otsu binarization"); err != nil {
		return nil, err
	}

	hist := histogram.FromGray(img)
	t, err := Otsu(hist.Bins, hist.Total, hist.Sum)
	if err != nil {
		return nil, err
	}

	return &Result{
		Histogram: hist,
		Threshold: t,
		Binary:    Binarize(img, t),
	}, nil
}
