package histogram

import (
	"image"

	"frequency-filters/internal/raster"
)

// Levels is the number of intensity levels in an 8-bit image.
const Levels = 256

// Histogram counts pixels per intensity level of one grayscale image.
// Total is the pixel count and Sum the total intensity; both are carried
// alongside the bins so threshold selection never recomputes them.
type Histogram struct {
	Bins  [Levels]uint64
	Total uint64
	Sum   uint64
}

// FromGray builds the histogram of img in a single pass over its pixels.
func FromGray(img *image.Gray) Histogram {
	var h Histogram
	g := raster.Compact(img)
	n := g.Bounds().Dx() * g.Bounds().Dy()

	for _, v := range g.Pix[:n] {
		h.Bins[v]++
	}

	h.Total = uint64(n)
	for level, count := range h.Bins {
		h.Sum += uint64(level) * count
	}

	return h
}

// FromCounts builds a histogram from explicit per-level counts.
func FromCounts(counts map[uint8]uint64) Histogram {
	var h Histogram
	for level, count := range counts {
		h.Bins[level] = count
		h.Total += count
		h.Sum += uint64(level) * count
	}
	return h
}

// Mean returns the mean intensity, or 0 for an empty histogram.
func (h Histogram) Mean() float64 {
	if h.Total == 0 {
		return 0
	}
	return float64(h.Sum) / float64(h.Total)
}
