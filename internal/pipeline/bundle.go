// Package pipeline sequences the filters over one image and bundles every
// intermediate array for the saving and plotting collaborators.
//
// Every entry point is a pure function of its arguments.
package pipeline

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"frequency-filters/internal/errs"
	"frequency-filters/internal/processing/mask"
	"frequency-filters/internal/processing/spectral"
	"frequency-filters/internal/raster"
)

// Domains of a frequency run, used in output names.
const (
	DomainRGB  = "rgb"
	DomainGray = "cinza"
)

// Entry names, in Bundle.Entries order.
const (
	EntryOriginalRGB          = "original_rgb"
	EntryOriginalGray         = "original_gray"
	EntryLowPass              = "low_pass"
	EntryHighPass             = "high_pass"
	EntrySpectrumOriginalLow  = "spectrum_original_low"
	EntrySpectrumFilteredLow  = "spectrum_filtered_low"
	EntrySpectrumOriginalHigh = "spectrum_original_high"
	EntrySpectrumFilteredHigh = "spectrum_filtered_high"
	EntryMaskLow              = "mask_low"
	EntryMaskHigh             = "mask_high"
)

// EntryKind tells a renderer how to turn an entry into pixels.
type EntryKind int

const (
	KindImage EntryKind = iota
	KindSpectrum
	KindMask
)

func (k EntryKind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindSpectrum:
		return "spectrum"
	case KindMask:
		return "mask"
	}
	return fmt.Sprintf("EntryKind(%d)", int(k))
}

// Entry is one named array of a Bundle. Image is set for KindImage,
// Field for the other kinds.
type Entry struct {
	Name  string
	Kind  EntryKind
	Image image.Image
	Field *mat.Dense
}

// Render returns the entry as an 8-bit image. Spectra are min/max
// normalized; masks map [0,1] to [0,255].
func (e Entry) Render() image.Image {
	switch e.Kind {
	case KindSpectrum:
		return spectral.Normalize(e.Field)
	case KindMask:
		rows, cols := e.Field.Dims()
		out := image.NewGray(image.Rect(0, 0, cols, rows))
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				v := math.Max(0, math.Min(1, e.Field.At(r, c)))
				out.Pix[r*cols+c] = uint8(math.Round(255 * v))
			}
		}
		return out
	}
	return e.Image
}

// Bundle holds the results of filtering one image with an ideal low-pass and
// an ideal high-pass mask.
type Bundle struct {
	Domain string

	// Original is the decoded source. It is nil for grayscale inputs.
	Original image.Image
	Gray     *image.Gray

	CutoffLow  float64
	CutoffHigh float64

	LowPass  *spectral.Result
	HighPass *spectral.Result

	MaskLow  *mat.Dense
	MaskHigh *mat.Dense
}

// Entries lists the bundle's arrays by name. original_rgb is omitted when
// the bundle was built from a grayscale image.
func (b *Bundle) Entries() []Entry {
	entries := make([]Entry, 0, 10)
	if b.Original != nil {
		entries = append(entries, Entry{Name: EntryOriginalRGB, Kind: KindImage, Image: b.Original})
	}
	return append(entries,
		Entry{Name: EntryOriginalGray, Kind: KindImage, Image: b.Gray},
		Entry{Name: EntryLowPass, Kind: KindImage, Image: b.LowPass.Image},
		Entry{Name: EntryHighPass, Kind: KindImage, Image: b.HighPass.Image},
		Entry{Name: EntrySpectrumOriginalLow, Kind: KindSpectrum, Field: b.LowPass.OriginalSpectrum},
		Entry{Name: EntrySpectrumFilteredLow, Kind: KindSpectrum, Field: b.LowPass.FilteredSpectrum},
		Entry{Name: EntrySpectrumOriginalHigh, Kind: KindSpectrum, Field: b.HighPass.OriginalSpectrum},
		Entry{Name: EntrySpectrumFilteredHigh, Kind: KindSpectrum, Field: b.HighPass.FilteredSpectrum},
		Entry{Name: EntryMaskLow, Kind: KindMask, Field: b.MaskLow},
		Entry{Name: EntryMaskHigh, Kind: KindMask, Field: b.MaskHigh},
	)
}

// Lookup returns the entry called name.
func (b *Bundle) Lookup(name string) (Entry, bool) {
	for _, e := range b.Entries() {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// FrequencyRGB converts img to grayscale and filters it. The bundle keeps
// both the source and the grayscale image.
func FrequencyRGB(img image.Image, cutoffLow, cutoffHigh float64) (*Bundle, error) {
	if img == nil {
		return nil, fmt.Errorf("frequency rgb: nil image: %w", errs.ErrInvalidInput)
	}
	b, err := filterGray(raster.Grayscale(img), cutoffLow, cutoffHigh)
	if err != nil {
		return nil, fmt.Errorf("frequency rgb: %w", err)
	}
	b.Domain = DomainRGB
	b.Original = img
	return b, nil
}

// FrequencyGray filters a grayscale image directly.
func FrequencyGray(img *image.Gray, cutoffLow, cutoffHigh float64) (*Bundle, error) {
	b, err := filterGray(img, cutoffLow, cutoffHigh)
	if err != nil {
		return nil, fmt.Errorf("frequency gray: %w", err)
	}
	b.Domain = DomainGray
	return b, nil
}

func filterGray(gray *image.Gray, cutoffLow, cutoffHigh float64) (*Bundle, error) {
	if err := raster.ValidateGray(gray, "frequency filter"); err != nil {
		return nil, err
	}
	rows, cols := gray.Bounds().Dy(), gray.Bounds().Dx()

	low, err := mask.LowPass(rows, cols, cutoffLow)
	if err != nil {
		return nil, err
	}
	high, err := mask.HighPass(rows, cols, cutoffHigh)
	if err != nil {
		return nil, err
	}

	lowRes, err := spectral.Apply(gray, low)
	if err != nil {
		return nil, fmt.Errorf("low-pass: %w", err)
	}
	highRes, err := spectral.Apply(gray, high)
	if err != nil {
		return nil, fmt.Errorf("high-pass: %w", err)
	}

	return &Bundle{
		Gray:       raster.Grayscale(gray),
		CutoffLow:  cutoffLow,
		CutoffHigh: cutoffHigh,
		LowPass:    lowRes,
		HighPass:   highRes,
		MaskLow:    low,
		MaskHigh:   high,
	}, nil
}
