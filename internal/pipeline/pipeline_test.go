package pipeline

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frequency-filters/internal/errs"
	"frequency-filters/internal/processing/gabor"
)

func rgbScene(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: uint8(x * 255 / (w - 1)), G: uint8(y * 255 / (h - 1)), B: 40, A: 255}
			if (x/4+y/4)%2 == 0 {
				c.B = 220
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func entryNames(b *Bundle) []string {
	var names []string
	for _, e := range b.Entries() {
		names = append(names, e.Name)
	}
	return names
}

func TestFrequencyRGBBundle(t *testing.T) {
	src := rgbScene(24, 16)

	b, err := FrequencyRGB(src, 6, 3)
	require.NoError(t, err)

	assert.Equal(t, DomainRGB, b.Domain)
	assert.Equal(t, []string{
		EntryOriginalRGB, EntryOriginalGray, EntryLowPass, EntryHighPass,
		EntrySpectrumOriginalLow, EntrySpectrumFilteredLow,
		EntrySpectrumOriginalHigh, EntrySpectrumFilteredHigh,
		EntryMaskLow, EntryMaskHigh,
	}, entryNames(b))

	assert.Same(t, image.Image(src), b.Original)
	for _, e := range b.Entries() {
		assert.Equal(t, image.Pt(24, 16), e.Render().Bounds().Size(), e.Name)
	}

	// Independent cutoffs: the masks are not complements of each other.
	assert.Equal(t, 1.0, b.MaskLow.At(8, 12+5))
	assert.Equal(t, 1.0, b.MaskHigh.At(8, 12+5))
}

func TestFrequencyGrayBundleOmitsRGB(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i * 2)
	}

	b, err := FrequencyGray(gray, 3, 3)
	require.NoError(t, err)

	assert.Equal(t, DomainGray, b.Domain)
	assert.Nil(t, b.Original)
	names := entryNames(b)
	assert.Len(t, names, 9)
	assert.NotContains(t, names, EntryOriginalRGB)

	_, ok := b.Lookup(EntryOriginalRGB)
	assert.False(t, ok)
	e, ok := b.Lookup(EntryMaskHigh)
	require.True(t, ok)
	assert.Equal(t, KindMask, e.Kind)
}

func TestFrequencyIsPure(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 12, 8))
	for i := range gray.Pix {
		gray.Pix[i] = uint8((i * 37) % 256)
	}
	before := append([]uint8(nil), gray.Pix...)

	first, err := FrequencyGray(gray, 4, 2)
	require.NoError(t, err)
	second, err := FrequencyGray(gray, 4, 2)
	require.NoError(t, err)

	assert.Equal(t, before, gray.Pix)
	assert.Equal(t, first.LowPass.Image.Pix, second.LowPass.Image.Pix)
	assert.Equal(t, first.HighPass.Image.Pix, second.HighPass.Image.Pix)
	assert.NotSame(t, gray, first.Gray)
}

func TestFrequencyRejectsBadInput(t *testing.T) {
	_, err := FrequencyRGB(rgbScene(8, 8), -1, 3)
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)

	_, err = FrequencyGray(image.NewGray(image.Rectangle{}), 1, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = FrequencyRGB(nil, 1, 1)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestMaskRender(t *testing.T) {
	b, err := FrequencyGray(image.NewGray(image.Rect(0, 0, 6, 6)), 0, 0)
	require.NoError(t, err)

	low, ok := b.Lookup(EntryMaskLow)
	require.True(t, ok)
	img := low.Render().(*image.Gray)
	assert.Equal(t, uint8(255), img.GrayAt(3, 3).Y)
	assert.Equal(t, uint8(0), img.GrayAt(0, 0).Y)
}

func TestBinarize(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			if x < 3 {
				src.SetNRGBA(x, y, color.NRGBA{R: 20, G: 30, B: 25, A: 255})
			} else {
				src.SetNRGBA(x, y, color.NRGBA{R: 230, G: 210, B: 220, A: 255})
			}
		}
	}

	res, err := Binarize(src)
	require.NoError(t, err)

	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			want := uint8(255)
			if x < 3 {
				want = 0
			}
			assert.Equal(t, want, res.Binary.GrayAt(x, y).Y, "(%d,%d)", x, y)
		}
	}
	assert.InDelta(t, 5.0/8, res.Metrics.ForegroundRatio, 1e-12)
	assert.InDelta(t, 1.0, res.Metrics.RegionUniformity, 1e-12)
	assert.Less(t, res.Metrics.BackgroundMean, res.Metrics.ForegroundMean)
}

func TestEnhance(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			gray.Pix[y*32+x] = uint8(128 + 100*math.Sin(float64(x)/2)*math.Cos(float64(y)/3))
		}
	}
	opts := DefaultEnhanceOptions()
	opts.Gabor = gabor.Params{
		KernelSize:          9,
		Sigma:               2,
		Orientations:        2,
		Lambda:              8,
		Gamma:               0.5,
		Weights:             []float64{1, 1},
		NormalizationFactor: 1.5,
	}

	res, err := Enhance(gray, opts)
	require.NoError(t, err)

	size := gray.Bounds().Size()
	assert.Equal(t, size, res.FFT.Image.Bounds().Size())
	assert.Equal(t, size, res.Gabor.Image.Bounds().Size())
	assert.Equal(t, size, res.Difference.Bounds().Size())
	assert.Len(t, res.Gabor.Responses, 2)

	for i, d := range res.Difference.Pix {
		a, b := int(res.FFT.Image.Pix[i]), int(res.Gabor.Image.Pix[i])
		want := a - b
		if want < 0 {
			want = -want
		}
		assert.Equal(t, uint8(want), d)
	}

	assert.Contains(t, res.Fields(), "difference_mean")
}

func TestEnhanceRejectsBadOptions(t *testing.T) {
	opts := DefaultEnhanceOptions()
	opts.Order = 0
	_, err := NewEnhancer(opts)
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)

	opts = DefaultEnhanceOptions()
	opts.Gabor.Weights = []float64{1}
	_, err = NewEnhancer(opts)
	assert.ErrorIs(t, err, errs.ErrInvalidParameter)
}

func TestPSNR(t *testing.T) {
	a := image.NewGray(image.Rect(0, 0, 2, 2))
	b := image.NewGray(image.Rect(0, 0, 2, 2))
	copy(a.Pix, []uint8{10, 20, 30, 40})
	copy(b.Pix, []uint8{10, 20, 30, 40})

	v, err := PSNR(a, b)
	require.NoError(t, err)
	assert.True(t, math.IsInf(v, 1))

	b.Pix[0] = 0 // one error of 10 over four pixels: mse 25
	v, err = PSNR(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 10*math.Log10(255*255/25.0), v, 1e-9)

	_, err = PSNR(a, image.NewGray(image.Rect(0, 0, 3, 2)))
	assert.ErrorIs(t, err, errs.ErrShapeMismatch)
}
