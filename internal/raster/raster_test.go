package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frequency-filters/internal/errs"
)

func TestGrayscaleLuma(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	src.SetNRGBA(2, 0, color.NRGBA{B: 255, A: 255})
	src.SetNRGBA(3, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	assert.Equal(t, []uint8{76, 150, 29, 255}, Grayscale(src).Pix)
}

func TestGrayscaleCopiesAndRebases(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	sub := img.SubImage(image.Rect(2, 1, 4, 3)).(*image.Gray)

	g := Grayscale(sub)
	assert.Equal(t, image.Rect(0, 0, 2, 2), g.Bounds())
	assert.Equal(t, []uint8{6, 7, 10, 11}, g.Pix)

	g.Pix[0] = 99
	assert.Equal(t, uint8(6), img.Pix[6])
	assert.Same(t, img, Compact(img))
}

func TestToDenseAndStats(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	copy(img.Pix, []uint8{0, 10, 20, 30})

	d := ToDense(img)
	r, c := d.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 20.0, d.At(1, 0))

	mean, std := Stats(img)
	assert.Equal(t, 15.0, mean)
	assert.InDelta(t, 12.909944, std, 1e-6)
}

func TestAbsDiff(t *testing.T) {
	a := image.NewGray(image.Rect(0, 0, 3, 1))
	b := image.NewGray(image.Rect(0, 0, 3, 1))
	copy(a.Pix, []uint8{10, 200, 5})
	copy(b.Pix, []uint8{30, 100, 5})

	d, err := AbsDiff(a, b)
	require.NoError(t, err)
	assert.Equal(t, []uint8{20, 100, 0}, d.Pix)

	_, err = AbsDiff(a, image.NewGray(image.Rect(0, 0, 1, 3)))
	assert.ErrorIs(t, err, errs.ErrShapeMismatch)
}

func TestValidateGray(t *testing.T) {
	assert.NoError(t, ValidateGray(image.NewGray(image.Rect(0, 0, 1, 1)), "op"))
	assert.ErrorIs(t, ValidateGray(nil, "op"), errs.ErrInvalidInput)
	assert.ErrorIs(t, ValidateGray(image.NewGray(image.Rect(0, 0, 0, 5)), "op"), errs.ErrInvalidInput)
}
