package threshold

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frequency-filters/internal/errs"
	"frequency-filters/internal/processing/histogram"
)

func TestOtsuBimodalSplitsBetweenClusters(t *testing.T) {
	counts := map[uint8]uint64{}
	for v := 40; v <= 60; v++ {
		counts[uint8(v)] = 50
	}
	for v := 190; v <= 210; v++ {
		counts[uint8(v)] = 70
	}
	h := histogram.FromCounts(counts)

	got, err := Otsu(h.Bins, h.Total, h.Sum)
	require.NoError(t, err)
	assert.Greater(t, got, uint8(60))
	assert.Less(t, got, uint8(190))
}

func TestOtsuIsDeterministic(t *testing.T) {
	h := histogram.FromCounts(map[uint8]uint64{10: 3, 80: 9, 81: 4, 170: 12, 240: 1})

	first, err := Otsu(h.Bins, h.Total, h.Sum)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Otsu(h.Bins, h.Total, h.Sum)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestOtsuTieKeepsFirstMaximum(t *testing.T) {
	h := histogram.FromCounts(map[uint8]uint64{0: 100, 255: 100})

	got, err := Otsu(h.Bins, h.Total, h.Sum)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), got)
}

func TestOtsuUniformImageDefaultsToZero(t *testing.T) {
	h := histogram.FromCounts(map[uint8]uint64{128: 400})

	got, err := Otsu(h.Bins, h.Total, h.Sum)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), got)
}

func TestOtsuRejectsEmptyHistogram(t *testing.T) {
	var bins [histogram.Levels]uint64

	_, err := Otsu(bins, 0, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestBinarize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(img.Pix, []uint8{0, 99, 100, 255})

	got := Binarize(img, 99)
	assert.Equal(t, []uint8{0, 0, 255, 255}, got.Pix)
	assert.Equal(t, []uint8{0, 99, 100, 255}, img.Pix, "input must not be modified")
}

func TestApplySeparatesTwoTones(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		if i%8 < 4 {
			img.Pix[i] = 30
		} else {
			img.Pix[i] = 220
		}
	}

	res, err := Apply(img)
	require.NoError(t, err)
	assert.Equal(t, uint64(64), res.Histogram.Total)
	assert.GreaterOrEqual(t, res.Threshold, uint8(30))
	assert.Less(t, res.Threshold, uint8(220))
	for i, v := range res.Binary.Pix {
		if i%8 < 4 {
			assert.Equal(t, uint8(0), v)
		} else {
			assert.Equal(t, uint8(255), v)
		}
	}
}

func TestApplyRejectsEmptyImage(t *testing.T) {
	_, err := Apply(image.NewGray(image.Rect(0, 0, 0, 0)))
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}
