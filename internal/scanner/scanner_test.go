package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestIsImageFile(t *testing.T) {
	cases := map[string]bool{
		"a.jpg":       true,
		"a.JPEG":      true,
		"dir/b.Png":   true,
		"c.gif":       false,
		"d.jpg.txt":   false,
		"noextension": false,
	}
	for path, want := range cases {
		assert.Equal(t, want, IsImageFile(path), path)
	}
}

func TestSourcesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zeta.PNG", "alpha.jpg", "notes.txt", "mid.jpeg", "alpha_cinza.jpg"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	got, err := Sources(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "alpha.jpg"),
		filepath.Join(dir, "mid.jpeg"),
		filepath.Join(dir, "zeta.PNG"),
	}, got)
}

func TestSourcesMissingDirectory(t *testing.T) {
	got, err := Sources(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGrayIntermediates(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a_cinza.png", "a_binaria.png", "b_cinza.JPG", "c_cinza_fft.png", "d_cinza.txt"} {
		touch(t, filepath.Join(dir, name))
	}

	got, err := GrayIntermediates(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a_cinza.png"),
		filepath.Join(dir, "b_cinza.JPG"),
	}, got)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "foto", BaseName("/in/foto.jpg", ""))
	assert.Equal(t, "foto", BaseName("/out/foto_cinza.png", GraySuffix))
	assert.Equal(t, "foto_cinza", BaseName("/out/foto_cinza.png", ""))
	assert.Equal(t, "foto_cinza_x", BaseName("foto_cinza_x.png", GraySuffix))

	assert.Equal(t, "foto_cinza.jpg", GrayName("foto", ".jpg"))
	assert.Equal(t, "foto_binaria.jpg", BinaryName("foto", ".jpg"))
	assert.Equal(t, "foto_rgb_passa_baixa.png", FrequencyName("foto", "rgb", KindLowPass, "png"))
	assert.Equal(t, "foto_cinza_passa_alta.png", FrequencyName("foto", "cinza", KindHighPass, ".png"))
	assert.Equal(t, "foto_fft.png", EnhanceName("foto", KindFFT))
	assert.Equal(t, "foto_gabor.png", EnhanceName("foto", KindGabor))
	assert.Equal(t, "foto_rgb_mask_low.png", EntryName("foto", "rgb", "mask_low"))
}
