package main

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frequency-filters/internal/imageio"
)

func noEnv(string) string { return "" }

func writeScene(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 12, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 12; x++ {
			v := uint8(25)
			if x >= 6 {
				v = 225
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	require.NoError(t, imageio.ImagingCodec{}.Save(path, img))
}

func withCorruptSource(t *testing.T, input string) {
	require.NoError(t, os.WriteFile(filepath.Join(input, "broken.png"), []byte("not a png"), 0o644))
}

func withScene(t *testing.T, input string) {
	writeScene(t, filepath.Join(input, "foto.png"))
}

func TestRunExitStatus(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		setup  func(t *testing.T, input string)
		want   int
		stdout string
		stderr string
	}{
		{
			name:   "help",
			args:   []string{"-h"},
			want:   0,
			stderr: "usage:",
		},
		{
			name: "unknown flag",
			args: []string{"-bogus"},
			want: 2,
		},
		{
			name:   "two stages",
			args:   []string{"binarize", "enhance"},
			want:   2,
			stderr: "expected at most one stage",
		},
		{
			name: "unknown stage",
			args: []string{"sharpen"},
			want: 1,
		},
		{
			name:   "corrupt source",
			args:   []string{"binarize"},
			setup:  withCorruptSource,
			want:   1,
			stdout: "binarize   processed 0, failed 1",
		},
		{
			name:   "clean run",
			setup:  withScene,
			want:   0,
			stdout: "frequency  processed 2, failed 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			input := filepath.Join(root, "entrada")
			output := filepath.Join(root, "saida")
			require.NoError(t, os.MkdirAll(input, 0o755))
			if tt.setup != nil {
				tt.setup(t, input)
			}
			dirs := []string{"-input", input, "-output", output, "-gray", output, "-log-format", "json"}

			var stdout, stderr bytes.Buffer
			got := run(append(dirs, tt.args...), noEnv, &stdout, &stderr)

			assert.Equal(t, tt.want, got, "stdout: %s\nstderr: %s", stdout.String(), stderr.String())
			if tt.stdout != "" {
				assert.Contains(t, stdout.String(), tt.stdout)
			}
			if tt.stderr != "" {
				assert.Contains(t, stderr.String(), tt.stderr)
			}
		})
	}
}

func TestRunRecordsCatalog(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "entrada")
	output := filepath.Join(root, "saida")
	require.NoError(t, os.MkdirAll(input, 0o755))
	writeScene(t, filepath.Join(input, "foto.png"))
	catalogPath := filepath.Join(root, "runs.db")

	var stdout, stderr bytes.Buffer
	got := run([]string{"-input", input, "-output", output, "-gray", output, "-catalog", catalogPath, "binarize"},
		noEnv, &stdout, &stderr)

	require.Equal(t, 0, got, stderr.String())
	assert.FileExists(t, catalogPath)
	assert.FileExists(t, filepath.Join(output, "foto_binaria.png"))
	assert.Contains(t, stdout.String(), "binarize   processed 1, failed 0, skipped 0")
}
