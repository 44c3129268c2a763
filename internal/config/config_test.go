package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ff.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, rest, err := Load("ff", nil, env(nil), io.Discard)
	require.NoError(t, err)
	assert.Empty(t, rest)

	assert.Equal(t, "./entrada/", cfg.InputDir)
	assert.Equal(t, "./saida/", cfg.OutputDir)
	assert.Equal(t, "./saida/", cfg.GrayDir)
	assert.Equal(t, 30.0, cfg.CutoffLow)
	assert.Equal(t, 20.0, cfg.CutoffHigh)
	assert.Equal(t, 30.0, cfg.EnhanceCutoff)
	assert.Equal(t, 2, cfg.EnhanceOrder)
	assert.Equal(t, 31, cfg.Gabor.KernelSize)
	assert.Equal(t, []float64{1, 1.2, 1, 1.2}, cfg.Gabor.Weights)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, BackendNative, cfg.Backend)
	assert.Empty(t, cfg.CatalogPath)
}

func TestPrecedence(t *testing.T) {
	path := writeFile(t, `
input_dir = "from-file"
cutoff_low = 12
cutoff_high = 8
workers = 3

[gabor]
orientations = 2
weights = [1.0, 2.0]
`)

	cfg, rest, err := Load("ff",
		[]string{"-config", path, "-cutoff-high", "5", "frequency"},
		env(map[string]string{"FF_CUTOFF_LOW": "15", "FF_WORKERS": "4", "FF_INPUT_DIR": "from-env"}),
		io.Discard)
	require.NoError(t, err)

	assert.Equal(t, []string{"frequency"}, rest)
	assert.Equal(t, "from-env", cfg.InputDir, "env beats file")
	assert.Equal(t, 15.0, cfg.CutoffLow, "env beats file")
	assert.Equal(t, 5.0, cfg.CutoffHigh, "flag beats file")
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 2, cfg.Gabor.Orientations)
	assert.Equal(t, []float64{1, 2}, cfg.Gabor.Weights)
	assert.Equal(t, 31, cfg.Gabor.KernelSize, "untouched keys keep defaults")
}

func TestFlagsBeatEnv(t *testing.T) {
	cfg, _, err := Load("ff",
		[]string{"-workers", "2", "-gabor-orientations", "3", "-gabor-weights", "1, 1,0.5"},
		env(map[string]string{"FF_WORKERS": "8"}),
		io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []float64{1, 1, 0.5}, cfg.Gabor.Weights)
}

func TestLogLevelFromEnvironment(t *testing.T) {
	cfg, _, err := Load("ff", nil, env(map[string]string{"DEBUG": "1"}), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	cfg, _, err = Load("ff", nil, env(map[string]string{"DEBUG": "1", "LOG_LEVEL": "warn"}), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidation(t *testing.T) {
	cases := map[string][]string{
		"negative cutoff":  {"-cutoff-low", "-1"},
		"no workers":       {"-workers", "0"},
		"unknown backend":  {"-backend", "cuda"},
		"unknown format":   {"-log-format", "xml"},
		"bad level":        {"-log-level", "loud"},
		"weight count":     {"-gabor-weights", "1,1"},
		"enhance order":    {"-enhance-order", "0"},
		"negative maxsize": {"-max-size", "-5"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := Load("ff", args, env(nil), io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestBadEnvironmentValue(t *testing.T) {
	_, _, err := Load("ff", nil, env(map[string]string{"FF_CUTOFF_LOW": "wide"}), io.Discard)
	assert.ErrorContains(t, err, "FF_CUTOFF_LOW")
}

func TestUnknownFileKey(t *testing.T) {
	path := writeFile(t, `cutof_low = 3`)
	_, _, err := Load("ff", []string{"-config", path}, env(nil), io.Discard)
	assert.ErrorContains(t, err, "cutof_low")
}
