// Package config resolves run settings from defaults, an optional TOML file,
// the environment and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"frequency-filters/internal/logger"
	"frequency-filters/internal/processing/gabor"
)

// Convolution backends.
const (
	BackendNative = "native"
	BackendOpenCV = "opencv"
)

type Config struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
	GrayDir   string `toml:"gray_dir"`

	CutoffLow  float64 `toml:"cutoff_low"`
	CutoffHigh float64 `toml:"cutoff_high"`

	EnhanceCutoff float64      `toml:"enhance_cutoff"`
	EnhanceOrder  int          `toml:"enhance_order"`
	Gabor         gabor.Params `toml:"gabor"`

	Workers     int    `toml:"workers"`
	Backend     string `toml:"backend"`
	MaxSize     int    `toml:"max_size"`
	SaveEntries bool   `toml:"save_entries"`

	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
	CatalogPath string `toml:"catalog_path"`
}

func Default() Config {
	return Config{
		InputDir:      "./entrada/",
		OutputDir:     "./saida/",
		GrayDir:       "./saida/",
		CutoffLow:     30,
		CutoffHigh:    20,
		EnhanceCutoff: 30,
		EnhanceOrder:  2,
		Gabor:         gabor.DefaultParams(),
		Workers:       1,
		Backend:       BackendNative,
		LogLevel:      "info",
		LogFormat:     string(logger.FormatConsole),
	}
}

// LoadFile overlays the settings present in a TOML file onto c. Unknown keys
// are rejected.
func (c *Config) LoadFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ApplyEnv overlays FF_* variables, LOG_LEVEL and DEBUG=1 onto c.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var errs []error
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		if v := getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("FF_INPUT_DIR", &c.InputDir)
	str("FF_OUTPUT_DIR", &c.OutputDir)
	str("FF_GRAY_DIR", &c.GrayDir)
	num("FF_CUTOFF_LOW", &c.CutoffLow)
	num("FF_CUTOFF_HIGH", &c.CutoffHigh)
	num("FF_ENHANCE_CUTOFF", &c.EnhanceCutoff)
	integer("FF_ENHANCE_ORDER", &c.EnhanceOrder)
	integer("FF_WORKERS", &c.Workers)
	str("FF_BACKEND", &c.Backend)
	integer("FF_MAX_SIZE", &c.MaxSize)
	str("FF_LOG_FORMAT", &c.LogFormat)
	str("FF_CATALOG", &c.CatalogPath)

	if v := getenv("FF_SAVE_ENTRIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FF_SAVE_ENTRIES: %w", err))
		} else {
			c.SaveEntries = b
		}
	}

	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	} else if getenv("DEBUG") == "1" {
		c.LogLevel = "debug"
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	return nil
}

// RegisterFlags binds every setting to a flag of fs.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.InputDir, "input", c.InputDir, "directory with source images")
	fs.StringVar(&c.OutputDir, "output", c.OutputDir, "directory for results")
	fs.StringVar(&c.GrayDir, "gray", c.GrayDir, "directory for grayscale intermediates")
	fs.Float64Var(&c.CutoffLow, "cutoff-low", c.CutoffLow, "low-pass radius in pixels")
	fs.Float64Var(&c.CutoffHigh, "cutoff-high", c.CutoffHigh, "high-pass radius in pixels")
	fs.Float64Var(&c.EnhanceCutoff, "enhance-cutoff", c.EnhanceCutoff, "smooth high-pass cutoff for enhancement")
	fs.IntVar(&c.EnhanceOrder, "enhance-order", c.EnhanceOrder, "smooth high-pass order")
	fs.IntVar(&c.Gabor.KernelSize, "gabor-size", c.Gabor.KernelSize, "gabor kernel size")
	fs.Float64Var(&c.Gabor.Sigma, "gabor-sigma", c.Gabor.Sigma, "gabor gaussian sigma")
	fs.IntVar(&c.Gabor.Orientations, "gabor-orientations", c.Gabor.Orientations, "number of gabor orientations")
	fs.Float64Var(&c.Gabor.Lambda, "gabor-lambda", c.Gabor.Lambda, "gabor wavelength")
	fs.Float64Var(&c.Gabor.Gamma, "gabor-gamma", c.Gabor.Gamma, "gabor aspect ratio")
	fs.Float64Var(&c.Gabor.Psi, "gabor-psi", c.Gabor.Psi, "gabor phase offset")
	fs.Var((*floatList)(&c.Gabor.Weights), "gabor-weights", "comma separated weight per orientation")
	fs.IntVar(&c.Workers, "workers", c.Workers, "images processed concurrently")
	fs.StringVar(&c.Backend, "backend", c.Backend, "convolution backend: native or opencv")
	fs.IntVar(&c.MaxSize, "max-size", c.MaxSize, "downscale sources so no side exceeds this (0 keeps size)")
	fs.BoolVar(&c.SaveEntries, "save-entries", c.SaveEntries, "also write spectra and masks of frequency runs")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "console or json")
	fs.StringVar(&c.CatalogPath, "catalog", c.CatalogPath, "sqlite results catalog (empty disables)")
}

// Load resolves the configuration for args. It returns the positional
// arguments left after flag parsing.
func Load(name string, args []string, getenv func(string) string, output io.Writer) (*Config, []string, error) {
	var path string

	// First pass only finds --config; the file must sit below env and flags.
	probe := flag.NewFlagSet(name, flag.ContinueOnError)
	probe.SetOutput(io.Discard)
	scratch := Default()
	scratch.RegisterFlags(probe)
	probe.StringVar(&path, "config", "", "")
	_ = probe.Parse(args)

	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, nil, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	cfg.RegisterFlags(fs)
	fs.StringVar(&path, "config", path, "TOML configuration file")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return &cfg, fs.Args(), nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.CutoffLow < 0 || c.CutoffHigh < 0 || c.EnhanceCutoff < 0 {
		errs = append(errs, fmt.Errorf("cutoffs must not be negative (low %v, high %v, enhance %v)",
			c.CutoffLow, c.CutoffHigh, c.EnhanceCutoff))
	}
	if c.EnhanceOrder < 1 {
		errs = append(errs, fmt.Errorf("enhance order %d below 1", c.EnhanceOrder))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers %d below 1", c.Workers))
	}
	if c.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("max size %d is negative", c.MaxSize))
	}
	switch c.Backend {
	case BackendNative, BackendOpenCV:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	switch logger.Format(c.LogFormat) {
	case logger.FormatConsole, logger.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if err := c.Gabor.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.InputDir == "" || c.OutputDir == "" || c.GrayDir == "" {
		errs = append(errs, errors.New("input, output and gray directories must be set"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// floatList is a flag.Value for comma separated floats.
type floatList []float64

func (l *floatList) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func (l *floatList) Set(s string) error {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return fmt.Errorf("invalid weight %q: %w", part, err)
		}
		out = append(out, v)
	}
	*l = out
	return nil
}
