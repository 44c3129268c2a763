package stages

import (
	"context"
	"fmt"
	"path/filepath"

	"frequency-filters/internal/batch"
	"frequency-filters/internal/pipeline"
	"frequency-filters/internal/raster"
	"frequency-filters/internal/scanner"
)

const NameFrequency = "frequency"

// FrequencyStage applies the ideal low-pass and high-pass filters to every
// source image and to every grayscale intermediate.
type FrequencyStage struct {
	env Env
}

func NewFrequencyStage(env Env) *FrequencyStage {
	return &FrequencyStage{env: env.withDefaults()}
}

func (s *FrequencyStage) Name() string { return NameFrequency }

func (s *FrequencyStage) Inputs() ([]string, error) {
	sources, err := scanner.Sources(s.env.Config.InputDir)
	if err != nil {
		return nil, err
	}
	grays, err := scanner.GrayIntermediates(s.env.Config.GrayDir)
	if err != nil {
		return nil, err
	}
	return dedupe(append(sources, grays...)), nil
}

// dedupe drops repeated paths, keeping the first occurrence.
func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, p := range paths {
		key := filepath.Clean(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (s *FrequencyStage) Dirs() []string {
	return []string{s.env.Config.OutputDir}
}

// isGray reports whether path is a grayscale intermediate rather than a
// source image.
func (s *FrequencyStage) isGray(path string) bool {
	if !scanner.IsGrayIntermediate(path) {
		return false
	}
	return filepath.Clean(filepath.Dir(path)) == filepath.Clean(s.env.Config.GrayDir)
}

func (s *FrequencyStage) Process(ctx context.Context, path string) (batch.Outcome, error) {
	if err := checkContext(ctx, NameFrequency, path); err != nil {
		return batch.Outcome{}, err
	}

	var (
		bundle *pipeline.Bundle
		base   string
	)
	if s.isGray(path) {
		gray, err := s.env.loadGray(path)
		if err != nil {
			return batch.Outcome{}, err
		}
		if bundle, err = pipeline.FrequencyGray(gray, s.env.Config.CutoffLow, s.env.Config.CutoffHigh); err != nil {
			return batch.Outcome{}, fmt.Errorf("%s: %w", path, err)
		}
		base = scanner.BaseName(path, scanner.GraySuffix)
	} else {
		img, err := s.env.load(path)
		if err != nil {
			return batch.Outcome{}, err
		}
		if bundle, err = pipeline.FrequencyRGB(img, s.env.Config.CutoffLow, s.env.Config.CutoffHigh); err != nil {
			return batch.Outcome{}, fmt.Errorf("%s: %w", path, err)
		}
		base = scanner.BaseName(path, "")
	}

	out := s.env.Config.OutputDir
	w := &writer{codec: s.env.Codec}
	if err := w.save(out, scanner.FrequencyName(base, bundle.Domain, scanner.KindLowPass, "png"), bundle.LowPass.Image); err != nil {
		return batch.Outcome{}, err
	}
	if err := w.save(out, scanner.FrequencyName(base, bundle.Domain, scanner.KindHighPass, "png"), bundle.HighPass.Image); err != nil {
		return batch.Outcome{}, err
	}
	if s.env.Config.SaveEntries {
		for _, entry := range bundle.Entries() {
			if err := w.save(out, scanner.EntryName(base, bundle.Domain, entry.Name), entry.Render()); err != nil {
				return batch.Outcome{}, err
			}
		}
	}

	lowMean, _ := raster.Stats(bundle.LowPass.Image)
	highMean, _ := raster.Stats(bundle.HighPass.Image)
	size := bundle.Gray.Bounds().Size()
	return batch.Outcome{
		Outputs: w.paths,
		Width:   size.X,
		Height:  size.Y,
		Metrics: map[string]float64{
			"low_pass_mean":  lowMean,
			"high_pass_mean": highMean,
		},
	}, nil
}
