package stages

import (
	"context"
	"fmt"

	"frequency-filters/internal/batch"
	"frequency-filters/internal/pipeline"
	"frequency-filters/internal/scanner"
)

const NameEnhance = "enhance"

// EnhanceStage sharpens every grayscale intermediate with the smooth FFT
// high-pass and with the Gabor bank.
type EnhanceStage struct {
	env      Env
	enhancer *pipeline.Enhancer
}

func NewEnhanceStage(env Env) (*EnhanceStage, error) {
	env = env.withDefaults()
	enhancer, err := pipeline.NewEnhancer(pipeline.EnhanceOptions{
		Cutoff:    env.Config.EnhanceCutoff,
		Order:     env.Config.EnhanceOrder,
		Gabor:     env.Config.Gabor,
		Convolver: env.Convolver,
	})
	if err != nil {
		return nil, err
	}
	return &EnhanceStage{env: env, enhancer: enhancer}, nil
}

func (s *EnhanceStage) Name() string { return NameEnhance }

func (s *EnhanceStage) Inputs() ([]string, error) {
	files, err := scanner.GrayIntermediates(s.env.Config.GrayDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		s.env.Logger.Warning("EnhanceStage", "no grayscale intermediates found, run binarize first", map[string]interface{}{
			"dir": s.env.Config.GrayDir,
		})
	}
	return files, nil
}

func (s *EnhanceStage) Dirs() []string {
	return []string{s.env.Config.OutputDir}
}

func (s *EnhanceStage) Process(ctx context.Context, path string) (batch.Outcome, error) {
	if err := checkContext(ctx, NameEnhance, path); err != nil {
		return batch.Outcome{}, err
	}

	gray, err := s.env.loadGray(path)
	if err != nil {
		return batch.Outcome{}, err
	}
	res, err := s.enhancer.Enhance(gray)
	if err != nil {
		return batch.Outcome{}, fmt.Errorf("%s: %w", path, err)
	}

	base := scanner.BaseName(path, scanner.GraySuffix)
	w := &writer{codec: s.env.Codec}
	if err := w.save(s.env.Config.OutputDir, scanner.EnhanceName(base, scanner.KindFFT), res.FFT.Image); err != nil {
		return batch.Outcome{}, err
	}
	if err := w.save(s.env.Config.OutputDir, scanner.EnhanceName(base, scanner.KindGabor), res.Gabor.Image); err != nil {
		return batch.Outcome{}, err
	}

	size := gray.Bounds().Size()
	return batch.Outcome{
		Outputs: w.paths,
		Width:   size.X,
		Height:  size.Y,
		Metrics: res.Fields(),
	}, nil
}
