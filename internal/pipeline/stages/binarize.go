package stages

import (
	"context"
	"fmt"
	"path/filepath"

	"frequency-filters/internal/batch"
	"frequency-filters/internal/pipeline"
	"frequency-filters/internal/scanner"
)

const NameBinarize = "binarize"

// BinarizeStage writes the grayscale intermediate and the Otsu binarization
// of every source image.
type BinarizeStage struct {
	env Env
}

func NewBinarizeStage(env Env) *BinarizeStage {
	return &BinarizeStage{env: env.withDefaults()}
}

func (s *BinarizeStage) Name() string { return NameBinarize }

func (s *BinarizeStage) Inputs() ([]string, error) {
	return scanner.Sources(s.env.Config.InputDir)
}

func (s *BinarizeStage) Dirs() []string {
	return []string{s.env.Config.GrayDir, s.env.Config.OutputDir}
}

func (s *BinarizeStage) Process(ctx context.Context, path string) (batch.Outcome, error) {
	if err := checkContext(ctx, NameBinarize, path); err != nil {
		return batch.Outcome{}, err
	}

	img, err := s.env.load(path)
	if err != nil {
		return batch.Outcome{}, err
	}
	res, err := pipeline.Binarize(img)
	if err != nil {
		return batch.Outcome{}, fmt.Errorf("%s: %w", path, err)
	}

	base, ext := scanner.BaseName(path, ""), filepath.Ext(path)
	w := &writer{codec: s.env.Codec}
	if err := w.save(s.env.Config.GrayDir, scanner.GrayName(base, ext), res.Gray); err != nil {
		return batch.Outcome{}, err
	}
	if err := w.save(s.env.Config.OutputDir, scanner.BinaryName(base, ext), res.Binary); err != nil {
		return batch.Outcome{}, err
	}

	threshold := res.Threshold
	size := res.Gray.Bounds().Size()
	return batch.Outcome{
		Outputs:   w.paths,
		Width:     size.X,
		Height:    size.Y,
		Threshold: &threshold,
		Metrics:   res.Metrics.Fields(),
	}, nil
}
