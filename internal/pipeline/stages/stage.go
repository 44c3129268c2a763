// Package stages wires the pipeline orchestrators to the file system: each
// stage lists its inputs, loads one image, runs the pipeline and writes the
// named artifacts.
package stages

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"frequency-filters/internal/batch"
	"frequency-filters/internal/config"
	"frequency-filters/internal/imageio"
	"frequency-filters/internal/logger"
	"frequency-filters/internal/processing/gabor"
	"frequency-filters/internal/raster"
)

// Stage is a named batch step.
type Stage interface {
	batch.Processor
	// Inputs lists the files the stage would process, in order.
	Inputs() ([]string, error)
	// Dirs lists the directories the stage writes to.
	Dirs() []string
}

// Env carries what every stage needs. Codec defaults to
// imageio.ImagingCodec and Convolver to gabor.NativeConvolver.
type Env struct {
	Config    config.Config
	Codec     imageio.Codec
	Convolver gabor.Convolver
	Logger    logger.Logger
}

func (e Env) withDefaults() Env {
	if e.Codec == nil {
		e.Codec = imageio.ImagingCodec{}
	}
	if e.Convolver == nil {
		e.Convolver = gabor.NativeConvolver{}
	}
	if e.Logger == nil {
		e.Logger = logger.Nop()
	}
	return e
}

func (e Env) load(path string) (image.Image, error) {
	img, err := e.Codec.Load(path)
	if err != nil {
		return nil, err
	}
	return imageio.Fit(img, e.Config.MaxSize), nil
}

func (e Env) loadGray(path string) (*image.Gray, error) {
	if e.Config.MaxSize <= 0 {
		return e.Codec.LoadGray(path)
	}
	img, err := e.load(path)
	if err != nil {
		return nil, err
	}
	return raster.Grayscale(img), nil
}

// writer saves artifacts into one directory and remembers their paths.
type writer struct {
	codec imageio.Codec
	paths []string
}

func (w *writer) save(dir, name string, img image.Image) error {
	path := filepath.Join(dir, name)
	if err := w.codec.Save(path, img); err != nil {
		return err
	}
	w.paths = append(w.paths, path)
	return nil
}

func checkContext(ctx context.Context, stage, path string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s %s: %w", stage, path, ctx.Err())
	default:
		return nil
	}
}
