package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"frequency-filters/internal/batch"
	"frequency-filters/internal/catalog"
	"frequency-filters/internal/config"
	"frequency-filters/internal/imageio"
	"frequency-filters/internal/logger"
	"frequency-filters/internal/opencv"
	"frequency-filters/internal/pipeline/stages"
	"frequency-filters/internal/processing/gabor"
	"frequency-filters/internal/shutdown"
)

const (
	AppName    = "frequency-filters"
	AppVersion = "1.0.0"
)

// Application runs the requested stages over the configured directories.
type Application struct {
	config   *config.Config
	logger   logger.Logger
	registry *stages.Registry
	recorder batch.Recorder
	shutdown *shutdown.Manager
}

func main() {
	os.Exit(run(os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

func run(args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cfg, rest, err := config.Load(AppName, args, getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		fmt.Fprintf(stderr, "\nusage: %s [flags] [%s|%s|%s|%s]\n", AppName,
			stages.NameBinarize, stages.NameEnhance, stages.NameFrequency, stages.All)
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", AppName, err)
		return 2
	}

	stageName := stages.All
	switch len(rest) {
	case 0:
	case 1:
		stageName = rest[0]
	default:
		fmt.Fprintf(stderr, "%s: expected at most one stage, got %v\n", AppName, rest)
		return 2
	}

	app, err := NewApplication(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", AppName, err)
		return 1
	}
	defer app.shutdown.Shutdown()

	summaries, err := app.Run(stageName)
	for _, s := range summaries {
		fmt.Fprintf(stdout, "%-10s processed %d, failed %d, skipped %d in %s\n",
			s.Stage, s.Processed, s.Failed, s.Skipped, s.Duration.Round(time.Millisecond))
		for _, f := range s.Failures {
			fmt.Fprintf(stdout, "  %s: %v\n", f.Source, f.Err)
		}
	}
	if err != nil {
		app.logger.Error("Application", err, nil)
		return 1
	}
	if app.shutdown.Context().Err() != nil {
		return 1
	}
	for _, s := range summaries {
		if s.Failed > 0 {
			return 1
		}
	}
	return 0
}

// NewApplication builds the logger, the codec and convolution backend, the
// optional catalog and the stage registry from cfg.
func NewApplication(cfg *config.Config, logOutput io.Writer) (*Application, error) {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log := logger.New(logOutput, level, logger.Format(cfg.LogFormat))

	log.Info("Application", "starting", map[string]interface{}{
		"version":    AppVersion,
		"go_version": runtime.Version(),
		"backend":    cfg.Backend,
		"workers":    cfg.Workers,
		"input_dir":  cfg.InputDir,
		"output_dir": cfg.OutputDir,
	})

	var (
		recorder batch.Recorder
		cat      *catalog.Catalog
	)
	if cfg.CatalogPath != "" {
		if cat, err = catalog.Open(cfg.CatalogPath); err != nil {
			return nil, err
		}
		recorder = cat
		log = log.With(map[string]interface{}{"run_id": cat.RunID()})
		log.Info("Application", "recording results", map[string]interface{}{
			"catalog": cfg.CatalogPath,
		})
	}

	env := stages.Env{Config: *cfg, Logger: log}
	switch cfg.Backend {
	case config.BackendOpenCV:
		env.Codec = opencv.Codec{}
		env.Convolver = opencv.Convolver{}
	default:
		env.Codec = imageio.ImagingCodec{}
		env.Convolver = gabor.NativeConvolver{}
	}

	registry, err := stages.NewRegistry(env)
	if err != nil {
		if cat != nil {
			cat.Close()
		}
		return nil, err
	}

	app := &Application{
		config:   cfg,
		logger:   log,
		registry: registry,
		recorder: recorder,
		shutdown: shutdown.NewManager(log, 10*time.Second),
	}
	if cat != nil {
		app.shutdown.Register(cat)
	}

	return app, nil
}

// Run executes the named stage, or all stages in order. A cancelled run
// returns the summaries gathered so far.
func (app *Application) Run(stageName string) ([]*batch.Summary, error) {
	selected, err := app.registry.Resolve(stageName)
	if err != nil {
		return nil, err
	}

	app.shutdown.Listen()
	defer app.shutdown.Stop()
	ctx := app.shutdown.Context()

	var summaries []*batch.Summary
	for _, stage := range selected {
		if ctx.Err() != nil {
			return summaries, ctx.Err()
		}

		files, err := stage.Inputs()
		if err != nil {
			return summaries, fmt.Errorf("%s: %w", stage.Name(), err)
		}
		app.logger.Info("Application", "running stage", map[string]interface{}{
			"stage":  stage.Name(),
			"images": len(files),
		})

		runner := batch.NewRunner(batch.Options{
			Workers:  app.config.Workers,
			Dirs:     stage.Dirs(),
			Logger:   app.logger,
			Recorder: app.recorder,
		})
		summary, _, err := runner.Run(ctx, stage, files)
		if err != nil {
			return summaries, fmt.Errorf("%s: %w", stage.Name(), err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
