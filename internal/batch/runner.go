// Package batch runs one stage over a list of image files with a bounded
// number of workers. A failing image never stops the batch.
package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/stat"

	"frequency-filters/internal/catalog"
	"frequency-filters/internal/logger"
)

// Outcome is what a processor reports for one image.
type Outcome struct {
	Outputs   []string
	Width     int
	Height    int
	Threshold *uint8
	Metrics   map[string]float64
	// Skipped marks inputs the processor chose not to handle.
	Skipped bool
}

type Processor interface {
	Name() string
	Process(ctx context.Context, path string) (Outcome, error)
}

// Recorder receives one entry per image. *catalog.Catalog satisfies it.
type Recorder interface {
	Record(ctx context.Context, e catalog.Entry) error
}

type Result struct {
	Source   string
	Outcome  Outcome
	Err      error
	Duration time.Duration
}

func (r Result) Status() string {
	switch {
	case r.Outcome.Skipped:
		return catalog.StatusSkipped
	case r.Err != nil:
		return catalog.StatusFailed
	default:
		return catalog.StatusOK
	}
}

type Failure struct {
	Source string
	Err    error
}

type Summary struct {
	Stage     string
	Processed int
	Failed    int
	Skipped   int
	Duration  time.Duration
	// MeanImage and StdImage describe per-image processing time.
	MeanImage time.Duration
	StdImage  time.Duration
	Failures  []Failure
}

func (s *Summary) Fields() map[string]interface{} {
	return map[string]interface{}{
		"stage":      s.Stage,
		"processed":  s.Processed,
		"failed":     s.Failed,
		"skipped":    s.Skipped,
		"duration":   s.Duration,
		"mean_image": s.MeanImage,
		"std_image":  s.StdImage,
	}
}

type Options struct {
	Workers int
	// Dirs are created before the first image is dispatched.
	Dirs     []string
	Logger   logger.Logger
	Recorder Recorder
}

type Runner struct {
	workers  int
	dirs     []string
	logger   logger.Logger
	recorder Recorder
}

func NewRunner(opts Options) *Runner {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{
		workers:  workers,
		dirs:     opts.Dirs,
		logger:   log,
		recorder: opts.Recorder,
	}
}

// Run processes files with p and returns the per-file results in input
// order. Once ctx is done no further files are dispatched; those files are
// reported as skipped with the context error.
func (r *Runner) Run(ctx context.Context, p Processor, files []string) (*Summary, []Result, error) {
	for _, dir := range r.dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	start := time.Now()
	results := make([]Result, len(files))

	workers := make(chan struct{}, r.workers)
	for i := 0; i < r.workers; i++ {
		workers <- struct{}{}
	}
	done := make(chan struct{}, len(files))

	dispatched := 0
dispatch:
	for i, path := range files {
		if ctx.Err() != nil {
			r.cancelFrom(ctx, results, files, i)
			break
		}
		select {
		case <-workers:
			if ctx.Err() != nil {
				workers <- struct{}{}
				r.cancelFrom(ctx, results, files, i)
				break dispatch
			}
		case <-ctx.Done():
			r.cancelFrom(ctx, results, files, i)
			break dispatch
		}

		dispatched++
		go func(i int, path string) {
			defer func() {
				workers <- struct{}{}
				done <- struct{}{}
			}()
			results[i] = r.runOne(ctx, p, path)
		}(i, path)
	}
	for i := 0; i < dispatched; i++ {
		<-done
	}

	summary := r.summarize(p.Name(), results, time.Since(start))
	r.logger.Info("BatchRunner", "stage finished", summary.Fields())
	return summary, results, nil
}

func (r *Runner) cancelFrom(ctx context.Context, results []Result, files []string, from int) {
	for j := from; j < len(files); j++ {
		results[j] = Result{Source: files[j], Outcome: Outcome{Skipped: true}, Err: ctx.Err()}
	}
	r.logger.Warning("BatchRunner", "run cancelled, remaining images not dispatched", map[string]interface{}{
		"remaining": len(files) - from,
	})
}

func (r *Runner) runOne(ctx context.Context, p Processor, path string) (res Result) {
	res.Source = path
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			res.Err = fmt.Errorf("panic while processing %s: %v", path, rec)
		}
		res.Duration = time.Since(start)
		r.report(ctx, p.Name(), res)
	}()

	r.logger.Debug("BatchRunner", "processing image", map[string]interface{}{
		"stage":  p.Name(),
		"source": path,
	})
	res.Outcome, res.Err = p.Process(ctx, path)
	return res
}

func (r *Runner) report(ctx context.Context, stage string, res Result) {
	fields := map[string]interface{}{
		"stage":    stage,
		"source":   res.Source,
		"duration": res.Duration,
		"status":   res.Status(),
	}
	for k, v := range res.Outcome.Metrics {
		fields[k] = v
	}
	if res.Err != nil {
		r.logger.Error("BatchRunner", res.Err, fields)
	} else {
		r.logger.Info("BatchRunner", "image processed", fields)
	}

	if r.recorder == nil {
		return
	}
	entry := catalog.Entry{
		Stage:     stage,
		Source:    res.Source,
		Outputs:   res.Outcome.Outputs,
		Threshold: res.Outcome.Threshold,
		Width:     res.Outcome.Width,
		Height:    res.Outcome.Height,
		Status:    res.Status(),
		Duration:  res.Duration,
		Metrics:   res.Outcome.Metrics,
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	// The ledger outlives a cancelled run.
	if err := r.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		r.logger.Warning("BatchRunner", "failed to record result", map[string]interface{}{
			"source": res.Source,
			"error":  err.Error(),
		})
	}
}

func (r *Runner) summarize(stage string, results []Result, elapsed time.Duration) *Summary {
	s := &Summary{Stage: stage, Duration: elapsed}

	var durations []float64
	for _, res := range results {
		switch res.Status() {
		case catalog.StatusFailed:
			s.Failed++
			s.Failures = append(s.Failures, Failure{Source: res.Source, Err: res.Err})
		case catalog.StatusSkipped:
			s.Skipped++
		default:
			s.Processed++
		}
		if res.Duration > 0 {
			durations = append(durations, float64(res.Duration))
		}
	}

	if len(durations) > 0 {
		mean, std := stat.MeanStdDev(durations, nil)
		if len(durations) == 1 {
			std = 0
		}
		s.MeanImage = time.Duration(mean)
		s.StdImage = time.Duration(std)
	}
	return s
}
