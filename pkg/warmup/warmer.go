// Package warmup refreshes cached items in the background so cache-first
// lookups stay fresh while the device is online.
package warmup

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/learn-cache/pkg/form"
	"github.com/Sternrassler/learn-cache/pkg/logging"
	"github.com/Sternrassler/learn-cache/pkg/systemsettings"
)

var (
	// JobsTotal counts refresh jobs by outcome (ok, error).
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "learncache_warmup_jobs_total",
		Help: "Total warmup jobs by outcome",
	}, []string{"outcome"})

	// RunDuration tracks the duration of complete warmup runs.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "learncache_warmup_run_duration_seconds",
		Help:    "Warmup run duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60},
	})
)

// Job refreshes one cached item.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// FormJob refetches a form from the platform and stores it. The job fails
// when the platform call fails, whatever is already cached.
func FormJob(svc *form.Service, req form.Request) Job {
	return Job{
		Name: form.Namespace + req.ID(),
		Run: func(ctx context.Context) error {
			return svc.Refresh(ctx, req)
		},
	}
}

// SettingsJob refetches a system setting from the platform and stores it.
func SettingsJob(svc *systemsettings.Service, id string) Job {
	req := systemsettings.Request{ID: id}
	return Job{
		Name: systemsettings.Namespace + id,
		Run: func(ctx context.Context) error {
			return svc.Refresh(ctx, req)
		},
	}
}

// Config holds warmer configuration.
type Config struct {
	// Concurrency is the maximum number of jobs running at once.
	Concurrency int

	// Timeout per job.
	Timeout time.Duration
}

// DefaultConfig returns the default warmer configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Timeout:     30 * time.Second,
	}
}

// Warmer runs a fixed set of refresh jobs.
type Warmer struct {
	jobs   []Job
	config Config
	logger zerolog.Logger
}

// NewWarmer creates a warmer for jobs.
func NewWarmer(jobs []Job, cfg Config) *Warmer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Warmer{
		jobs:   jobs,
		config: cfg,
		logger: logging.NewLogger("warmup"),
	}
}

// Jobs returns the number of registered jobs.
func (w *Warmer) Jobs() int {
	return len(w.jobs)
}

// Run executes every job once. A failing job does not stop the others; the
// returned error joins all job failures.
func (w *Warmer) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		RunDuration.Observe(time.Since(start).Seconds())
	}()

	var (
		mu   sync.Mutex
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(w.config.Concurrency)

	for _, job := range w.jobs {
		if ctx.Err() != nil {
			break
		}
		job := job
		g.Go(func() error {
			jobCtx, cancel := context.WithTimeout(ctx, w.config.Timeout)
			defer cancel()

			if err := job.Run(jobCtx); err != nil {
				JobsTotal.WithLabelValues("error").Inc()
				w.logger.Warn().Err(err).Str("job", job.Name).Msg("Warmup job failed")

				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", job.Name, err))
				mu.Unlock()
				return nil
			}

			JobsTotal.WithLabelValues("ok").Inc()
			w.logger.Debug().Str("job", job.Name).Msg("Warmup job done")
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	if ctx.Err() != nil {
		err = errors.Join(err, ctx.Err())
	}

	w.logger.Info().
		Int("jobs", len(w.jobs)).
		Int("failed", len(errs)).
		Dur("duration", time.Since(start)).
		Msg("Warmup run complete")

	return err
}
