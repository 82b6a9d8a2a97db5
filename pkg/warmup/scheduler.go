package warmup

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/learn-cache/pkg/logging"
)

// Scheduler runs a Warmer on a cron schedule. Standard five field
// expressions and descriptors such as "@every 15m" are accepted.
type Scheduler struct {
	warmer *Warmer
	cron   *cron.Cron
	logger zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// NewScheduler creates a scheduler running warmer on spec.
func NewScheduler(warmer *Warmer, spec string) (*Scheduler, error) {
	s := &Scheduler{
		warmer: warmer,
		logger: logging.NewLogger("warmup-scheduler"),
	}

	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("invalid warmup schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the schedule. Runs are cancelled through ctx or Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.cron.Start()

	s.logger.Info().Int("jobs", s.warmer.Jobs()).Msg("Warmup scheduler started")
}

// Stop stops the schedule, cancels a run in progress and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Warmup scheduler stopped")
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if err := s.warmer.Run(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Warmup run finished with errors")
	}
}
