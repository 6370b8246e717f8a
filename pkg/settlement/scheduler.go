package settlement

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultInterval is how often the Scheduler runs a settlement pass.
const DefaultInterval = time.Minute

// Runner runs one settlement pass.
type Runner interface {
	Run(ctx context.Context) (RunReport, error)
}

// Scheduler runs a Runner on a fixed interval inside the API process.
// Ticks never overlap: a tick that fires while the previous pass is still
// running is dropped.
type Scheduler struct {
	Runner   Runner
	Interval time.Duration
	Logger   *slog.Logger

	running sync.Mutex

	mu     sync.Mutex
	ticker *time.Ticker
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler with DefaultInterval.
func NewScheduler(runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		Runner:   runner,
		Interval: DefaultInterval,
		Logger:   logger,
	}
}

// Start runs a pass immediately and then on every tick until Stop is called
// or ctx is cancelled. Calling Start on a started Scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		return
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.ticker = time.NewTicker(interval)
	s.wg.Add(1)
	go s.loop(ctx, s.ticker)

	s.Logger.Info("settlement scheduler started", "interval", interval.String())
}

// Stop halts the ticker and waits for an in-flight pass to finish its batch.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.cancel()
	s.wg.Wait()
	s.ticker = nil
	s.Logger.Info("settlement scheduler stopped")
}

// loop stops taking ticks when ctx is done, but a pass already running keeps
// its context and finishes the batch it selected.
func (s *Scheduler) loop(ctx context.Context, ticker *time.Ticker) {
	defer s.wg.Done()

	passCtx := context.WithoutCancel(ctx)
	s.RunNow(passCtx)
	for {
		select {
		case <-ticker.C:
			s.RunNow(passCtx)
		case <-ctx.Done():
			return
		}
	}
}

// RunNow runs a pass unless one is already in progress, in which case it
// returns false without waiting.
func (s *Scheduler) RunNow(ctx context.Context) (RunReport, bool) {
	if !s.running.TryLock() {
		s.Logger.Debug("settlement pass already running, tick skipped")
		return RunReport{}, false
	}
	defer s.running.Unlock()

	started := time.Now()
	report, err := s.Runner.Run(ctx)
	if err != nil {
		s.Logger.Error("settlement pass failed", "error", err)
	}
	if report.Selected > 0 || err != nil {
		s.Logger.Info("settlement pass completed",
			"selected", report.Selected,
			"settled", report.Settled,
			"skipped", report.Skipped,
			"failed", report.Failed,
			"duration", time.Since(started).String(),
		)
	}
	return report, true
}
