package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/karloscodes/cartridge"

	"sitepulse/internal/config"
)

// ErrSweepInProgress is returned by RunRetentionNow when another sweep holds
// the scheduler.
var ErrSweepInProgress = errors.New("retention sweep already running")

// Scheduler runs the retention sweep in the background. It implements
// cartridge.BackgroundWorker.
type Scheduler struct {
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration

	lifecycleMutex sync.Mutex
	isRunning      bool

	// Mutex to prevent concurrent job executions
	processingMutex sync.Mutex
	isProcessing    bool

	retentionJob *RetentionJob
	ticker       *time.Ticker
	done         chan struct{}
}

func NewScheduler(dbManager cartridge.DBManager, logger *slog.Logger, cfg *config.Config) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		interval:     cfg.RetentionInterval(),
		retentionJob: NewRetentionJob(dbManager, logger, cfg.RetentionPeriod()),
	}
}

// executeJobSafely runs a job only if no other job is currently executing
func (s *Scheduler) executeJobSafely(ctx context.Context, jobName string, jobFunc func(ctx context.Context) error) bool {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return false
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(ctx); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
	return true
}

func (s *Scheduler) runRetention(ctx context.Context) error {
	_, err := s.retentionJob.Run(ctx)
	return err
}

// Start runs the sweep once and then on every interval.
func (s *Scheduler) Start() error {
	s.lifecycleMutex.Lock()
	defer s.lifecycleMutex.Unlock()

	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting retention job", slog.Duration("interval", s.interval))
	s.isRunning = true
	s.ticker = time.NewTicker(s.interval)
	s.done = make(chan struct{})

	ticker, done := s.ticker, s.done
	go func() {
		defer close(done)

		s.logger.Info("Running initial retention sweep...")
		s.executeJobSafely(s.ctx, "retention", s.runRetention)

		for {
			select {
			case <-ticker.C:
				s.executeJobSafely(s.ctx, "retention", s.runRetention)
			case <-s.ctx.Done():
				s.logger.Info("Retention job stopped")
				return
			}
		}
	}()

	return nil
}

// Stop halts the background jobs and waits for a running sweep to return.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Stop() {
	s.lifecycleMutex.Lock()
	if !s.isRunning {
		s.lifecycleMutex.Unlock()
		return
	}
	s.isRunning = false
	ticker, done := s.ticker, s.done
	s.lifecycleMutex.Unlock()

	s.logger.Info("Stopping background jobs...")
	ticker.Stop()
	s.cancel()
	<-done
	s.logger.Info("Background jobs stopped")
}

// IsRunning returns whether jobs are currently running
func (s *Scheduler) IsRunning() bool {
	s.lifecycleMutex.Lock()
	defer s.lifecycleMutex.Unlock()
	return s.isRunning
}

// RunRetentionNow runs one sweep in the caller's goroutine with the caller's
// context. It returns ErrSweepInProgress when the background loop is already
// sweeping.
func (s *Scheduler) RunRetentionNow(ctx context.Context) (*RetentionResult, error) {
	var (
		result *RetentionResult
		runErr error
	)
	ran := s.executeJobSafely(ctx, "retention", func(ctx context.Context) error {
		result, runErr = s.retentionJob.Run(ctx)
		return runErr
	})
	if !ran {
		return nil, ErrSweepInProgress
	}
	if result == nil && runErr == nil {
		return nil, errors.New("retention sweep aborted")
	}
	return result, runErr
}
