package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/scopa-ai/signal/internal/alerts"
	"github.com/sirupsen/logrus"
)

// DefaultSchedule runs the alert batch at the top of every hour
const DefaultSchedule = "0 0 * * * *"

// runTimeout bounds a single batch so a hung upstream cannot pile up runs
const runTimeout = 10 * time.Minute

// AlertRunner runs one due-alert batch
type AlertRunner interface {
	Run(ctx context.Context) (alerts.Summary, error)
}

// Service triggers the alert processor on a cron schedule
type Service struct {
	schedule string
	runner   AlertRunner
	cron     *cron.Cron

	mu      sync.Mutex
	running bool
}

// NewService creates a scheduler. An empty schedule falls back to DefaultSchedule.
func NewService(schedule string, runner AlertRunner) *Service {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Service{
		schedule: schedule,
		runner:   runner,
		cron:     cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled alert checks
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.RunOnce)
	if err != nil {
		return fmt.Errorf("invalid alert schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with %q alert schedule", s.schedule)
	return nil
}

// RunOnce runs a batch unless one is already in flight
func (s *Service) RunOnce() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logrus.Warn("Previous alert batch still running, skipping this tick")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	logrus.Info("Starting scheduled alert run")
	summary, err := s.runner.Run(ctx)
	if err != nil {
		logrus.Errorf("Scheduled alert run failed: %v", err)
		return
	}
	logrus.Infof("Scheduled alert run finished: %d processed, %d failed", summary.Processed, summary.Failed)
}

// Stop stops the scheduler and waits for a running batch to finish
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		logrus.Info("Scheduler stopped")
	}
}
