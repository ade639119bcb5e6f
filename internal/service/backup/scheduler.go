// internal/service/backup/scheduler.go
package backup

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler snapshots all tables at a fixed interval.
type Scheduler struct {
	service  *BackupService
	lock     Lock
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler builds a scheduler; lock may be nil for a single instance.
func NewScheduler(service *BackupService, lock Lock, interval time.Duration, logger *zap.Logger) *Scheduler {
	if lock == nil {
		lock = localLock{}
	}
	return &Scheduler{service: service, lock: lock, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled. A non-positive interval returns at once.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.logger.Info("backup scheduler started", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("backup scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	acquired, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logger.Error("backup lock failed", zap.Error(err))
		return
	}
	if !acquired {
		s.logger.Debug("backup skipped, another instance holds the lock")
		return
	}
	defer func() {
		if err := s.lock.Release(context.Background()); err != nil {
			s.logger.Warn("failed to release backup lock", zap.Error(err))
		}
	}()

	if _, err := s.service.SnapshotAll(ctx); err != nil {
		s.logger.Error("scheduled backup failed", zap.Error(err))
	}
}
