package usecase

import (
	"context"
	"fmt"
	"time"

	"lesson-pix/internal/data/repository"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ExpirySweeper periodically moves overdue pending charges to expired.
// Reads already project expiry lazily; the sweep keeps stored state close.
type ExpirySweeper struct {
	repo repository.PixChargeRepository
	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger
}

func NewExpirySweeper(repo *repository.Repository, log *zap.Logger) *ExpirySweeper {
	return &ExpirySweeper{
		repo: repo.PixCharge,
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		now:  time.Now,
		log:  log.With(zap.String("job", "pix_expiry_sweeper")),
	}
}

// Start schedules the sweep. An empty schedule leaves the sweeper idle.
func (s *ExpirySweeper) Start(schedule string) error {
	if schedule == "" {
		s.log.Info("Pix expiry sweeper disabled")
		return nil
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error("Pix expiry sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule pix expiry sweeper %q: %w", schedule, err)
	}

	s.cron.Start()
	s.log.Info("Pix expiry sweeper started", zap.String("schedule", schedule))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *ExpirySweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *ExpirySweeper) RunOnce(ctx context.Context) (int64, error) {
	n, err := s.repo.ExpireOverdue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("Expired overdue pix charges", zap.Int64("count", n))
	}
	return n, nil
}
