package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	repo "github.com/capsulevault/timecapsule/internal/domain/repository"
)

// Sweeper periodically scans for capsules whose unlock date has passed and
// re-enqueues their open notification. It is the catch-up path for one-shot
// jobs lost to restarts; the Notifier's dedup keeps it from spamming.
type Sweeper struct {
	Capsules repo.CapsuleRepository
	Pub      Publisher
	Logger   *logrus.Logger
	Interval time.Duration
}

func NewSweeper(capsules repo.CapsuleRepository, pub Publisher, logger *logrus.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{Capsules: capsules, Pub: pub, Logger: logger, Interval: interval}
}

// Run blocks until ctx is cancelled, sweeping once per interval. The first
// sweep happens immediately so a restart catches up without waiting.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()
	due, err := s.Capsules.ListDue(ctx, now)
	if err != nil {
		s.Logger.WithError(err).Error("capsule sweep query failed")
		return
	}
	s.Logger.WithField("count", len(due)).Info("capsule sweep")
	for _, d := range due {
		job := Job{CapsuleID: d.ID, Username: d.Username, Email: d.Email, DateOpen: d.DateOpen}
		if err := s.Pub.PublishJSON(ctx, job); err != nil {
			s.Logger.WithError(err).WithField("capsule_id", d.ID).Error("sweep enqueue failed")
		}
	}
}
