package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	repo "github.com/capsulevault/timecapsule/internal/domain/repository"
)

// dedupTTL bounds how long a fired-notification marker is kept. The sweep
// re-emits due capsules indefinitely, so the marker must outlive at least a
// few sweep intervals; a day is plenty.
const dedupTTL = 24 * time.Hour

// MailSender is the optional email channel for open notifications.
type MailSender interface {
	SendCapsuleOpen(ctx context.Context, to, username string, capsuleID int64, dateOpen time.Time) error
}

// Notifier consumes one-shot jobs and fires the actual notification. It is
// the idempotent end of an at-least-once pipeline: jobs for deleted capsules
// are skipped, and a capsule notifies once per unlock epoch.
type Notifier struct {
	Capsules repo.CapsuleRepository
	RDB      *redis.Client
	Logger   *logrus.Logger
	Mailer   MailSender
}

func NewNotifier(capsules repo.CapsuleRepository, rdb *redis.Client, logger *logrus.Logger, mailer MailSender) *Notifier {
	return &Notifier{Capsules: capsules, RDB: rdb, Logger: logger, Mailer: mailer}
}

// Handle processes one job. A nil error means the job is done and must be
// acked, including the skip cases.
func (n *Notifier) Handle(ctx context.Context, job Job) error {
	exists, err := n.Capsules.Exists(ctx, job.CapsuleID)
	if err != nil {
		return err
	}
	if !exists {
		n.Logger.WithField("capsule_id", job.CapsuleID).Info("capsule deleted before notification, skipping")
		return nil
	}

	if n.RDB != nil {
		ok, err := n.RDB.SetNX(ctx, job.DedupKey(), "1", dedupTTL).Result()
		if err != nil {
			// Fail open: a duplicate notification beats a lost one.
			n.Logger.WithError(err).Warn("notification dedup check failed")
		} else if !ok {
			n.Logger.WithField("capsule_id", job.CapsuleID).Debug("notification already sent for this epoch")
			return nil
		}
	}

	n.Logger.WithFields(logrus.Fields{
		"capsule_id": job.CapsuleID,
		"username":   job.Username,
		"date_open":  job.DateOpen,
	}).Info("capsule is now open")

	if n.Mailer != nil && job.Email != "" {
		if err := n.Mailer.SendCapsuleOpen(ctx, job.Email, job.Username, job.CapsuleID, job.DateOpen); err != nil {
			// Email is best-effort; the log line above is the notification of record.
			n.Logger.WithError(err).WithField("capsule_id", job.CapsuleID).Warn("open notification email failed")
		}
	}
	return nil
}
