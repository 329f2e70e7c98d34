package notify

import (
	"context"
	"time"
)

// Dispatcher schedules a one-shot open notification. Implementations are
// at-least-once: delivery may be repeated and consumers deduplicate.
type Dispatcher interface {
	ScheduleOnce(ctx context.Context, job Job, fireAt time.Time) error
}

// Publisher is the queue side the worker publishes due jobs to.
// helpers.RabbitPublisher satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}
