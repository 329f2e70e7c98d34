package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// scheduleKey is the sorted set holding pending one-shot jobs, scored by
// fire time (unix seconds).
const scheduleKey = "capsule:notify:schedule"

// Lua script: atomically read and remove every member due at or before the
// given score, so concurrent workers never double-pop a job.
var popDueScript = redis.NewScript(`
local due = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
if #due > 0 then
  redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
end
return due
`)

// Scheduler is a redis-backed delayed-job store. ScheduleOnce parks a job
// until its fire time; the worker polls PopDue and moves due jobs onto the
// RabbitMQ queue.
type Scheduler struct {
	RDB    *redis.Client
	Logger *logrus.Logger
}

func NewScheduler(rdb *redis.Client, logger *logrus.Logger) *Scheduler {
	return &Scheduler{RDB: rdb, Logger: logger}
}

func (s *Scheduler) ScheduleOnce(ctx context.Context, job Job, fireAt time.Time) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.RDB.ZAdd(ctx, scheduleKey, redis.Z{
		Score:  float64(fireAt.Unix()),
		Member: string(b),
	}).Err()
}

// PopDue removes and returns every job due at or before now. Members that
// fail to decode are dropped with a log line rather than wedging the set.
func (s *Scheduler) PopDue(ctx context.Context, now time.Time) ([]Job, error) {
	res, err := popDueScript.Run(ctx, s.RDB, []string{scheduleKey}, now.Unix()).StringSlice()
	if err != nil {
		return nil, err
	}
	jobs := make([]Job, 0, len(res))
	for _, raw := range res {
		var j Job
		if err := json.Unmarshal([]byte(raw), &j); err != nil {
			if s.Logger != nil {
				s.Logger.WithError(err).Warn("dropping undecodable scheduled job")
			}
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

var _ Dispatcher = (*Scheduler)(nil)
