package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) (*Scheduler, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewScheduler(rdb, logrus.New()), mr
}

func TestScheduler_PopDue_OnlyReturnsDueJobs(t *testing.T) {
	s, _ := newTestScheduler(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	due := Job{CapsuleID: 1, Username: "alice", DateOpen: now.Add(-time.Minute)}
	future := Job{CapsuleID: 2, Username: "alice", DateOpen: now.Add(time.Hour)}
	require.NoError(t, s.ScheduleOnce(ctx, due, due.DateOpen))
	require.NoError(t, s.ScheduleOnce(ctx, future, future.DateOpen))

	jobs, err := s.PopDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, int64(1), jobs[0].CapsuleID)

	// Due jobs are removed; the future one stays parked.
	jobs, err = s.PopDue(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	jobs, err = s.PopDue(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, int64(2), jobs[0].CapsuleID)
}

func TestScheduler_PopDue_EmptySchedule(t *testing.T) {
	s, _ := newTestScheduler(t)

	jobs, err := s.PopDue(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestScheduler_PopDue_DropsUndecodableMembers(t *testing.T) {
	s, mr := newTestScheduler(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := mr.ZAdd(scheduleKey, float64(now.Add(-time.Minute).Unix()), "{not json")
	require.NoError(t, err)
	good := Job{CapsuleID: 7, Username: "alice", DateOpen: now.Add(-time.Minute)}
	require.NoError(t, s.ScheduleOnce(ctx, good, good.DateOpen))

	jobs, err := s.PopDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, int64(7), jobs[0].CapsuleID)
}
