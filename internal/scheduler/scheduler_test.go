package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/palmtrack/internal/config"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

type countingSnapshotter struct {
	calls atomic.Int32
	err   error
}

func (c *countingSnapshotter) SnapshotSummary(context.Context) (*models.SummarySnapshot, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return &models.SummarySnapshot{TakenAt: time.Now()}, nil
}

func TestNewSchedulerRejectsUnknownTimezone(t *testing.T) {
	_, err := NewScheduler(config.ReportingConfig{Timezone: "Mars/Olympus"}, &countingSnapshotter{}, nil)
	assert.Error(t, err)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "every day", Timezone: "UTC"}, &countingSnapshotter{}, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestStartDisabled(t *testing.T) {
	s, err := NewScheduler(config.ReportingConfig{}, &countingSnapshotter{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	assert.Empty(t, s.cron.Entries())
	s.Stop()
}

func TestStartRegistersSnapshotJob(t *testing.T) {
	s, err := NewScheduler(config.ReportingConfig{CronSchedule: "0 20 * * *", Timezone: "Asia/Kolkata"}, &countingSnapshotter{}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	next := entries[0].Schedule.Next(time.Date(2026, 3, 1, 0, 0, 0, 0, loc))
	assert.Equal(t, 20, next.In(loc).Hour())
	assert.Equal(t, 1, next.In(loc).Day())
}

func TestTakeSnapshot(t *testing.T) {
	snap := &countingSnapshotter{}
	s, err := NewScheduler(config.ReportingConfig{}, snap, nil)
	require.NoError(t, err)

	s.takeSnapshot()
	snap.err = errors.New("mongo down")
	s.takeSnapshot()
	assert.Equal(t, int32(2), snap.calls.Load())
}
