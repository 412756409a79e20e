package jobs_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medinsight/internal/jobs"
	"medinsight/internal/reports"
	"medinsight/internal/store"
	"medinsight/internal/testsupport"
	"medinsight/internal/timeframe"
)

type countingJob struct {
	name string
	spec string
	runs atomic.Int32
	run  func(ctx context.Context) error
}

func (j *countingJob) Name() string { return j.name }
func (j *countingJob) Spec() string { return j.spec }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.run != nil {
		return j.run(ctx)
	}
	return nil
}

func TestRunNow(t *testing.T) {
	job := &countingJob{name: "count", spec: "@daily"}
	s := jobs.NewScheduler(testsupport.GetLogger(), true, job)

	require.NoError(t, s.RunNow("count"))
	assert.Equal(t, int32(1), job.runs.Load())

	err := s.RunNow("missing")
	assert.ErrorIs(t, err, jobs.ErrUnknownJob)
}

func TestRunNowRecoversPanics(t *testing.T) {
	job := &countingJob{name: "boom", spec: "@daily", run: func(context.Context) error {
		panic("kaboom")
	}}
	s := jobs.NewScheduler(testsupport.GetLogger(), true, job)

	err := s.RunNow("boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")

	// The scheduler is usable again after a panic.
	job.run = nil
	assert.NoError(t, s.RunNow("boom"))
}

func TestRunNowReturnsJobError(t *testing.T) {
	failing := errors.New("store down")
	job := &countingJob{name: "fail", spec: "@daily", run: func(context.Context) error { return failing }}
	s := jobs.NewScheduler(testsupport.GetLogger(), true, job)

	assert.ErrorIs(t, s.RunNow("fail"), failing)
}

func TestStartAndStop(t *testing.T) {
	s := jobs.NewScheduler(testsupport.GetLogger(), true, &countingJob{name: "count", spec: "0 21 * * *"})

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(), "starting twice is a no-op")

	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestStartDisabled(t *testing.T) {
	s := jobs.NewScheduler(testsupport.GetLogger(), false, &countingJob{name: "count", spec: "0 21 * * *"})

	require.NoError(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	s := jobs.NewScheduler(testsupport.GetLogger(), true, &countingJob{name: "bad", spec: "every day"})

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
}

func TestDigestJobLogsOverview(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	clock := &testsupport.FixedClock{FixedTime: now}

	db := testsupport.SetupTestDB(t)
	testsupport.Insert(t, db, testsupport.NewAccount("alice", "2024-03-01T09:00:00Z"))
	testsupport.Insert(t, db,
		testsupport.NewInteraction("2024-03-15T08:00:00Z", testsupport.WithActor("alice"), testsupport.WithCategory("medical")),
		testsupport.NewInteraction("2024-03-14T08:00:00Z", testsupport.WithActor("alice"), testsupport.WithCategory("psychology")),
	)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := store.NewGormStore(db, logger, store.DefaultOptions())
	assembler := reports.NewAssembler(s, logger, reports.DefaultSettings(), clock)
	job := jobs.NewDigestJob(assembler, timeframe.NewRangeParser(30, clock), logger, "0 21 * * *")

	assert.Equal(t, jobs.DigestJobName, job.Name())
	assert.Equal(t, "0 21 * * *", job.Spec())
	require.NoError(t, job.Run(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `msg="Daily digest"`)
	assert.Contains(t, out, "date=2024-03-15")
	assert.Contains(t, out, "today_questions=1")
	assert.Contains(t, out, "total_questions=2")
	assert.Contains(t, out, "category_medical=1")
}
