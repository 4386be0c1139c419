package cron

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novatech/management-backend/pkg/logger"
	"github.com/novatech/management-backend/pkg/metrics"
)

type fakeLock struct {
	acquired bool
	busy     bool
	releases int
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	if f.busy || f.acquired {
		return false, nil
	}
	f.acquired = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.acquired = false
	f.releases++
	return nil
}

type testJob struct {
	name string
	err  error
	runs atomic.Int32
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs.Add(1)
	return t.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard})
}

func TestNewServiceValidatesParams(t *testing.T) {
	_, err := NewService(ServiceParams{Lock: &fakeLock{}})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Logger: testLogger()})
	assert.Error(t, err)

	_, err = NewService(ServiceParams{Logger: testLogger(), Lock: &fakeLock{}, Schedule: "every tuesday"})
	assert.Error(t, err)

	svc, err := NewService(ServiceParams{Logger: testLogger(), Lock: &fakeLock{}})
	require.NoError(t, err)
	assert.Equal(t, defaultSchedule, svc.expr)
}

func TestServiceRunCycleRunsAllJobsEvenOnFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	ok := &testJob{name: "success"}
	bad := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(ok, bad),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	require.NoError(t, svc.runCycle(context.Background()))
	assert.Equal(t, int32(1), ok.runs.Load())
	assert.Equal(t, int32(1), bad.runs.Load())
	assert.Equal(t, 1, lock.releases)

	count, err := testutil.GatherAndCount(reg, "novatech_cron_job_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "one success series and one failure series")
}

type slowJob struct{ deadlineSeen bool }

func (j *slowJob) Name() string { return "slow" }

func (j *slowJob) Run(ctx context.Context) error {
	_, j.deadlineSeen = ctx.Deadline()
	<-ctx.Done()
	return ctx.Err()
}

func TestServiceJobTimeoutBoundsEachRun(t *testing.T) {
	job := &slowJob{}
	svc, err := NewService(ServiceParams{
		Logger:     testLogger(),
		Registry:   NewRegistry(job),
		Lock:       &fakeLock{},
		JobTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	err = svc.runJob(context.Background(), job)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, job.deadlineSeen)

	_, err = NewService(ServiceParams{Logger: testLogger(), Lock: &fakeLock{}, JobTimeout: -time.Second})
	assert.Error(t, err)
}

func TestServiceRunCycleSkipsWhenLockHeld(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := &testJob{name: "j"}
	svc, err := NewService(ServiceParams{
		Logger:   testLogger(),
		Registry: NewRegistry(job),
		Lock:     &fakeLock{busy: true},
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	require.NoError(t, err)

	require.NoError(t, svc.runCycle(context.Background()))
	assert.Zero(t, job.runs.Load())

	expected := `
# HELP novatech_cron_cycles_skipped_total Cycles skipped because another instance held the lock.
# TYPE novatech_cron_cycles_skipped_total counter
novatech_cron_cycles_skipped_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "novatech_cron_cycles_skipped_total"))
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "j"}
	svc, err := NewService(ServiceParams{Logger: testLogger(), Registry: NewRegistry(job), Lock: &fakeLock{}, Schedule: "@every 1h"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type fakeMarker struct {
	n   int64
	err error
	at  time.Time
}

func (f *fakeMarker) MarkOverdue(_ context.Context, now time.Time) (int64, error) {
	f.at = now
	return f.n, f.err
}

func TestOverdueInvoiceJob(t *testing.T) {
	marker := &fakeMarker{n: 3}
	job, err := NewOverdueInvoiceJob(marker, testLogger())
	require.NoError(t, err)
	fixed := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return fixed }

	assert.Equal(t, "invoices.mark_overdue", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, fixed, marker.at)

	marker.err = errors.New("db down")
	assert.Error(t, job.Run(context.Background()))

	_, err = NewOverdueInvoiceJob(nil, testLogger())
	assert.Error(t, err)
}
