package job_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/engagement-engine/internal/entitlement"
	"github.com/oggyb/engagement-engine/internal/job"
	"github.com/oggyb/engagement-engine/internal/logger"
)

type fakeRenewer struct {
	calls  atomic.Int32
	window time.Duration
	report entitlement.RenewalReport
	err    error
}

func (f *fakeRenewer) RenewDue(_ context.Context, window time.Duration) (entitlement.RenewalReport, error) {
	f.calls.Add(1)
	f.window = window
	return f.report, f.err
}

func TestRenewalJobPassesWindow(t *testing.T) {
	r := &fakeRenewer{report: entitlement.RenewalReport{Renewed: 2, Disabled: 1}}
	j := job.NewRenewalJob(r, 6*time.Hour, logger.Discard())

	report, err := j.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, r.window)
	assert.Equal(t, 2, report.Renewed)

	j.Run()
	assert.Equal(t, int32(2), r.calls.Load())
}

func TestRenewalJobReportsError(t *testing.T) {
	boom := errors.New("db down")
	j := job.NewRenewalJob(&fakeRenewer{err: boom}, time.Hour, logger.Discard())

	_, err := j.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestManagerRejectsBadSpec(t *testing.T) {
	m := job.NewManager(logger.Discard())
	j := job.NewRenewalJob(&fakeRenewer{}, time.Hour, logger.Discard())

	assert.Error(t, m.Register("every now and then", j))
	assert.NoError(t, m.Register("@hourly", j))
	assert.NoError(t, m.Register("*/5 * * * *", j))
}

func TestManagerRunStopsWithContext(t *testing.T) {
	m := job.NewManager(logger.Discard())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not stop")
	}
}
