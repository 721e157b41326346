// Package job holds the background jobs of the engine and the cron
// manager that schedules them.
package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/engagement-engine/internal/entitlement"
	"github.com/oggyb/engagement-engine/internal/logger"
)

// Renewer is the part of the entitlement resolver the renewal job drives.
type Renewer interface {
	RenewDue(ctx context.Context, window time.Duration) (entitlement.RenewalReport, error)
}

// RenewalJob charges and extends auto-renewing subscriptions that end
// within Window. It implements cron.Job.
type RenewalJob struct {
	renewer Renewer
	window  time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

func NewRenewalJob(renewer Renewer, window time.Duration, log *slog.Logger) *RenewalJob {
	return &RenewalJob{
		renewer: renewer,
		window:  window,
		timeout: 10 * time.Minute,
		logger:  log.With("job", "subscription_renewal"),
	}
}

func (j *RenewalJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	_, _ = j.RunOnce(ctx)
}

// RunOnce performs one renewal pass.
func (j *RenewalJob) RunOnce(ctx context.Context) (entitlement.RenewalReport, error) {
	start := time.Now()
	report, err := j.renewer.RenewDue(ctx, j.window)
	if err != nil {
		j.logger.Error("renewal pass failed", "err", err, "report", report, logger.Elapsed(start))
		return report, err
	}
	j.logger.Info("renewal pass done",
		"renewed", report.Renewed, "disabled", report.Disabled, "failed", report.Failed, logger.Elapsed(start))
	return report, nil
}
