package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine *cron.Cron
	logger *slog.Logger
}

func NewManager(log *slog.Logger) *Manager {
	cl := cronLogger{log: log.With("component", "cron")}
	return &Manager{
		engine: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: log,
	}
}

// Register schedules j on spec (standard five-field cron or a descriptor
// such as "@hourly").
func (m *Manager) Register(spec string, j cron.Job) error {
	if _, err := m.engine.AddJob(spec, j); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	return nil
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits for
// running jobs to finish.
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Info("cron scheduler started", "entries", len(m.engine.Entries()))
	m.engine.Start()
	<-ctx.Done()
	<-m.engine.Stop().Done()
	m.logger.Info("cron scheduler stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "err", err)...)
}
