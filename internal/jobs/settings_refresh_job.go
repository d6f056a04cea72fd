package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fooddelivery/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// SettingsLoader installs the latest persisted settings. *settings.Provider implements it.
type SettingsLoader interface {
	Load(ctx context.Context, repo ports.SettingsRepository) error
}

// SettingsRefreshJob reloads the automation settings from the repository at a fixed
// interval, so versions saved through another replica reach this process. A newer version
// notifies the provider's subscribers, which reschedules the automation jobs.
type SettingsRefreshJob struct {
	loader   SettingsLoader
	repo     ports.SettingsRepository
	interval time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewSettingsRefreshJob creates the job. Each reload is bounded by timeout.
func NewSettingsRefreshJob(
	loader SettingsLoader,
	repo ports.SettingsRepository,
	interval time.Duration,
	timeout time.Duration,
	logger *slog.Logger,
) *SettingsRefreshJob {
	logger = logger.With("component", "settings_refresh_job")
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))

	return &SettingsRefreshJob{
		loader:   loader,
		repo:     repo,
		interval: interval,
		timeout:  timeout,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
	}
}

// Start schedules the reload and starts its cron.
func (j *SettingsRefreshJob) Start() error {
	if j.interval <= 0 {
		return fmt.Errorf("invalid settings refresh interval %s", j.interval)
	}
	if _, err := j.cron.AddJob(fmt.Sprintf("@every %s", j.interval), j); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("Settings refresh job started", "interval", j.interval.String())
	return nil
}

// Stop stops the cron and waits for a running reload to return.
func (j *SettingsRefreshJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Settings refresh job stopped")
}

// Run is called by cron on every tick.
func (j *SettingsRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if err := j.loader.Load(ctx, j.repo); err != nil {
		j.logger.ErrorContext(ctx, "Failed to reload automation settings", "error", err)
	}
}
