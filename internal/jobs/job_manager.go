package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/ports"
)

// SettingsSource is the settings provider the manager reschedules from.
type SettingsSource interface {
	ports.SettingsProvider
	Subscribe(fn func(automation.Settings))
}

// JobManager coordinates one AutomationJob per sweep kind and the optional settings refresh.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	jobs    []*AutomationJob
	refresh *SettingsRefreshJob
	logger  *slog.Logger
}

// NewJobManager creates a job per kind and subscribes them to settings changes.
func NewJobManager(
	runner SweepRunner,
	settings SettingsSource,
	clock ports.Clock,
	location *time.Location,
	logger *slog.Logger,
) *JobManager {
	jm := &JobManager{logger: logger.With("component", "job_manager")}
	for _, kind := range automation.AllKinds() {
		jm.jobs = append(jm.jobs, NewAutomationJob(kind, runner, settings, clock, location, logger))
	}

	settings.Subscribe(jm.reschedule)
	return jm
}

// Jobs returns the managed jobs in kind order.
func (jm *JobManager) Jobs() []*AutomationJob {
	return jm.jobs
}

// WithSettingsRefresh makes the manager start and stop job together with the sweeps.
func (jm *JobManager) WithSettingsRefresh(job *SettingsRefreshJob) *JobManager {
	jm.refresh = job
	return jm
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start; jobs already started are stopped.
func (jm *JobManager) StartAll() error {
	if jm.refresh != nil {
		if err := jm.refresh.Start(); err != nil {
			return fmt.Errorf("failed to start settings refresh job: %w", err)
		}
	}
	for i, job := range jm.jobs {
		if err := job.Start(); err != nil {
			for _, started := range jm.jobs[:i] {
				started.Stop()
			}
			if jm.refresh != nil {
				jm.refresh.Stop()
			}
			return fmt.Errorf("failed to start %s job: %w", job.kind, err)
		}
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	if jm.refresh != nil {
		jm.refresh.Stop()
	}
	for _, job := range jm.jobs {
		job.Stop()
	}
}

func (jm *JobManager) reschedule(s automation.Settings) {
	for _, job := range jm.jobs {
		if err := job.Reschedule(s); err != nil {
			jm.logger.Error("Failed to reschedule job", "kind", job.kind.String(), "error", err)
		}
	}
}
