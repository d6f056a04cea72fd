// Package jobs provides the scheduled automation sweeps of the order service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3. Each sweep
// kind gets its own AutomationJob:
//
// 1. prep-to-ready - advances orders that have been preparing long enough and tries to allocate a shipper
// 2. assign-shippers - allocates shippers to ready orders
// 3. overdue-check - flags orders out for delivery past the delivery timeout
//
// # Usage
//
// Jobs are managed through JobManager:
//
//	jobManager := jobs.NewJobManager(sweepHandler, settingsProvider, clock.System{}, location, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Every job runs at "@every <interval>" taken from the current automation settings and is
// rescheduled when the settings change. SettingsRefreshJob reloads the persisted settings
// at SETTINGS_REFRESH_INTERVAL, so a version saved on another replica reschedules the jobs
// here too. Ticks are skipped while the previous sweep of the same job is still running
// and outside the configured business hours.
//
// # Error Handling
//
// - automation.ErrAlreadyRunning means another replica holds the lease and is not an error
// - Any other sweep error is logged; the next tick tries again
// - Failed job starts will stop any already running jobs
package jobs
