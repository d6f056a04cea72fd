package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/ports"

	"github.com/robfig/cron/v3"
)

// SweepRunner executes one sweep. commands.RunSweepCommandHandler implements it.
type SweepRunner interface {
	Handle(ctx context.Context, cmd commands.RunSweepCommand) (automation.Summary, error)
}

// AutomationJob schedules the sweep of one kind at the interval from the current settings.
// Ticks that find the previous sweep still running are skipped, and ticks outside business
// hours do nothing.
type AutomationJob struct {
	kind     automation.Kind
	runner   SweepRunner
	settings ports.SettingsProvider
	clock    ports.Clock
	location *time.Location
	cron     *cron.Cron
	logger   *slog.Logger

	mu       sync.Mutex
	entryID  cron.EntryID
	interval time.Duration
}

// NewAutomationJob creates a job for kind. Business hours are evaluated in location.
func NewAutomationJob(
	kind automation.Kind,
	runner SweepRunner,
	settings ports.SettingsProvider,
	clock ports.Clock,
	location *time.Location,
	logger *slog.Logger,
) *AutomationJob {
	logger = logger.With("component", "automation_job", "kind", kind.String())
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelWarn))
	if location == nil {
		location = time.UTC
	}

	return &AutomationJob{
		kind:     kind,
		runner:   runner,
		settings: settings,
		clock:    clock,
		location: location,
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		logger: logger,
	}
}

// Start schedules the job at the current interval and starts its cron.
func (j *AutomationJob) Start() error {
	if err := j.schedule(j.settings.Current().Interval(j.kind)); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("Automation job started", "interval", j.Interval().String())
	return nil
}

// Stop stops the cron and waits for a running sweep to return.
func (j *AutomationJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("Automation job stopped")
}

// Reschedule moves the job to the interval configured in s. It is a no-op when the
// interval did not change.
func (j *AutomationJob) Reschedule(s automation.Settings) error {
	interval := s.Interval(j.kind)
	if interval == j.Interval() {
		return nil
	}
	if err := j.schedule(interval); err != nil {
		return err
	}
	j.logger.Info("Automation job rescheduled", "interval", interval.String(), "settings_version", s.Version)
	return nil
}

// Interval returns the interval the job is scheduled at, or zero before Start.
func (j *AutomationJob) Interval() time.Duration {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.interval
}

func (j *AutomationJob) schedule(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for %s", interval, j.kind)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	id, err := j.cron.AddJob(fmt.Sprintf("@every %s", interval), j)
	if err != nil {
		return err
	}
	if j.entryID != 0 {
		j.cron.Remove(j.entryID)
	}
	j.entryID = id
	j.interval = interval
	return nil
}

// Run is called by cron on every tick.
func (j *AutomationJob) Run() {
	ctx := context.Background()

	now := j.clock.Now().In(j.location)
	if !j.settings.Current().BusinessHours.Contains(now) {
		j.logger.DebugContext(ctx, "Outside business hours, sweep skipped", "now", now.Format(time.TimeOnly))
		return
	}

	cmd, err := commands.NewRunSweepCommand(j.kind, automation.TriggerScheduled)
	if err != nil {
		j.logger.ErrorContext(ctx, "Invalid sweep command", "error", err)
		return
	}

	summary, err := j.runner.Handle(ctx, cmd)
	switch {
	case errors.Is(err, automation.ErrAlreadyRunning):
		j.logger.DebugContext(ctx, "Sweep already running elsewhere")
	case err != nil:
		j.logger.ErrorContext(ctx, "Sweep failed", "error", err)
	default:
		j.logger.InfoContext(ctx, "Sweep finished",
			"advanced", summary.Advanced,
			"conflict_skipped", summary.ConflictSkipped,
			"allocation_failed", summary.AllocationFailed,
			"transition_errors", summary.TransitionErrors,
			"flagged", summary.Flagged,
		)
	}
}
