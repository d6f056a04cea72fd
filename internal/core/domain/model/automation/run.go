package automation

import (
	"errors"
	"strings"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"
)

// ErrAlreadyRunning is returned when a live lease for the kind exists.
var ErrAlreadyRunning = errors.New("automation sweep is already running")

// RunStatus is the lifecycle of an AutomationRun.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// TriggerSource tells whether a sweep was started by cron or by an operator.
type TriggerSource string

const (
	TriggerScheduled TriggerSource = "scheduled"
	TriggerManual    TriggerSource = "manual"
)

// LeaseExpiredError is the error recorded on a run reclaimed after its lease expired.
const LeaseExpiredError = "lease expired"

// Run is the AutomationRun lease and ledger record. At most one Run per kind is
// running and unexpired at any time.
type Run struct {
	ID         kernel.UUID
	Kind       Kind
	Owner      string
	Trigger    TriggerSource
	Status     RunStatus
	StartedAt  time.Time
	ExpiresAt  time.Time
	FinishedAt *time.Time
	Summary    Summary
	Error      string
}

// NewRun opens a running lease for kind that expires after ttl.
func NewRun(kind Kind, owner string, trigger TriggerSource, now time.Time, ttl time.Duration) (Run, error) {
	if err := kind.Validate(); err != nil {
		return Run{}, err
	}
	if strings.TrimSpace(owner) == "" {
		return Run{}, errs.NewValueIsRequiredError("owner")
	}
	if trigger != TriggerScheduled && trigger != TriggerManual {
		return Run{}, errs.NewValueIsInvalidError("trigger")
	}
	if ttl <= 0 {
		return Run{}, errs.NewValueIsOutOfRangeError("lease ttl", ttl, "> 0", "unbounded")
	}
	return Run{
		ID:        kernel.NewUUID(),
		Kind:      kind,
		Owner:     owner,
		Trigger:   trigger,
		Status:    RunRunning,
		StartedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// IsLive reports whether the run still holds its lease at now.
func (r Run) IsLive(now time.Time) bool {
	return r.Status == RunRunning && now.Before(r.ExpiresAt)
}

// Complete closes the run successfully.
func (r Run) Complete(summary Summary, now time.Time) Run {
	r.Status = RunCompleted
	r.Summary = summary
	r.FinishedAt = &now
	return r
}

// Fail closes the run with an error message.
func (r Run) Fail(cause error, summary Summary, now time.Time) Run {
	r.Status = RunFailed
	r.Summary = summary
	r.FinishedAt = &now
	if cause != nil {
		r.Error = cause.Error()
	}
	return r
}

// Reclaim closes an expired lease so a new run can start.
func (r Run) Reclaim(now time.Time) Run {
	return r.Fail(errors.New(LeaseExpiredError), r.Summary, now)
}
