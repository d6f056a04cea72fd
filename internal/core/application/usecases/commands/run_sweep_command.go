package commands

import (
	"errors"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/pkg/errs"
	"fooddelivery/internal/pkg/guard"
)

var ErrRunSweepCommandIsNotConstructed = errors.New(
	"RunSweepCommand must be created via NewRunSweepCommand constructor",
)

// RunSweepCommand starts one sweep of the automation scheduler. Cron jobs, the manual
// trigger endpoint and the CLI all send this command.
//
// Example:
//
//	cmd, _ := NewRunSweepCommand(automation.KindPrepToReady, automation.TriggerManual)
//	summary, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, automation.ErrAlreadyRunning) {
//	    // another instance holds the lease
//	}
type RunSweepCommand struct {
	kind    automation.Kind
	trigger automation.TriggerSource

	guard guard.ConstructorGuard
}

func NewRunSweepCommand(kind automation.Kind, trigger automation.TriggerSource) (RunSweepCommand, error) {
	if err := kind.Validate(); err != nil {
		return RunSweepCommand{}, err
	}
	if trigger != automation.TriggerScheduled && trigger != automation.TriggerManual {
		return RunSweepCommand{}, errs.NewValueIsInvalidError("trigger")
	}
	return RunSweepCommand{
		kind:    kind,
		trigger: trigger,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c RunSweepCommand) Validate() error {
	return c.guard.Validate(ErrRunSweepCommandIsNotConstructed)
}

func (c RunSweepCommand) Kind() automation.Kind {
	return c.kind
}

func (c RunSweepCommand) Trigger() automation.TriggerSource {
	return c.trigger
}
