package commands

import (
	"errors"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/pkg/errs"
	"fooddelivery/internal/pkg/guard"
)

var ErrUpdateSettingsCommandIsNotConstructed = errors.New(
	"UpdateSettingsCommand must be created via NewUpdateSettingsCommand constructor",
)

// UpdateSettingsCommand replaces the whole automation configuration. It only applies
// while the stored version still equals expectedVersion.
type UpdateSettingsCommand struct {
	settings        automation.Settings
	expectedVersion int64

	guard guard.ConstructorGuard
}

func NewUpdateSettingsCommand(settings automation.Settings, expectedVersion int64) (UpdateSettingsCommand, error) {
	if err := settings.Validate(); err != nil {
		return UpdateSettingsCommand{}, err
	}
	if expectedVersion < 0 {
		return UpdateSettingsCommand{}, errs.NewValueIsOutOfRangeError("expected version", expectedVersion, 0, "unbounded")
	}
	return UpdateSettingsCommand{
		settings:        settings,
		expectedVersion: expectedVersion,
		guard:           guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c UpdateSettingsCommand) Validate() error {
	return c.guard.Validate(ErrUpdateSettingsCommandIsNotConstructed)
}

func (c UpdateSettingsCommand) Settings() automation.Settings {
	return c.settings
}

func (c UpdateSettingsCommand) ExpectedVersion() int64 {
	return c.expectedVersion
}
