package ports

import (
	"context"

	"fooddelivery/internal/core/domain/model/automation"
)

// SettingsRepository persists versioned automation settings.
type SettingsRepository interface {
	// Latest returns the highest version. Returns *errs.ObjectNotFoundError when none was saved.
	Latest(ctx context.Context) (automation.Settings, error)

	// Save stores settings as version expectedVersion+1. Returns *errs.ConflictError when
	// the latest stored version is not expectedVersion.
	Save(ctx context.Context, settings automation.Settings, expectedVersion int64) (automation.Settings, error)
}

// SettingsProvider hands out the current settings snapshot.
type SettingsProvider interface {
	Current() automation.Settings
}
