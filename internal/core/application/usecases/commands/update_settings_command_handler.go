package commands

import (
	"context"
	"errors"
	"time"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"
)

// UpdateSettingsCommandHandler persists a new settings version and installs it in the
// running process. A stale expected version fails with *errs.ConflictError and leaves
// the stored settings untouched; the process then installs the latest stored version,
// which another replica saved, so the caller can retry against it.
type UpdateSettingsCommandHandler struct {
	repo    ports.SettingsRepository
	store   SettingsStore
	clock   ports.Clock
	timeout time.Duration
}

func NewUpdateSettingsCommandHandler(
	repo ports.SettingsRepository,
	store SettingsStore,
	clock ports.Clock,
) UpdateSettingsCommandHandler {
	return UpdateSettingsCommandHandler{repo: repo, store: store, clock: clock}
}

// WithTimeout returns a copy of the handler that bounds each call by timeout.
func (h UpdateSettingsCommandHandler) WithTimeout(timeout time.Duration) UpdateSettingsCommandHandler {
	h.timeout = timeout
	return h
}

func (h UpdateSettingsCommandHandler) Handle(ctx context.Context, cmd UpdateSettingsCommand) (automation.Settings, error) {
	if err := cmd.Validate(); err != nil {
		return automation.Settings{}, err
	}

	ctx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	saved, err := h.update(ctx, cmd)
	return saved, storeTimeout(err)
}

func (h UpdateSettingsCommandHandler) update(ctx context.Context, cmd UpdateSettingsCommand) (automation.Settings, error) {
	next := cmd.Settings()
	next.UpdatedAt = h.clock.Now()

	saved, err := h.repo.Save(ctx, next, cmd.ExpectedVersion())
	if errors.Is(err, errs.ErrConflict) {
		return automation.Settings{}, errors.Join(err, h.reload(ctx))
	}
	if err != nil {
		return automation.Settings{}, err
	}

	if err = h.store.Replace(saved); err != nil {
		return automation.Settings{}, err
	}
	return saved, nil
}

func (h UpdateSettingsCommandHandler) reload(ctx context.Context) error {
	latest, err := h.repo.Latest(ctx)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return h.store.Replace(latest)
}
