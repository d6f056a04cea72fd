package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/services"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"

	"golang.org/x/sync/errgroup"
)

const (
	defaultStepTimeout = 5 * time.Second
	defaultBatchSize   = 500
)

// SweepOptions tunes a RunSweepCommandHandler.
type SweepOptions struct {
	// Owner identifies this process in the run ledger.
	Owner string
	// StepTimeout bounds every store interaction of one order step and the eligibility query.
	StepTimeout time.Duration
	// BatchSize caps how many eligible orders one sweep processes.
	BatchSize int
}

// RunSweepCommandHandler is the only code path that advances orders on time-based
// triggers.
//
// A sweep:
//  1. acquires the lease of its kind (automation.ErrAlreadyRunning is returned untouched)
//  2. takes one settings snapshot used for the whole sweep
//  3. queries eligible orders
//  4. processes each order in its own unit of work under StepTimeout
//  5. closes the lease as completed, or failed when the eligibility query failed
//
// A failure on one order is tallied in the summary and never stops the sweep.
type RunSweepCommandHandler struct {
	uowFactory UoWFactory
	ledger     ports.RunLedger
	settings   ports.SettingsProvider
	clock      ports.Clock
	assign     AssignShipperCommandHandler
	opts       SweepOptions
	logger     *slog.Logger
}

func NewRunSweepCommandHandler(
	uowFactory UoWFactory,
	ledger ports.RunLedger,
	settings ports.SettingsProvider,
	clock ports.Clock,
	logger *slog.Logger,
	opts SweepOptions,
) RunSweepCommandHandler {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = defaultStepTimeout
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Owner == "" {
		opts.Owner = "fooddelivery"
	}
	return RunSweepCommandHandler{
		uowFactory: uowFactory,
		ledger:     ledger,
		settings:   settings,
		clock:      clock,
		assign:     NewAssignShipperCommandHandler(uowFactory, clock),
		opts:       opts,
		logger:     logger.With("component", "sweep"),
	}
}

// Handle runs one sweep and returns its summary.
func (h RunSweepCommandHandler) Handle(ctx context.Context, cmd RunSweepCommand) (automation.Summary, error) {
	if err := cmd.Validate(); err != nil {
		return automation.Summary{}, err
	}

	// Once started a sweep runs to completion; the lease expiry bounds it.
	ctx = context.WithoutCancel(ctx)

	cfg := h.settings.Current()
	startedAt := h.clock.Now()
	run, err := automation.NewRun(cmd.Kind(), h.opts.Owner, cmd.Trigger(), startedAt, cfg.LeaseTTL(cmd.Kind()))
	if err != nil {
		return automation.Summary{}, err
	}

	acquireCtx, cancel := context.WithTimeout(ctx, h.opts.StepTimeout)
	err = h.ledger.Acquire(acquireCtx, run)
	cancel()
	if err != nil {
		return automation.Summary{}, storeTimeout(err)
	}

	log := h.logger.With("kind", cmd.Kind().String(), "run_id", run.ID.String(), "trigger", string(cmd.Trigger()))
	log.Info("sweep started", "settings_version", cfg.Version)

	summary, sweepErr := h.sweep(ctx, log, cmd.Kind(), cfg, startedAt)

	finishedAt := h.clock.Now()
	if !run.IsLive(finishedAt) {
		log.Warn("sweep outlived its lease", "expires_at", run.ExpiresAt, "finished_at", finishedAt)
	}
	if sweepErr != nil {
		run = run.Fail(sweepErr, summary, finishedAt)
		log.Error("sweep failed", "error", sweepErr)
	} else {
		run = run.Complete(summary, finishedAt)
		log.Info("sweep completed",
			"advanced", summary.Advanced,
			"conflict_skipped", summary.ConflictSkipped,
			"allocation_failed", summary.AllocationFailed,
			"transition_errors", summary.TransitionErrors,
			"flagged", summary.Flagged,
			"duration", finishedAt.Sub(startedAt),
		)
	}

	finishCtx, cancel := context.WithTimeout(ctx, h.opts.StepTimeout)
	defer cancel()
	if err := h.ledger.Finish(finishCtx, run); err != nil {
		log.Warn("failed to close automation run", "error", err)
	}

	return summary, sweepErr
}

// SweepResult is the outcome of one kind in HandleAll.
type SweepResult struct {
	Kind           automation.Kind
	Summary        automation.Summary
	AlreadyRunning bool
	Err            error
}

// HandleAll runs every kind in parallel. Kinds never block each other; a kind whose
// lease is held is reported as AlreadyRunning. The returned error is the first
// failure other than AlreadyRunning.
func (h RunSweepCommandHandler) HandleAll(ctx context.Context, trigger automation.TriggerSource) ([]SweepResult, error) {
	kinds := automation.AllKinds()
	results := make([]SweepResult, len(kinds))

	var g errgroup.Group
	for i, kind := range kinds {
		g.Go(func() error {
			cmd, err := NewRunSweepCommand(kind, trigger)
			if err != nil {
				results[i] = SweepResult{Kind: kind, Err: err}
				return err
			}
			summary, err := h.Handle(ctx, cmd)
			results[i] = SweepResult{Kind: kind, Summary: summary}
			switch {
			case errors.Is(err, automation.ErrAlreadyRunning):
				results[i].AlreadyRunning = true
			case err != nil:
				results[i].Err = err
				return fmt.Errorf("%s: %w", kind, err)
			}
			return nil
		})
	}

	return results, g.Wait()
}

func (h RunSweepCommandHandler) sweep(
	ctx context.Context,
	log *slog.Logger,
	kind automation.Kind,
	cfg automation.Settings,
	now time.Time,
) (automation.Summary, error) {
	var summary automation.Summary

	candidates, err := h.eligible(ctx, kind, cfg, now)
	if err != nil {
		return summary, fmt.Errorf("query eligible orders: %w", err)
	}
	log.Debug("eligible orders found", "count", len(candidates))

	for _, pre := range candidates {
		h.step(ctx, log.With("order_id", pre.ID.String()), kind, cfg, pre, &summary)
	}

	return summary, nil
}

func (h RunSweepCommandHandler) eligible(
	ctx context.Context,
	kind automation.Kind,
	cfg automation.Settings,
	now time.Time,
) ([]order.Precondition, error) {
	criteria := ports.EligibleCriteria{Limit: h.opts.BatchSize}
	switch kind {
	case automation.KindPrepToReady:
		before := now.Add(-cfg.PreparingToReady)
		criteria.Status = order.Preparing
		criteria.EnteredBefore = &before
	case automation.KindAssignShippers:
		criteria.Status = order.Ready
		criteria.WithoutShipper = true
	case automation.KindOverdueCheck:
		before := now.Add(-cfg.DeliveryTimeout)
		criteria.Status = order.OutForDelivery
		criteria.EnteredBefore = &before
		criteria.NotFlaggedOverdue = true
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.StepTimeout)
	defer cancel()

	orders, err := h.uowFactory.Create().OrderRepository().FindEligible(ctx, criteria)
	if err != nil {
		return nil, storeTimeout(err)
	}

	observed := make([]order.Precondition, 0, len(orders))
	for _, o := range orders {
		observed = append(observed, o.Precondition())
	}
	return observed, nil
}

func (h RunSweepCommandHandler) step(
	ctx context.Context,
	log *slog.Logger,
	kind automation.Kind,
	cfg automation.Settings,
	pre order.Precondition,
	summary *automation.Summary,
) {
	switch kind {
	case automation.KindPrepToReady:
		readyPre, err := h.advanceToReady(ctx, pre, cfg)
		if err != nil {
			h.tallyFailure(log, summary, pre.ID, err)
			return
		}
		summary.Advanced++
		log.Debug("order is ready")

		if _, err = h.allocate(ctx, readyPre); err != nil {
			h.tallyFailure(log, summary, pre.ID, err)
		}
	case automation.KindAssignShippers:
		assigned, err := h.allocate(ctx, pre)
		if err != nil {
			h.tallyFailure(log, summary, pre.ID, err)
			return
		}
		summary.Advanced++
		log.Debug("shipper assigned", "shipper_id", assigned.String())
	case automation.KindOverdueCheck:
		flagged, err := h.flagOverdue(ctx, pre, cfg)
		if err != nil {
			h.tallyFailure(log, summary, pre.ID, err)
			return
		}
		if flagged {
			summary.Flagged++
			log.Warn("delivery overdue", "limit", cfg.DeliveryTimeout)
		}
	}
}

func (h RunSweepCommandHandler) advanceToReady(
	ctx context.Context,
	pre order.Precondition,
	cfg automation.Settings,
) (order.Precondition, error) {
	ctx, cancel := context.WithTimeout(ctx, h.opts.StepTimeout)
	defer cancel()

	var next order.Precondition
	err := h.inUnitOfWork(ctx, func(repo ports.OrderRepository) error {
		o, err := h.observed(ctx, repo, pre)
		if err != nil {
			return err
		}
		err = o.Fire(order.Trigger{
			Event:            order.EventPrepTimeElapsed,
			At:               h.clock.Now(),
			PreparingToReady: cfg.PreparingToReady,
		})
		if err != nil {
			return err
		}
		if err = repo.Update(ctx, o, pre); err != nil {
			return err
		}
		next = o.Precondition()
		return nil
	})
	return next, storeTimeout(err)
}

func (h RunSweepCommandHandler) allocate(ctx context.Context, pre order.Precondition) (kernel.UUID, error) {
	ctx, cancel := context.WithTimeout(ctx, h.opts.StepTimeout)
	defer cancel()

	cmd, err := NewAssignShipperCommand(pre.ID, &pre)
	if err != nil {
		return kernel.UUID{}, err
	}
	s, err := h.assign.Handle(ctx, cmd)
	if err != nil {
		return kernel.UUID{}, storeTimeout(err)
	}
	return s.ID(), nil
}

func (h RunSweepCommandHandler) flagOverdue(
	ctx context.Context,
	pre order.Precondition,
	cfg automation.Settings,
) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, h.opts.StepTimeout)
	defer cancel()

	var flagged bool
	err := h.inUnitOfWork(ctx, func(repo ports.OrderRepository) error {
		o, err := h.observed(ctx, repo, pre)
		if err != nil {
			return err
		}
		if flagged, err = o.FlagOverdue(h.clock.Now(), cfg.DeliveryTimeout); err != nil || !flagged {
			return err
		}
		return repo.Update(ctx, o, pre)
	})
	if err != nil {
		return false, storeTimeout(err)
	}
	return flagged, nil
}

// observed re-reads the order and reports a conflict when it moved since the
// eligibility query saw it.
func (h RunSweepCommandHandler) observed(
	ctx context.Context,
	repo ports.OrderRepository,
	pre order.Precondition,
) (*order.Order, error) {
	o, err := repo.Get(ctx, pre.ID)
	if err != nil {
		return nil, err
	}
	if o.Precondition() != pre {
		return nil, errs.NewConflictError("order", pre.ID)
	}
	return o, nil
}

func (h RunSweepCommandHandler) inUnitOfWork(ctx context.Context, fn func(repo ports.OrderRepository) error) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := fn(uow.OrderRepository()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func (h RunSweepCommandHandler) tallyFailure(
	log *slog.Logger,
	summary *automation.Summary,
	orderID kernel.UUID,
	err error,
) {
	switch {
	case errors.Is(err, errs.ErrConflict):
		summary.ConflictSkipped++
		log.Info("order changed concurrently, skipped")
	case errors.Is(err, services.ErrNoShipperAvailable):
		summary.AllocationFailed++
		log.Info("no shipper available")
	case errors.Is(err, ErrAllocationConflict):
		summary.AllocationFailed++
		summary.AddError(orderID, err)
		log.Info("shipper claimed concurrently", "error", err)
	default:
		summary.TransitionErrors++
		summary.AddError(orderID, err)
		log.Warn("order step failed", "error", err)
	}
}

func storeTimeout(err error) error {
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrStoreTimeout) {
		return fmt.Errorf("%w: %w", ErrStoreTimeout, err)
	}
	return err
}
