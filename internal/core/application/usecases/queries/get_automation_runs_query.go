package queries

import (
	"context"
	"errors"
	"time"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/pkg/errs"
	"fooddelivery/internal/pkg/guard"
)

const (
	DefaultRunsLimit = 20
	MaxRunsLimit     = 200
)

var ErrGetAutomationRunsQueryIsNotConstructed = errors.New(
	"GetAutomationRunsQuery must be created via NewGetAutomationRunsQuery constructor",
)

// GetAutomationRunsQuery lists recent automation runs. An empty kind lists all kinds.
type GetAutomationRunsQuery struct {
	kind  automation.Kind
	limit int

	guard guard.ConstructorGuard
}

// NewGetAutomationRunsQuery validates kind (empty allowed) and limit (zero means the default).
func NewGetAutomationRunsQuery(kind automation.Kind, limit int) (GetAutomationRunsQuery, error) {
	if kind != "" {
		if err := kind.Validate(); err != nil {
			return GetAutomationRunsQuery{}, err
		}
	}
	if limit == 0 {
		limit = DefaultRunsLimit
	}
	if limit < 0 || limit > MaxRunsLimit {
		return GetAutomationRunsQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxRunsLimit)
	}
	return GetAutomationRunsQuery{kind: kind, limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q GetAutomationRunsQuery) Validate() error {
	return q.guard.Validate(ErrGetAutomationRunsQueryIsNotConstructed)
}

func (q GetAutomationRunsQuery) Kind() automation.Kind {
	return q.kind
}

func (q GetAutomationRunsQuery) Limit() int {
	return q.limit
}

// GetAutomationRunsQueryHandler reads the run ledger, whichever backend serves it.
type GetAutomationRunsQueryHandler struct {
	ledger  ports.RunLedger
	timeout time.Duration
}

func NewGetAutomationRunsQueryHandler(ledger ports.RunLedger) GetAutomationRunsQueryHandler {
	return GetAutomationRunsQueryHandler{ledger: ledger}
}

// WithTimeout returns a copy of the handler that bounds each read by timeout.
func (h GetAutomationRunsQueryHandler) WithTimeout(timeout time.Duration) GetAutomationRunsQueryHandler {
	h.timeout = timeout
	return h
}

// Handle returns runs newest first.
func (h GetAutomationRunsQueryHandler) Handle(ctx context.Context, query GetAutomationRunsQuery) ([]automation.Run, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := requestContext(ctx, h.timeout)
	defer cancel()
	runs, err := h.ledger.ListRecent(ctx, query.Kind(), query.Limit())
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = make([]automation.Run, 0)
	}
	return runs, nil
}
