package commands

import (
	"context"
	"time"

	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/ports"
)

// CreateOrderCommandHandler persists newly placed orders in pending status.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, clock)
//	o, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	clock      ports.Clock
	timeout    time.Duration
}

func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, clock ports.Clock) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// WithTimeout returns a copy of the handler that bounds each call by timeout.
func (h CreateOrderCommandHandler) WithTimeout(timeout time.Duration) CreateOrderCommandHandler {
	h.timeout = timeout
	return h
}

// Handle creates the order and stores it with its first history entry.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	o, err := h.create(ctx, cmd)
	return o, storeTimeout(err)
}

func (h CreateOrderCommandHandler) create(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	o, err := order.NewOrder(cmd.OrderID(), cmd.CustomerID(), cmd.Items(), cmd.Delivery(), cmd.PaymentMethod(), h.clock.Now())
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}
