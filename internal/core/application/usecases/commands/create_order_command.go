package commands

import (
	"errors"
	"slices"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/pkg/errs"
	"fooddelivery/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand places a new pending order.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), "customer-1", items, delivery, order.PaymentCash)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//	o, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct {
	orderID    kernel.UUID
	customerID string
	items      []order.Item
	delivery   order.DeliveryInfo
	method     order.PaymentMethod

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the request shape. Domain rules on items and
// delivery info are checked again by order.NewOrder.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	customerID string,
	items []order.Item,
	delivery order.DeliveryInfo,
	method order.PaymentMethod,
) (CreateOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), method.Validate()); err != nil {
		return CreateOrderCommand{}, err
	}
	if customerID == "" {
		return CreateOrderCommand{}, errs.NewValueIsRequiredError("customer id")
	}
	if len(items) == 0 {
		return CreateOrderCommand{}, errs.NewValueIsRequiredError("items")
	}

	return CreateOrderCommand{
		orderID:    orderID,
		customerID: customerID,
		items:      slices.Clone(items),
		delivery:   delivery,
		method:     method,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) CustomerID() string {
	return c.customerID
}

func (c CreateOrderCommand) Items() []order.Item {
	return slices.Clone(c.items)
}

func (c CreateOrderCommand) Delivery() order.DeliveryInfo {
	return c.delivery
}

func (c CreateOrderCommand) PaymentMethod() order.PaymentMethod {
	return c.method
}
