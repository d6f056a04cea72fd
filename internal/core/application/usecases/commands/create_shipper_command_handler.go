package commands

import (
	"context"
	"time"

	"fooddelivery/internal/core/domain/model/shipper"
)

// CreateShipperCommandHandler persists new shippers as available.
type CreateShipperCommandHandler struct {
	uowFactory ShipperUoWFactory
	timeout    time.Duration
}

func NewCreateShipperCommandHandler(uowFactory ShipperUoWFactory) CreateShipperCommandHandler {
	return CreateShipperCommandHandler{
		uowFactory: uowFactory,
	}
}

// WithTimeout returns a copy of the handler that bounds each call by timeout.
func (h CreateShipperCommandHandler) WithTimeout(timeout time.Duration) CreateShipperCommandHandler {
	h.timeout = timeout
	return h
}

// Handle creates the shipper and stores it within a transaction.
func (h CreateShipperCommandHandler) Handle(ctx context.Context, cmd CreateShipperCommand) (*shipper.Shipper, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	s, err := h.create(ctx, cmd)
	return s, storeTimeout(err)
}

func (h CreateShipperCommandHandler) create(ctx context.Context, cmd CreateShipperCommand) (*shipper.Shipper, error) {
	s, err := shipper.NewShipper(cmd.ShipperID(), cmd.Name(), cmd.Phone(), cmd.Location())
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

	if err = uow.ShipperRepository().Add(ctx, s); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return s, nil
}
