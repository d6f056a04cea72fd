// Package commands contains business operations that modify system state.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
package commands

import (
	"context"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// ShipperRepoFactory provides access to shipper repository within a transaction.
	ShipperRepoFactory interface {
		ShipperRepository() ports.ShipperRepository
	}

	// OrderUoW manages transactions for order-only operations.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// ShipperUoW manages transactions for shipper-only operations.
	ShipperUoW interface {
		TxManager
		ShipperRepoFactory
	}

	// ShipperUoWFactory creates new shipper unit of work instances.
	ShipperUoWFactory interface {
		Create() ShipperUoW
	}

	// UoW manages transactions across order and shipper aggregates. The shipper claim
	// and the order status change of an allocation always share one UoW.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   orderRepo := uow.OrderRepository()
	//   shipperRepo := uow.ShipperRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		ShipperRepoFactory
		OrderRepoFactory
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}

	// SettingsStore is the in-process holder of the current automation settings.
	SettingsStore interface {
		ports.SettingsProvider
		Replace(settings automation.Settings) error
	}
)
