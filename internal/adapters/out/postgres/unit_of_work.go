// Package postgres provides the GORM-based Unit of Work shared by the order and
// shipper repositories.
//
// A unit of work wraps one database transaction. Repositories obtained after Begin run
// inside it; repositories obtained before Begin run on the plain connection, which is
// how read-only eligibility queries are served. Aggregates written through the
// repositories are tracked, and their domain events are handed to the EventPublisher
// once Commit succeeds. A rolled back unit of work publishes nothing.
//
// Usage:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() {
//	    _ = uow.Rollback(ctx)
//	}()
//
//	// The shipper claim and the order change share the transaction.
//	if err := uow.ShipperRepository().Claim(ctx, shipperID, orderID); err != nil {
//	    return err
//	}
//	if err := uow.OrderRepository().Update(ctx, o, pre); err != nil {
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Concurrency:
//   - Each UnitOfWork instance is used by one goroutine
//   - Conflicting writes are detected by conditional updates, not by locks held across calls
package postgres

import (
	"context"
	"log/slog"

	"fooddelivery/internal/adapters/out/postgres/orderrepo"
	"fooddelivery/internal/adapters/out/postgres/shipperrepo"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/ports"

	"gorm.io/gorm"
)

// trackedAggregate is an aggregate modified during the unit of work.
type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate any
}

// eventSource is an aggregate that records domain events.
type eventSource interface {
	DomainEvents() []order.DomainEvent
	ClearDomainEvents()
}

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one connection pool.
type GormUnitOfWorkFactory struct {
	db        *gorm.DB
	publisher ports.EventPublisher
	logger    *slog.Logger
}

// NewGormUnitOfWorkFactory creates a factory. publisher may be nil, in which case
// domain events are dropped after commit.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
//	if err != nil {
//	    log.Fatal("failed to connect database")
//	}
//	factory := NewGormUnitOfWorkFactory(db, publisher, slog.Default())
func NewGormUnitOfWorkFactory(db *gorm.DB, publisher ports.EventPublisher, logger *slog.Logger) *GormUnitOfWorkFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &GormUnitOfWorkFactory{
		db:        db,
		publisher: publisher,
		logger:    logger.With("component", "unit_of_work"),
	}
}

// Create produces a new UnitOfWork with its own transaction state and tracking.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		publisher:         f.publisher,
		logger:            f.logger,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates one database transaction and tracks the aggregates
// written in it.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	publisher         ports.EventPublisher
	logger            *slog.Logger
	trackedAggregates []trackedAggregate
}

// Begin starts the transaction. Calling Begin again while a transaction is open is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	uow.trackedAggregates = uow.trackedAggregates[:0]
	return nil
}

// Commit finalizes the transaction and publishes the domain events of every tracked
// aggregate. A publish failure is logged; the committed state is not affected.
//
// Returns gorm.ErrInvalidTransaction when no transaction is open.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		uow.trackedAggregates = uow.trackedAggregates[:0]
		return err
	}

	uow.publishTracked(ctx)
	return nil
}

// Rollback discards the transaction and forgets tracked aggregates.
//
// Returns gorm.ErrInvalidTransaction when no transaction is open, which is the case
// after a successful Commit.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

// ShipperRepository returns a shipper repository bound to the open transaction, or
// to the plain connection when none is open.
func (uow *GormUnitOfWork) ShipperRepository() ports.ShipperRepository {
	return shipperrepo.NewGormShipperRepository(uow.conn(), uow)
}

// OrderRepository returns an order repository bound to the open transaction, or to
// the plain connection when none is open.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

// TrackAggregate registers an aggregate as modified within this unit of work.
// Repositories call it after every successful write.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate any) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

func (uow *GormUnitOfWork) publishTracked(ctx context.Context) {
	tracked := uow.trackedAggregates
	uow.trackedAggregates = make([]trackedAggregate, 0)

	for _, t := range tracked {
		src, ok := t.Aggregate.(eventSource)
		if !ok {
			continue
		}
		events := src.DomainEvents()
		if len(events) == 0 {
			continue
		}
		src.ClearDomainEvents()
		if uow.publisher == nil {
			continue
		}
		if err := uow.publisher.Publish(ctx, events...); err != nil {
			uow.logger.Error("failed to publish domain events",
				"aggregate_id", t.ID.String(),
				"events", len(events),
				"error", err,
			)
		}
	}
}
