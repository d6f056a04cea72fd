package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary. Domain events of aggregates
// written through its repositories are published after a successful Commit.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	Rollback(ctx context.Context) error

	// ShipperRepository returns a repository bound to the current transaction.
	ShipperRepository() ShipperRepository

	// OrderRepository returns a repository bound to the current transaction.
	OrderRepository() OrderRepository
}
