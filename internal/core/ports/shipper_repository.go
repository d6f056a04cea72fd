package ports

import (
	"context"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/shipper"
)

// ShipperRepository is the shipper directory.
type ShipperRepository interface {
	// Add registers a new shipper.
	Add(ctx context.Context, s *shipper.Shipper) error

	// Get retrieves a shipper by id.
	Get(ctx context.Context, id kernel.UUID) (*shipper.Shipper, error)

	// GetAllAvailable returns available shippers ordered by id ascending.
	GetAllAvailable(ctx context.Context) ([]*shipper.Shipper, error)

	// Claim marks the shipper unavailable and holding orderID, only if the stored row
	// is still available. Returns shipper.ErrAlreadyClaimed when another claim won.
	Claim(ctx context.Context, shipperID, orderID kernel.UUID) error

	// Release returns the shipper to the pool, only if the stored row holds orderID.
	// Returns shipper.ErrNotHoldingOrder otherwise.
	Release(ctx context.Context, shipperID, orderID kernel.UUID) error
}
