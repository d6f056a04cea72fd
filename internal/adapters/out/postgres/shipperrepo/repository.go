package shipperrepo

import (
	"context"
	"errors"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/shipper"
	"fooddelivery/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormShipperRepository implements ShipperRepository using GORM.
type GormShipperRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormShipperRepository(db *gorm.DB, tracker aggregateTracker) *GormShipperRepository {
	return &GormShipperRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add registers a new shipper.
func (r *GormShipperRepository) Add(ctx context.Context, aggregate *shipper.Shipper) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a shipper by ID.
func (r *GormShipperRepository) Get(ctx context.Context, id kernel.UUID) (*shipper.Shipper, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto ShipperDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("shipper", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAllAvailable returns available shippers ordered by id.
func (r *GormShipperRepository) GetAllAvailable(ctx context.Context) ([]*shipper.Shipper, error) {
	var dtos []ShipperDTO
	if err := r.db.WithContext(ctx).Where("available = ?", true).Order("id").Find(&dtos).Error; err != nil {
		return nil, err
	}

	shippers := make([]*shipper.Shipper, 0, len(dtos))
	for _, dto := range dtos {
		s, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		shippers = append(shippers, s)
	}

	return shippers, nil
}

// Claim takes the shipper for orderID only while the stored row is still available.
func (r *GormShipperRepository) Claim(ctx context.Context, shipperID, orderID kernel.UUID) error {
	if err := errors.Join(shipperID.Validate(), orderID.Validate()); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&ShipperDTO{}).
		Where("id = ? AND available = ?", shipperID.Bytes(), true).
		Updates(map[string]any{"available": false, "current_order_id": orderID.Bytes()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if err := r.exists(ctx, shipperID); err != nil {
			return err
		}
		return shipper.ErrAlreadyClaimed
	}
	return nil
}

// Release returns the shipper to the pool only while the stored row holds orderID.
func (r *GormShipperRepository) Release(ctx context.Context, shipperID, orderID kernel.UUID) error {
	if err := errors.Join(shipperID.Validate(), orderID.Validate()); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&ShipperDTO{}).
		Where("id = ? AND current_order_id = ?", shipperID.Bytes(), orderID.Bytes()).
		Updates(map[string]any{"available": true, "current_order_id": nil})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if err := r.exists(ctx, shipperID); err != nil {
			return err
		}
		return shipper.ErrNotHoldingOrder
	}
	return nil
}

func (r *GormShipperRepository) exists(ctx context.Context, id kernel.UUID) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ShipperDTO{}).Where("id = ?", id.Bytes()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("shipper", id.String())
	}
	return nil
}
