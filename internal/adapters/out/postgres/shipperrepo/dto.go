// Package shipperrepo persists the shipper directory. Claims and releases are
// conditional updates so two allocations can never take the same shipper.
package shipperrepo

import (
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/shipper"

	"github.com/google/uuid"
)

// ShipperDTO represents the database structure for persisting shippers.
type ShipperDTO struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name           string      `gorm:"type:varchar(255);not null"`
	Phone          string      `gorm:"type:varchar(32);not null"`
	Location       LocationDTO `gorm:"embedded;embeddedPrefix:location_"`
	Available      bool        `gorm:"not null;index"`
	CurrentOrderID *uuid.UUID  `gorm:"type:uuid;uniqueIndex"`
}

func (ShipperDTO) TableName() string {
	return "shippers"
}

// LocationDTO is the shipper's last known position.
type LocationDTO struct {
	Lat float64 `gorm:"not null"`
	Lng float64 `gorm:"not null"`
}

func fromDomain(s *shipper.Shipper) ShipperDTO {
	var orderID *uuid.UUID
	if id := s.CurrentOrder(); id != nil {
		raw := id.Bytes()
		orderID = &raw
	}

	return ShipperDTO{
		ID:    s.ID().Bytes(),
		Name:  s.Name(),
		Phone: s.Phone(),
		Location: LocationDTO{
			Lat: s.Location().Lat(),
			Lng: s.Location().Lng(),
		},
		Available:      s.Available(),
		CurrentOrderID: orderID,
	}
}

func toDomain(dto ShipperDTO) (*shipper.Shipper, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var orderID *kernel.UUID
	if dto.CurrentOrderID != nil {
		oID, orderErr := kernel.UUIDFromBytes((*dto.CurrentOrderID)[:])
		if orderErr != nil {
			return nil, orderErr
		}
		orderID = &oID
	}

	loc, err := kernel.NewLocation(dto.Location.Lat, dto.Location.Lng)
	if err != nil {
		return nil, err
	}

	return shipper.RestoreShipper(id, dto.Name, dto.Phone, loc, dto.Available, orderID)
}
