// Package orderrepo persists order aggregates. The order row carries the current state;
// the status history lives in its own append-only table.
package orderrepo

import (
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the orders table. Status, shipper and status_changed_at are indexed for
// the sweep eligibility queries.
type OrderDTO struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey"`
	CustomerID      string      `gorm:"not null"`
	Items           []ItemDTO   `gorm:"serializer:json;type:jsonb;not null"`
	TotalAmount     int64       `gorm:"not null"`
	Delivery        DeliveryDTO `gorm:"embedded;embeddedPrefix:delivery_"`
	PaymentMethod   string      `gorm:"not null"`
	PaymentStatus   string      `gorm:"not null"`
	Status          string      `gorm:"not null;index:idx_orders_status_changed,priority:1"`
	StatusChangedAt time.Time   `gorm:"not null;index:idx_orders_status_changed,priority:2"`
	ShipperID       *uuid.UUID  `gorm:"type:uuid;index"`
	CreatedAt       time.Time   `gorm:"autoCreateTime:false"`
	UpdatedAt       time.Time   `gorm:"autoUpdateTime:false"`
	AssignedAt      *time.Time
	PickedUpAt      *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    string
	OverdueAt       *time.Time
	Version         int64        `gorm:"not null"`
	History         []HistoryDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// ItemDTO is one order line inside the items JSON column.
type ItemDTO struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// DeliveryDTO is embedded into the orders table.
type DeliveryDTO struct {
	Address string
	Phone   string
	Lat     *float64
	Lng     *float64
}

// HistoryDTO is one row of order_status_history. Rows are only ever inserted.
type HistoryDTO struct {
	OrderID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq     int       `gorm:"primaryKey;autoIncrement:false"`
	Status  string    `gorm:"not null"`
	At      time.Time `gorm:"not null"`
	Note    string
}

func (HistoryDTO) TableName() string {
	return "order_status_history"
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	items := make([]ItemDTO, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, ItemDTO{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	delivery := DeliveryDTO{Address: s.Delivery.Address, Phone: s.Delivery.Phone}
	if loc := s.Delivery.Location; loc != nil {
		lat, lng := loc.Lat(), loc.Lng()
		delivery.Lat, delivery.Lng = &lat, &lng
	}

	history := make([]HistoryDTO, 0, len(s.History))
	for i, h := range s.History {
		history = append(history, HistoryDTO{
			OrderID: s.ID.Bytes(),
			Seq:     i,
			Status:  h.Status.String(),
			At:      h.At,
			Note:    h.Note,
		})
	}

	return OrderDTO{
		ID:              s.ID.Bytes(),
		CustomerID:      s.CustomerID,
		Items:           items,
		TotalAmount:     s.TotalAmount,
		Delivery:        delivery,
		PaymentMethod:   string(s.Payment.Method),
		PaymentStatus:   string(s.Payment.Status),
		Status:          s.Status.String(),
		StatusChangedAt: o.StatusChangedAt(),
		ShipperID:       toRaw(s.ShipperID),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		AssignedAt:      s.AssignedAt,
		PickedUpAt:      s.PickedUpAt,
		DeliveredAt:     s.DeliveredAt,
		CancelledAt:     s.CancelledAt,
		CancelReason:    s.CancelReason,
		OverdueAt:       s.OverdueAt,
		Version:         s.Version,
		History:         history,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var shipperID *kernel.UUID
	if dto.ShipperID != nil {
		sID, shipperErr := kernel.UUIDFromBytes((*dto.ShipperID)[:])
		if shipperErr != nil {
			return nil, shipperErr
		}
		shipperID = &sID
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, order.Item{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}

	delivery := order.DeliveryInfo{Address: dto.Delivery.Address, Phone: dto.Delivery.Phone}
	if dto.Delivery.Lat != nil && dto.Delivery.Lng != nil {
		loc, locErr := kernel.NewLocation(*dto.Delivery.Lat, *dto.Delivery.Lng)
		if locErr != nil {
			return nil, locErr
		}
		delivery.Location = &loc
	}

	history := make([]order.HistoryEntry, 0, len(dto.History))
	for _, h := range dto.History {
		hs, statusErr := order.ParseStatus(h.Status)
		if statusErr != nil {
			return nil, statusErr
		}
		history = append(history, order.HistoryEntry{Status: hs, At: h.At, Note: h.Note})
	}

	return order.RestoreOrder(order.Snapshot{
		ID:          id,
		CustomerID:  dto.CustomerID,
		Items:       items,
		TotalAmount: dto.TotalAmount,
		Delivery:    delivery,
		Payment: order.Payment{
			Method: order.PaymentMethod(dto.PaymentMethod),
			Status: order.PaymentStatus(dto.PaymentStatus),
		},
		Status:       status,
		History:      history,
		ShipperID:    shipperID,
		CreatedAt:    dto.CreatedAt,
		UpdatedAt:    dto.UpdatedAt,
		AssignedAt:   dto.AssignedAt,
		PickedUpAt:   dto.PickedUpAt,
		DeliveredAt:  dto.DeliveredAt,
		CancelledAt:  dto.CancelledAt,
		CancelReason: dto.CancelReason,
		OverdueAt:    dto.OverdueAt,
		Version:      dto.Version,
	})
}

func toRaw(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}
