package queries

import (
	"context"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetActiveOrdersQueryHandler reads active orders, longest waiting first.
type GetActiveOrdersQueryHandler struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGetActiveOrdersQueryHandler(db *gorm.DB) GetActiveOrdersQueryHandler {
	return GetActiveOrdersQueryHandler{db: db}
}

// WithTimeout returns a copy of the handler that bounds each read by timeout.
func (h GetActiveOrdersQueryHandler) WithTimeout(timeout time.Duration) GetActiveOrdersQueryHandler {
	h.timeout = timeout
	return h
}

func (h GetActiveOrdersQueryHandler) Handle(
	ctx context.Context,
	query GetActiveOrdersQuery,
) ([]GetActiveOrdersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	orders := make([]GetActiveOrdersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			customer_id,
			status,
			shipper_id,
			total_amount,
			delivery_address,
			status_changed_at,
			overdue_at
		FROM orders
		WHERE status NOT IN ?
		ORDER BY status_changed_at, id
	`, []string{order.Completed.String(), order.Cancelled.String()}).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o         GetActiveOrdersQueryResponse
			id        uuid.UUID
			shipperID *uuid.UUID
			status    string
			overdueAt *time.Time
		)

		err = rows.Scan(
			&id,
			&o.CustomerID,
			&status,
			&shipperID,
			&o.TotalAmount,
			&o.DeliveryAddress,
			&o.StatusChangedAt,
			&overdueAt,
		)
		if err != nil {
			return nil, err
		}

		if o.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if shipperID != nil {
			sID, idErr := kernel.UUIDFromBytes(shipperID[:])
			if idErr != nil {
				return nil, idErr
			}
			o.ShipperID = &sID
		}
		if o.Status, err = order.ParseStatus(status); err != nil {
			return nil, err
		}
		o.OverdueAt = overdueAt

		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
