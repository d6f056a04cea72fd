package queries

import (
	"context"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GetAvailableShippersQueryHandler struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewGetAvailableShippersQueryHandler(db *gorm.DB) GetAvailableShippersQueryHandler {
	return GetAvailableShippersQueryHandler{db: db}
}

// WithTimeout returns a copy of the handler that bounds each read by timeout.
func (h GetAvailableShippersQueryHandler) WithTimeout(timeout time.Duration) GetAvailableShippersQueryHandler {
	h.timeout = timeout
	return h
}

// Handle returns available shippers sorted by id.
func (h GetAvailableShippersQueryHandler) Handle(
	ctx context.Context,
	query GetAvailableShippersQuery,
) ([]GetAvailableShippersQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := requestContext(ctx, h.timeout)
	defer cancel()

	shippers := make([]GetAvailableShippersQueryResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			name,
			phone,
			location_lat,
			location_lng
		FROM shippers
		WHERE available = TRUE
		ORDER BY id
	`).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s        GetAvailableShippersQueryResponse
			id       uuid.UUID
			lat, lng float64
		)

		if err = rows.Scan(&id, &s.Name, &s.Phone, &lat, &lng); err != nil {
			return nil, err
		}

		if s.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if s.Location, err = kernel.NewLocation(lat, lng); err != nil {
			return nil, err
		}

		shippers = append(shippers, s)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return shippers, nil
}
