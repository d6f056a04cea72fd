package runrepo

import (
	"context"
	"errors"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

// GormRunLedger implements ports.RunLedger on Postgres.
type GormRunLedger struct {
	db *gorm.DB
}

func NewGormRunLedger(db *gorm.DB) *GormRunLedger {
	return &GormRunLedger{db: db}
}

// Acquire closes expired leases of the kind and inserts run. The partial unique index
// rejects the insert while another running row exists.
func (l *GormRunLedger) Acquire(ctx context.Context, run automation.Run) error {
	dto := fromDomain(run)
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&RunDTO{}).
			Where("kind = ? AND status = ? AND expires_at <= ?", dto.Kind, string(automation.RunRunning), run.StartedAt).
			Updates(map[string]any{
				"status":      string(automation.RunFailed),
				"finished_at": run.StartedAt,
				"error":       automation.LeaseExpiredError,
			}).Error
		if err != nil {
			return err
		}
		return tx.Create(&dto).Error
	})
	if isUniqueViolation(err) {
		return automation.ErrAlreadyRunning
	}
	return err
}

// Finish stores the final state. It fails with a conflict when the lease was reclaimed
// in the meantime.
func (l *GormRunLedger) Finish(ctx context.Context, run automation.Run) error {
	dto := fromDomain(run)
	result := l.db.WithContext(ctx).
		Model(&RunDTO{}).
		Where("id = ? AND status = ?", dto.ID, string(automation.RunRunning)).
		Select("status", "finished_at", "summary", "error").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewConflictError("automation run", run.ID.String())
	}
	return nil
}

// ListRecent returns the latest runs, newest first.
func (l *GormRunLedger) ListRecent(ctx context.Context, kind automation.Kind, limit int) ([]automation.Run, error) {
	q := l.db.WithContext(ctx).Order("started_at DESC")
	if kind != "" {
		q = q.Where("kind = ?", kind.String())
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var dtos []RunDTO
	if err := q.Find(&dtos).Error; err != nil {
		return nil, err
	}

	runs := make([]automation.Run, 0, len(dtos))
	for _, dto := range dtos {
		r, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
