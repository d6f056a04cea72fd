// Package settingsrepo stores every version of the automation settings. Rows are
// never updated; the highest version is the one in effect.
package settingsrepo

import (
	"context"
	"errors"
	"time"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// SettingsDTO is one automation_settings version.
type SettingsDTO struct {
	Version                int64         `gorm:"primaryKey;autoIncrement:false"`
	PreparingToReady       time.Duration `gorm:"not null"`
	DeliveryTimeout        time.Duration `gorm:"not null"`
	PrepToReadyInterval    time.Duration `gorm:"not null"`
	AssignShippersInterval time.Duration `gorm:"not null"`
	OverdueCheckInterval   time.Duration `gorm:"not null"`
	BusinessHoursStart     string        `gorm:"type:varchar(5);not null"`
	BusinessHoursEnd       string        `gorm:"type:varchar(5);not null"`
	UpdatedAt              time.Time     `gorm:"autoUpdateTime:false"`
}

func (SettingsDTO) TableName() string {
	return "automation_settings"
}

// GormSettingsRepository implements ports.SettingsRepository.
type GormSettingsRepository struct {
	db *gorm.DB
}

func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Latest returns the highest stored version.
func (r *GormSettingsRepository) Latest(ctx context.Context) (automation.Settings, error) {
	var dto SettingsDTO
	if err := r.db.WithContext(ctx).Order("version DESC").First(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return automation.Settings{}, errs.NewObjectNotFoundError("automation settings", "latest")
		}
		return automation.Settings{}, err
	}
	return toDomain(dto)
}

// Save inserts settings as expectedVersion+1. A concurrent save of the same version
// loses on the primary key.
func (r *GormSettingsRepository) Save(
	ctx context.Context,
	settings automation.Settings,
	expectedVersion int64,
) (automation.Settings, error) {
	if err := settings.Validate(); err != nil {
		return automation.Settings{}, err
	}

	settings.Version = expectedVersion + 1
	dto := fromDomain(settings)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest int64
		if err := tx.Model(&SettingsDTO{}).Select("COALESCE(MAX(version), 0)").Scan(&latest).Error; err != nil {
			return err
		}
		if latest != expectedVersion {
			return errs.NewConflictError("automation settings", expectedVersion)
		}
		return tx.Create(&dto).Error
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, gorm.ErrDuplicatedKey) || (errors.As(err, &pgErr) && pgErr.Code == "23505") {
			return automation.Settings{}, errs.NewConflictErrorWithCause("automation settings", expectedVersion, err)
		}
		return automation.Settings{}, err
	}

	return settings, nil
}

func fromDomain(s automation.Settings) SettingsDTO {
	return SettingsDTO{
		Version:                s.Version,
		PreparingToReady:       s.PreparingToReady,
		DeliveryTimeout:        s.DeliveryTimeout,
		PrepToReadyInterval:    s.SweepIntervals.PrepToReady,
		AssignShippersInterval: s.SweepIntervals.AssignShippers,
		OverdueCheckInterval:   s.SweepIntervals.OverdueCheck,
		BusinessHoursStart:     s.BusinessHours.Start.String(),
		BusinessHoursEnd:       s.BusinessHours.End.String(),
		UpdatedAt:              s.UpdatedAt,
	}
}

func toDomain(dto SettingsDTO) (automation.Settings, error) {
	start, err := automation.ParseClockTime(dto.BusinessHoursStart)
	if err != nil {
		return automation.Settings{}, err
	}
	end, err := automation.ParseClockTime(dto.BusinessHoursEnd)
	if err != nil {
		return automation.Settings{}, err
	}
	return automation.Settings{
		PreparingToReady: dto.PreparingToReady,
		DeliveryTimeout:  dto.DeliveryTimeout,
		SweepIntervals: automation.SweepIntervals{
			PrepToReady:    dto.PrepToReadyInterval,
			AssignShippers: dto.AssignShippersInterval,
			OverdueCheck:   dto.OverdueCheckInterval,
		},
		BusinessHours: automation.BusinessHours{Start: start, End: end},
		Version:       dto.Version,
		UpdatedAt:     dto.UpdatedAt,
	}, nil
}
