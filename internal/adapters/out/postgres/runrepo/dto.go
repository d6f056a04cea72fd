// Package runrepo is the Postgres run ledger. A partial unique index on kind over
// running rows makes lease acquisition atomic across instances.
package runrepo

import (
	"time"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// RunDTO is one automation_runs row.
type RunDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind       string    `gorm:"type:varchar(32);not null;uniqueIndex:ux_automation_runs_live,where:status = 'running';index:idx_automation_runs_kind_started,priority:1"`
	Owner      string    `gorm:"type:varchar(255);not null"`
	Trigger    string    `gorm:"type:varchar(16);not null"`
	Status     string    `gorm:"type:varchar(16);not null"`
	StartedAt  time.Time `gorm:"not null;index:idx_automation_runs_kind_started,priority:2,sort:desc"`
	ExpiresAt  time.Time `gorm:"not null"`
	FinishedAt *time.Time
	Summary    automation.Summary `gorm:"serializer:json;type:jsonb"`
	Error      string             `gorm:"type:text"`
}

func (RunDTO) TableName() string {
	return "automation_runs"
}

func fromDomain(r automation.Run) RunDTO {
	return RunDTO{
		ID:         r.ID.Bytes(),
		Kind:       r.Kind.String(),
		Owner:      r.Owner,
		Trigger:    string(r.Trigger),
		Status:     string(r.Status),
		StartedAt:  r.StartedAt,
		ExpiresAt:  r.ExpiresAt,
		FinishedAt: r.FinishedAt,
		Summary:    r.Summary,
		Error:      r.Error,
	}
}

func toDomain(dto RunDTO) (automation.Run, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return automation.Run{}, err
	}
	kind, err := automation.ParseKind(dto.Kind)
	if err != nil {
		return automation.Run{}, err
	}
	return automation.Run{
		ID:         id,
		Kind:       kind,
		Owner:      dto.Owner,
		Trigger:    automation.TriggerSource(dto.Trigger),
		Status:     automation.RunStatus(dto.Status),
		StartedAt:  dto.StartedAt,
		ExpiresAt:  dto.ExpiresAt,
		FinishedAt: dto.FinishedAt,
		Summary:    dto.Summary,
		Error:      dto.Error,
	}, nil
}
