package redisledger

import (
	"encoding/json"
	"time"

	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/domain/model/kernel"
)

// runRecord is the JSON stored under automation:run:<id>. The status field is read by
// the Lua scripts, so its name must stay in sync with replaceWhileRunning.
type runRecord struct {
	ID         string             `json:"id"`
	Kind       string             `json:"kind"`
	Owner      string             `json:"owner"`
	Trigger    string             `json:"trigger"`
	Status     string             `json:"status"`
	StartedAt  time.Time          `json:"startedAt"`
	ExpiresAt  time.Time          `json:"expiresAt"`
	FinishedAt *time.Time         `json:"finishedAt,omitempty"`
	Summary    automation.Summary `json:"summary"`
	Error      string             `json:"error,omitempty"`
}

func encode(r automation.Run) ([]byte, error) {
	return json.Marshal(runRecord{
		ID:         r.ID.String(),
		Kind:       r.Kind.String(),
		Owner:      r.Owner,
		Trigger:    string(r.Trigger),
		Status:     string(r.Status),
		StartedAt:  r.StartedAt.UTC(),
		ExpiresAt:  r.ExpiresAt.UTC(),
		FinishedAt: r.FinishedAt,
		Summary:    r.Summary,
		Error:      r.Error,
	})
}

func decode(raw []byte) (automation.Run, error) {
	var rec runRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return automation.Run{}, err
	}
	id, err := kernel.UUIDFromString(rec.ID)
	if err != nil {
		return automation.Run{}, err
	}
	kind, err := automation.ParseKind(rec.Kind)
	if err != nil {
		return automation.Run{}, err
	}
	return automation.Run{
		ID:         id,
		Kind:       kind,
		Owner:      rec.Owner,
		Trigger:    automation.TriggerSource(rec.Trigger),
		Status:     automation.RunStatus(rec.Status),
		StartedAt:  rec.StartedAt,
		ExpiresAt:  rec.ExpiresAt,
		FinishedAt: rec.FinishedAt,
		Summary:    rec.Summary,
		Error:      rec.Error,
	}, nil
}
