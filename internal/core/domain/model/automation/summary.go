package automation

import (
	"fmt"

	"fooddelivery/internal/core/domain/model/kernel"
)

// MaxSummaryErrors bounds the error list kept in a Summary.
const MaxSummaryErrors = 20

// Summary counts per-order outcomes of one sweep.
type Summary struct {
	Advanced         int      `json:"advanced"`
	ConflictSkipped  int      `json:"conflictSkipped"`
	AllocationFailed int      `json:"allocationFailed"`
	TransitionErrors int      `json:"transitionErrors"`
	Flagged          int      `json:"flagged"`
	Errors           []string `json:"errors"`
}

// AddError records a per-order failure message. Messages beyond MaxSummaryErrors are dropped.
func (s *Summary) AddError(orderID kernel.UUID, err error) {
	if err == nil || len(s.Errors) >= MaxSummaryErrors {
		return
	}
	s.Errors = append(s.Errors, fmt.Sprintf("order %s: %v", orderID, err))
}

// Merge adds the counts of other and appends its errors up to the bound.
func (s Summary) Merge(other Summary) Summary {
	merged := Summary{
		Advanced:         s.Advanced + other.Advanced,
		ConflictSkipped:  s.ConflictSkipped + other.ConflictSkipped,
		AllocationFailed: s.AllocationFailed + other.AllocationFailed,
		TransitionErrors: s.TransitionErrors + other.TransitionErrors,
		Flagged:          s.Flagged + other.Flagged,
		Errors:           make([]string, 0, len(s.Errors)+len(other.Errors)),
	}
	merged.Errors = append(merged.Errors, s.Errors...)
	for _, msg := range other.Errors {
		if len(merged.Errors) >= MaxSummaryErrors {
			break
		}
		merged.Errors = append(merged.Errors, msg)
	}
	return merged
}
