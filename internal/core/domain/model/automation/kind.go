package automation

import (
	"fmt"

	"fooddelivery/internal/pkg/errs"
)

// Kind names one sweep of the scheduler.
type Kind string

const (
	// KindPrepToReady advances orders that have been preparing long enough.
	KindPrepToReady Kind = "prep-to-ready"
	// KindAssignShippers allocates shippers to ready orders.
	KindAssignShippers Kind = "assign-shippers"
	// KindOverdueCheck flags orders out for delivery past the delivery timeout.
	KindOverdueCheck Kind = "overdue-check"
)

// AllKinds lists every sweep kind.
func AllKinds() []Kind {
	return []Kind{KindPrepToReady, KindAssignShippers, KindOverdueCheck}
}

// ParseKind converts a path parameter or CLI argument into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

func (k Kind) Validate() error {
	for _, known := range AllKinds() {
		if k == known {
			return nil
		}
	}
	return errs.NewValueIsInvalidErrorWithCause("sweep kind is invalid", fmt.Errorf("%q is not a sweep kind", string(k)))
}

func (k Kind) String() string {
	return string(k)
}
