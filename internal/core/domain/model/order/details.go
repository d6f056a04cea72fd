package order

import (
	"fmt"
	"strings"
	"time"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"
)

// PaymentMethod is how the customer pays. Only cash affects the state machine.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentMomo    PaymentMethod = "momo"
	PaymentBanking PaymentMethod = "banking"
)

// Validate checks that the value is a supported payment method.
func (m PaymentMethod) Validate() error {
	switch m {
	case PaymentCash, PaymentMomo, PaymentBanking:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("payment method is invalid", fmt.Errorf("%q is not supported", string(m)))
	}
}

// PaymentStatus tracks settlement of the order total.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Validate checks that the value is a known payment status.
func (s PaymentStatus) Validate() error {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("payment status is invalid", fmt.Errorf("%q is not supported", string(s)))
	}
}

// Payment is the order's payment state.
type Payment struct {
	Method PaymentMethod
	Status PaymentStatus
}

// Item is one line of the order. Amounts are in minor currency units.
type Item struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice int64
}

func (i Item) validate() error {
	if strings.TrimSpace(i.ProductID) == "" {
		return errs.NewValueIsRequiredError("item product id")
	}
	if i.Quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("item quantity is invalid", fmt.Errorf("%d is not greater than 0", i.Quantity))
	}
	if i.UnitPrice < 0 {
		return errs.NewValueIsInvalidErrorWithCause("item price is invalid", fmt.Errorf("%d is negative", i.UnitPrice))
	}
	return nil
}

// DeliveryInfo is where the order goes. Location is optional.
type DeliveryInfo struct {
	Address  string
	Phone    string
	Location *kernel.Location
}

func (d DeliveryInfo) validate() error {
	if strings.TrimSpace(d.Address) == "" {
		return errs.NewValueIsRequiredError("delivery address")
	}
	if strings.TrimSpace(d.Phone) == "" {
		return errs.NewValueIsRequiredError("delivery phone")
	}
	if d.Location != nil {
		return d.Location.Validate()
	}
	return nil
}

// HistoryEntry is one row of the append-only status history.
type HistoryEntry struct {
	Status Status
	At     time.Time
	Note   string
}
