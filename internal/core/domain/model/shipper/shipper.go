package shipper

import (
	"errors"
	"fmt"
	"strings"

	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"
	"fooddelivery/internal/pkg/guard"
)

var (
	// ErrAlreadyClaimed is returned when claiming a shipper that is not available.
	ErrAlreadyClaimed = errors.New("shipper is already claimed")
	// ErrNotHoldingOrder is returned when releasing a shipper from an order they do not hold.
	ErrNotHoldingOrder = errors.New("shipper does not hold the order")
	// ErrShipperIsNotConstructed is returned when using an improperly initialized Shipper.
	ErrShipperIsNotConstructed = errors.New("Shipper must be created via NewShipper constructor")
)

// Shipper is an aggregate root representing one delivery person.
//
// Business rules:
//   - Shipper must have a valid UUID, non-empty name and phone
//   - An available shipper holds no order; a claimed shipper holds exactly one
//   - An unavailable shipper without an order is off shift
type Shipper struct {
	id             kernel.UUID
	name           string
	phone          string
	location       kernel.Location
	available      bool
	currentOrderID *kernel.UUID
	guard          guard.ConstructorGuard
}

// NewShipper registers a shipper who is immediately available.
//
// Example:
//
//	location, _ := kernel.NewLocation(21.0285, 105.8542)
//	s, err := shipper.NewShipper(kernel.NewUUID(), "Nguyen Van A", "+84901234567", location)
func NewShipper(id kernel.UUID, name, phone string, location kernel.Location) (*Shipper, error) {
	s := &Shipper{
		available: true,
		guard:     guard.NewConstructorGuard(),
	}
	if err := errors.Join(
		s.setID(id),
		s.setName(name),
		s.setPhone(phone),
		s.setLocation(location),
	); err != nil {
		return nil, err
	}
	return s, nil
}

// RestoreShipper rebuilds a shipper from storage.
func RestoreShipper(
	id kernel.UUID,
	name, phone string,
	location kernel.Location,
	available bool,
	currentOrderID *kernel.UUID,
) (*Shipper, error) {
	if available && currentOrderID != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("shipper availability is invalid",
			fmt.Errorf("available=%t with current order %v", available, currentOrderID))
	}
	s, err := NewShipper(id, name, phone, location)
	if err != nil {
		return nil, err
	}
	s.available = available
	if currentOrderID != nil {
		v := *currentOrderID
		s.currentOrderID = &v
	}
	return s, nil
}

// Validate ensures the Shipper was built by a constructor.
func (s *Shipper) Validate() error {
	if s == nil {
		return ErrShipperIsNotConstructed
	}
	return s.guard.Validate(ErrShipperIsNotConstructed)
}

func (s *Shipper) ID() kernel.UUID {
	return s.id
}

func (s *Shipper) Name() string {
	return s.name
}

func (s *Shipper) Phone() string {
	return s.phone
}

func (s *Shipper) Location() kernel.Location {
	return s.location
}

// Available reports whether the shipper can be claimed.
func (s *Shipper) Available() bool {
	return s.available
}

// CurrentOrder returns the order the shipper holds, or nil.
func (s *Shipper) CurrentOrder() *kernel.UUID {
	if s.currentOrderID == nil {
		return nil
	}
	v := *s.currentOrderID
	return &v
}

// Claim takes the shipper out of the pool for orderID.
func (s *Shipper) Claim(orderID kernel.UUID) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := orderID.Validate(); err != nil {
		return err
	}
	if !s.available {
		return ErrAlreadyClaimed
	}
	s.available = false
	s.currentOrderID = &orderID
	return nil
}

// Release returns the shipper to the pool. It fails unless the shipper holds orderID.
func (s *Shipper) Release(orderID kernel.UUID) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.currentOrderID == nil || !s.currentOrderID.IsEqual(orderID) {
		return ErrNotHoldingOrder
	}
	s.available = true
	s.currentOrderID = nil
	return nil
}

func (s *Shipper) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	s.id = id
	return nil
}

func (s *Shipper) setName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errs.NewValueIsRequiredError("name")
	}
	s.name = name
	return nil
}

func (s *Shipper) setPhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return errs.NewValueIsRequiredError("phone")
	}
	s.phone = phone
	return nil
}

func (s *Shipper) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	s.location = location
	return nil
}
