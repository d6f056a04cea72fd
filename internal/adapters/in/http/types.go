package http

import (
	"fmt"
	"time"

	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/shipper"
	"fooddelivery/internal/pkg/errs"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Error defines model for Error.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`

	// AllowedEvents lists the events the order accepts, on a refused transition only.
	AllowedEvents *[]string `json:"allowedEvents,omitempty"`
}

// AlreadyRunning defines model for AlreadyRunning.
type AlreadyRunning struct {
	Status string `json:"status"`
}

// SweepResult defines one item of SweepResults.
type SweepResult struct {
	Kind    string             `json:"kind"`
	Status  string             `json:"status"`
	Summary automation.Summary `json:"summary"`
	Error   string             `json:"error,omitempty"`
}

// SweepResults defines model for SweepResults.
type SweepResults struct {
	Results []SweepResult      `json:"results"`
	Total   automation.Summary `json:"total"`
}

// AutomationRun defines model for AutomationRun.
type AutomationRun struct {
	ID         openapi_types.UUID `json:"id"`
	Kind       string             `json:"kind"`
	Owner      string             `json:"owner"`
	Trigger    string             `json:"trigger"`
	Status     string             `json:"status"`
	StartedAt  time.Time          `json:"startedAt"`
	ExpiresAt  time.Time          `json:"expiresAt"`
	FinishedAt *time.Time         `json:"finishedAt"`
	Summary    automation.Summary `json:"summary"`
	Error      string             `json:"error,omitempty"`
}

// GetAutomationRunsParams defines parameters for GetAutomationRuns.
type GetAutomationRunsParams struct {
	Kind  *string `form:"kind,omitempty" json:"kind,omitempty"`
	Limit *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

type SweepIntervals struct {
	PrepToReady    string `json:"prepToReady"`
	AssignShippers string `json:"assignShippers"`
	OverdueCheck   string `json:"overdueCheck"`
}

type BusinessHours struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Settings defines model for Settings.
type Settings struct {
	Version          int64          `json:"version"`
	PreparingToReady string         `json:"preparingToReady"`
	DeliveryTimeout  string         `json:"deliveryTimeout"`
	SweepIntervals   SweepIntervals `json:"sweepIntervals"`
	BusinessHours    BusinessHours  `json:"businessHours"`
	UpdatedAt        *time.Time     `json:"updatedAt,omitempty"`
}

// UpdateSettings defines model for UpdateSettings.
type UpdateSettings struct {
	ExpectedVersion  int64          `json:"expectedVersion"`
	PreparingToReady string         `json:"preparingToReady"`
	DeliveryTimeout  string         `json:"deliveryTimeout"`
	SweepIntervals   SweepIntervals `json:"sweepIntervals"`
	BusinessHours    BusinessHours  `json:"businessHours"`
}

// Transition defines model for Transition.
type Transition struct {
	Event     string              `json:"event"`
	Note      *string             `json:"note,omitempty"`
	Reason    *string             `json:"reason,omitempty"`
	ShipperID *openapi_types.UUID `json:"shipperId,omitempty"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Item struct {
	ProductID string `json:"productId"`
	Name      string `json:"name,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

type Delivery struct {
	Address  string    `json:"address"`
	Phone    string    `json:"phone"`
	Location *Location `json:"location,omitempty"`
}

// NewOrder defines model for NewOrder.
type NewOrder struct {
	CustomerID    string   `json:"customerId"`
	Items         []Item   `json:"items"`
	Delivery      Delivery `json:"delivery"`
	PaymentMethod string   `json:"paymentMethod"`
}

type Payment struct {
	Method string `json:"method"`
	Status string `json:"status"`
}

type HistoryEntry struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Note   string    `json:"note,omitempty"`
}

// Order defines model for Order.
type Order struct {
	ID           openapi_types.UUID  `json:"id"`
	CustomerID   string              `json:"customerId"`
	Status       string              `json:"status"`
	ShipperID    *openapi_types.UUID `json:"shipperId"`
	TotalAmount  int64               `json:"totalAmount"`
	Items        []Item              `json:"items"`
	Delivery     Delivery            `json:"delivery"`
	Payment      Payment             `json:"payment"`
	History      []HistoryEntry      `json:"history"`
	CancelReason string              `json:"cancelReason,omitempty"`
	OverdueAt    *time.Time          `json:"overdueAt"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	Version      int64               `json:"version"`
}

// ActiveOrder defines model for ActiveOrder.
type ActiveOrder struct {
	ID              openapi_types.UUID  `json:"id"`
	CustomerID      string              `json:"customerId"`
	Status          string              `json:"status"`
	ShipperID       *openapi_types.UUID `json:"shipperId"`
	TotalAmount     int64               `json:"totalAmount"`
	DeliveryAddress string              `json:"deliveryAddress"`
	StatusChangedAt time.Time           `json:"statusChangedAt"`
	OverdueAt       *time.Time          `json:"overdueAt"`
}

// NewShipper defines model for NewShipper.
type NewShipper struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Location Location `json:"location"`
}

// Shipper defines model for Shipper.
type Shipper struct {
	ID       openapi_types.UUID `json:"id"`
	Name     string             `json:"name"`
	Phone    string             `json:"phone"`
	Location Location           `json:"location"`
}

func toAPIID(id *kernel.UUID) *openapi_types.UUID {
	if id == nil {
		return nil
	}
	v := id.Bytes()
	return &v
}

func toAPIRun(r automation.Run) AutomationRun {
	summary := r.Summary
	if summary.Errors == nil {
		summary.Errors = []string{}
	}
	return AutomationRun{
		ID:         r.ID.Bytes(),
		Kind:       r.Kind.String(),
		Owner:      r.Owner,
		Trigger:    string(r.Trigger),
		Status:     string(r.Status),
		StartedAt:  r.StartedAt,
		ExpiresAt:  r.ExpiresAt,
		FinishedAt: r.FinishedAt,
		Summary:    summary,
		Error:      r.Error,
	}
}

func toAPISettings(s automation.Settings) Settings {
	out := Settings{
		Version:          s.Version,
		PreparingToReady: s.PreparingToReady.String(),
		DeliveryTimeout:  s.DeliveryTimeout.String(),
		SweepIntervals: SweepIntervals{
			PrepToReady:    s.SweepIntervals.PrepToReady.String(),
			AssignShippers: s.SweepIntervals.AssignShippers.String(),
			OverdueCheck:   s.SweepIntervals.OverdueCheck.String(),
		},
		BusinessHours: BusinessHours{
			Start: s.BusinessHours.Start.String(),
			End:   s.BusinessHours.End.String(),
		},
	}
	if !s.UpdatedAt.IsZero() {
		updatedAt := s.UpdatedAt
		out.UpdatedAt = &updatedAt
	}
	return out
}

// toDomain parses the durations and clock times of the request.
func (u UpdateSettings) toDomain() (automation.Settings, error) {
	var (
		s   automation.Settings
		err error
	)
	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"preparingToReady", u.PreparingToReady, &s.PreparingToReady},
		{"deliveryTimeout", u.DeliveryTimeout, &s.DeliveryTimeout},
		{"sweepIntervals.prepToReady", u.SweepIntervals.PrepToReady, &s.SweepIntervals.PrepToReady},
		{"sweepIntervals.assignShippers", u.SweepIntervals.AssignShippers, &s.SweepIntervals.AssignShippers},
		{"sweepIntervals.overdueCheck", u.SweepIntervals.OverdueCheck, &s.SweepIntervals.OverdueCheck},
	}
	for _, d := range durations {
		if *d.dst, err = time.ParseDuration(d.value); err != nil {
			return automation.Settings{}, errs.NewValueIsInvalidErrorWithCause(d.name, err)
		}
	}
	if s.BusinessHours.Start, err = automation.ParseClockTime(u.BusinessHours.Start); err != nil {
		return automation.Settings{}, err
	}
	if s.BusinessHours.End, err = automation.ParseClockTime(u.BusinessHours.End); err != nil {
		return automation.Settings{}, err
	}
	return s, nil
}

func toAPIOrder(o *order.Order) Order {
	items := make([]Item, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, Item{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	history := make([]HistoryEntry, 0, len(o.History()))
	for _, h := range o.History() {
		history = append(history, HistoryEntry{Status: h.Status.String(), At: h.At, Note: h.Note})
	}

	return Order{
		ID:           o.ID().Bytes(),
		CustomerID:   o.CustomerID(),
		Status:       o.Status().String(),
		ShipperID:    toAPIID(o.Shipper()),
		TotalAmount:  o.TotalAmount(),
		Items:        items,
		Delivery:     toAPIDelivery(o.Delivery()),
		Payment:      Payment{Method: string(o.Payment().Method), Status: string(o.Payment().Status)},
		History:      history,
		CancelReason: o.CancelReason(),
		OverdueAt:    o.OverdueAt(),
		CreatedAt:    o.CreatedAt(),
		UpdatedAt:    o.UpdatedAt(),
		Version:      o.Version(),
	}
}

func toAPIDelivery(d order.DeliveryInfo) Delivery {
	out := Delivery{Address: d.Address, Phone: d.Phone}
	if d.Location != nil {
		out.Location = &Location{Lat: d.Location.Lat(), Lng: d.Location.Lng()}
	}
	return out
}

func (n NewOrder) toDomain() ([]order.Item, order.DeliveryInfo, error) {
	items := make([]order.Item, 0, len(n.Items))
	for _, item := range n.Items {
		items = append(items, order.Item{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	delivery := order.DeliveryInfo{Address: n.Delivery.Address, Phone: n.Delivery.Phone}
	if n.Delivery.Location != nil {
		location, err := kernel.NewLocation(n.Delivery.Location.Lat, n.Delivery.Location.Lng)
		if err != nil {
			return nil, order.DeliveryInfo{}, fmt.Errorf("delivery location: %w", err)
		}
		delivery.Location = &location
	}
	return items, delivery, nil
}

func toAPIActiveOrder(o queries.GetActiveOrdersQueryResponse) ActiveOrder {
	return ActiveOrder{
		ID:              o.ID.Bytes(),
		CustomerID:      o.CustomerID,
		Status:          o.Status.String(),
		ShipperID:       toAPIID(o.ShipperID),
		TotalAmount:     o.TotalAmount,
		DeliveryAddress: o.DeliveryAddress,
		StatusChangedAt: o.StatusChangedAt,
		OverdueAt:       o.OverdueAt,
	}
}

func toAPIShipper(s *shipper.Shipper) Shipper {
	return Shipper{
		ID:       s.ID().Bytes(),
		Name:     s.Name(),
		Phone:    s.Phone(),
		Location: Location{Lat: s.Location().Lat(), Lng: s.Location().Lng()},
	}
}

func toAPIAvailableShipper(s queries.GetAvailableShippersQueryResponse) Shipper {
	return Shipper{
		ID:       s.ID.Bytes(),
		Name:     s.Name,
		Phone:    s.Phone,
		Location: Location{Lat: s.Location.Lat(), Lng: s.Location.Lng()},
	}
}
