package commands_test

import (
	"context"
	"time"

	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/order"
	"fooddelivery/internal/core/domain/model/shipper"
	"fooddelivery/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order, pre order.Precondition) error {
	args := m.Called(ctx, o, pre)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindEligible(ctx context.Context, c ports.EligibleCriteria) ([]*order.Order, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockShipperRepository struct{ mock.Mock }

func (m *MockShipperRepository) Add(ctx context.Context, s *shipper.Shipper) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockShipperRepository) Get(ctx context.Context, id kernel.UUID) (*shipper.Shipper, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipper.Shipper), args.Error(1)
}

func (m *MockShipperRepository) GetAllAvailable(ctx context.Context) ([]*shipper.Shipper, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*shipper.Shipper), args.Error(1)
}

func (m *MockShipperRepository) Claim(ctx context.Context, shipperID, orderID kernel.UUID) error {
	args := m.Called(ctx, shipperID, orderID)
	return args.Error(0)
}

func (m *MockShipperRepository) Release(ctx context.Context, shipperID, orderID kernel.UUID) error {
	args := m.Called(ctx, shipperID, orderID)
	return args.Error(0)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) ShipperRepository() ports.ShipperRepository {
	args := m.Called()
	return args.Get(0).(ports.ShipperRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockShipperUoWFactory struct{ mock.Mock }

func (m *MockShipperUoWFactory) Create() commands.ShipperUoW {
	args := m.Called()
	return args.Get(0).(commands.ShipperUoW)
}

type MockSettingsRepository struct{ mock.Mock }

func (m *MockSettingsRepository) Latest(ctx context.Context) (automation.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(automation.Settings), args.Error(1)
}

func (m *MockSettingsRepository) Save(
	ctx context.Context,
	s automation.Settings,
	expectedVersion int64,
) (automation.Settings, error) {
	args := m.Called(ctx, s, expectedVersion)
	return args.Get(0).(automation.Settings), args.Error(1)
}

type MockSettingsStore struct{ mock.Mock }

func (m *MockSettingsStore) Current() automation.Settings {
	args := m.Called()
	return args.Get(0).(automation.Settings)
}

func (m *MockSettingsStore) Replace(s automation.Settings) error {
	args := m.Called(s)
	return args.Error(0)
}

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testItems() []order.Item {
	return []order.Item{{ProductID: "bun-cha", Name: "Bun cha", Quantity: 1, UnitPrice: 50000}}
}

func testDelivery() order.DeliveryInfo {
	return order.DeliveryInfo{Address: "5 Hang Bac, Hanoi", Phone: "+84912345678"}
}

// orderIn builds an order advanced to status, entering it at enteredAt.
func orderIn(status order.Status, enteredAt time.Time) *order.Order {
	o, err := order.NewOrder(kernel.NewUUID(), "customer-1", testItems(), testDelivery(), order.PaymentCash, enteredAt)
	if err != nil {
		panic(err)
	}
	shipperID := kernel.NewUUID()
	path := []order.Trigger{
		{Event: order.EventConfirm},
		{Event: order.EventStartPreparing},
		{Event: order.EventPrepTimeElapsed},
		{Event: order.EventShipperAssigned, ShipperID: &shipperID},
		{Event: order.EventPickedUp},
		{Event: order.EventDelivered},
		{Event: order.EventComplete},
	}
	for _, tr := range path {
		if o.Status() == status {
			break
		}
		tr.At = enteredAt
		if err := o.Fire(tr); err != nil {
			panic(err)
		}
	}
	o.ClearDomainEvents()
	return o
}

func newTestShipper(id string) *shipper.Shipper {
	uuid, err := kernel.UUIDFromString(id)
	if err != nil {
		panic(err)
	}
	loc, err := kernel.NewLocation(21.03, 105.85)
	if err != nil {
		panic(err)
	}
	s, err := shipper.NewShipper(uuid, "Shipper", "+8490000000", loc)
	if err != nil {
		panic(err)
	}
	return s
}
