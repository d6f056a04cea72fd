package shipperrepo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fooddelivery/internal/adapters/out/postgres/shipperrepo"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/core/domain/model/shipper"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type MockAggregateTracker struct {
	mock.Mock
}

func (m *MockAggregateTracker) TrackAggregate(id kernel.UUID, aggregate any) {
	m.Called(id, aggregate)
}

type ShipperRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *shipperrepo.GormShipperRepository
	tracker    *MockAggregateTracker
}

func (suite *ShipperRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&shipperrepo.ShipperDTO{}))
}

func (suite *ShipperRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE shippers").Error)

	suite.tracker = new(MockAggregateTracker)
	suite.tracker.On("TrackAggregate", mock.Anything, mock.Anything).Maybe()
	suite.repository = shipperrepo.NewGormShipperRepository(suite.db, suite.tracker)
}

func (suite *ShipperRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *ShipperRepositoryIntegrationTestSuite) TestAdd_ThenGet_RoundTripsShipper() {
	ctx := context.Background()
	s := suite.addShipper(ctx, "00000000-0000-0000-0000-000000000001")

	got, err := suite.repository.Get(ctx, s.ID())

	suite.Require().NoError(err)
	suite.Equal(s.ID(), got.ID())
	suite.Equal(s.Name(), got.Name())
	suite.Equal(s.Phone(), got.Phone())
	suite.True(got.Available())
	suite.Nil(got.CurrentOrder())
	suite.InDelta(s.Location().Lat(), got.Location().Lat(), 1e-9)
	suite.tracker.AssertCalled(suite.T(), "TrackAggregate", s.ID(), s)
}

func (suite *ShipperRepositoryIntegrationTestSuite) TestGet_NonExistentShipper_ReturnsNotFound() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *ShipperRepositoryIntegrationTestSuite) TestGetAllAvailable_SortedByIDAndExcludesClaimed() {
	ctx := context.Background()
	c := suite.addShipper(ctx, "00000000-0000-0000-0000-00000000000c")
	a := suite.addShipper(ctx, "00000000-0000-0000-0000-00000000000a")
	b := suite.addShipper(ctx, "00000000-0000-0000-0000-00000000000b")
	suite.Require().NoError(suite.repository.Claim(ctx, b.ID(), kernel.NewUUID()))

	got, err := suite.repository.GetAllAvailable(ctx)

	suite.Require().NoError(err)
	suite.Require().Len(got, 2)
	suite.Equal(a.ID(), got[0].ID())
	suite.Equal(c.ID(), got[1].ID())
}

func (suite *ShipperRepositoryIntegrationTestSuite) TestClaim_AlreadyClaimed_ReturnsErrAlreadyClaimed() {
	ctx := context.Background()
	s := suite.addShipper(ctx, "00000000-0000-0000-0000-000000000001")
	first := kernel.NewUUID()
	suite.Require().NoError(suite.repository.Claim(ctx, s.ID(), first))

	err := suite.repository.Claim(ctx, s.ID(), kernel.NewUUID())

	suite.Require().ErrorIs(err, shipper.ErrAlreadyClaimed)
	got, err := suite.repository.Get(ctx, s.ID())
	suite.Require().NoError(err)
	suite.False(got.Available())
	suite.Equal(first, *got.CurrentOrder())
}

func (suite *ShipperRepositoryIntegrationTestSuite) TestClaim_UnknownShipper_ReturnsNotFound() {
	err := suite.repository.Claim(context.Background(), kernel.NewUUID(), kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *ShipperRepositoryIntegrationTestSuite) TestClaim_ConcurrentClaims_ExactlyOneWins() {
	ctx := context.Background()
	s := suite.addShipper(ctx, "00000000-0000-0000-0000-000000000001")

	const claimers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		refused int
	)
	for range claimers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := suite.repository.Claim(ctx, s.ID(), kernel.NewUUID())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, shipper.ErrAlreadyClaimed):
				refused++
			default:
				suite.Failf("unexpected error", "%v", err)
			}
		}()
	}
	wg.Wait()

	suite.Equal(1, wins)
	suite.Equal(claimers-1, refused)
}

func (suite *ShipperRepositoryIntegrationTestSuite) TestRelease_ReturnsShipperToPool() {
	ctx := context.Background()
	s := suite.addShipper(ctx, "00000000-0000-0000-0000-000000000001")
	orderID := kernel.NewUUID()
	suite.Require().NoError(suite.repository.Claim(ctx, s.ID(), orderID))

	suite.Require().ErrorIs(suite.repository.Release(ctx, s.ID(), kernel.NewUUID()), shipper.ErrNotHoldingOrder)
	suite.Require().NoError(suite.repository.Release(ctx, s.ID(), orderID))

	got, err := suite.repository.Get(ctx, s.ID())
	suite.Require().NoError(err)
	suite.True(got.Available())
	suite.Nil(got.CurrentOrder())
}

func (suite *ShipperRepositoryIntegrationTestSuite) addShipper(ctx context.Context, id string) *shipper.Shipper {
	uuid, err := kernel.UUIDFromString(id)
	suite.Require().NoError(err)
	loc, err := kernel.NewLocation(10.7769, 106.7009)
	suite.Require().NoError(err)
	s, err := shipper.NewShipper(uuid, "Tran Thi B", "+84911222333", loc)
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Add(ctx, s))
	return s
}

func TestShipperRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ShipperRepositoryIntegrationTestSuite))
}
