package runrepo_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fooddelivery/internal/adapters/out/postgres/runrepo"
	"fooddelivery/internal/core/domain/model/automation"
	"fooddelivery/internal/core/domain/model/kernel"
	"fooddelivery/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var startedAt = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type RunLedgerIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	ledger    *runrepo.GormRunLedger
}

func (suite *RunLedgerIntegrationTestSuite) SetupSuite() {
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

	suite.Require().NoError(db.AutoMigrate(&runrepo.RunDTO{}))
	suite.ledger = runrepo.NewGormRunLedger(db)
}

func (suite *RunLedgerIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE automation_runs").Error)
}

func (suite *RunLedgerIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *RunLedgerIntegrationTestSuite) TestAcquire_LiveLease_ReturnsAlreadyRunning() {
	ctx := context.Background()
	suite.Require().NoError(suite.ledger.Acquire(ctx, suite.newRun(automation.KindPrepToReady, startedAt)))

	err := suite.ledger.Acquire(ctx, suite.newRun(automation.KindPrepToReady, startedAt.Add(time.Minute)))

	suite.Require().ErrorIs(err, automation.ErrAlreadyRunning)
}

func (suite *RunLedgerIntegrationTestSuite) TestAcquire_OtherKind_DoesNotBlock() {
	ctx := context.Background()
	suite.Require().NoError(suite.ledger.Acquire(ctx, suite.newRun(automation.KindPrepToReady, startedAt)))

	err := suite.ledger.Acquire(ctx, suite.newRun(automation.KindOverdueCheck, startedAt))

	suite.Require().NoError(err)
}

func (suite *RunLedgerIntegrationTestSuite) TestAcquire_ExpiredLease_IsReclaimed() {
	ctx := context.Background()
	stale := suite.newRun(automation.KindAssignShippers, startedAt)
	suite.Require().NoError(suite.ledger.Acquire(ctx, stale))

	fresh := suite.newRun(automation.KindAssignShippers, stale.ExpiresAt.Add(time.Second))
	err := suite.ledger.Acquire(ctx, fresh)

	suite.Require().NoError(err)
	runs, err := suite.ledger.ListRecent(ctx, automation.KindAssignShippers, 10)
	suite.Require().NoError(err)
	suite.Require().Len(runs, 2)
	suite.Equal(fresh.ID, runs[0].ID)
	suite.Equal(automation.RunRunning, runs[0].Status)
	suite.Equal(stale.ID, runs[1].ID)
	suite.Equal(automation.RunFailed, runs[1].Status)
	suite.Equal(automation.LeaseExpiredError, runs[1].Error)
	suite.Require().NotNil(runs[1].FinishedAt)
}

func (suite *RunLedgerIntegrationTestSuite) TestAcquire_ConcurrentAcquirers_ExactlyOneWins() {
	ctx := context.Background()

	const acquirers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		refused int
	)
	for range acquirers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := suite.ledger.Acquire(ctx, suite.newRun(automation.KindPrepToReady, startedAt))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, automation.ErrAlreadyRunning):
				refused++
			default:
				suite.Failf("unexpected error", "%v", err)
			}
		}()
	}
	wg.Wait()

	suite.Equal(1, wins)
	suite.Equal(acquirers-1, refused)
}

func (suite *RunLedgerIntegrationTestSuite) TestFinish_StoresSummaryAndReleasesLease() {
	ctx := context.Background()
	run := suite.newRun(automation.KindPrepToReady, startedAt)
	suite.Require().NoError(suite.ledger.Acquire(ctx, run))
	summary := automation.Summary{Advanced: 3, AllocationFailed: 1}
	summary.AddError(kernel.NewUUID(), errors.New("boom"))

	err := suite.ledger.Finish(ctx, run.Complete(summary, startedAt.Add(10*time.Second)))

	suite.Require().NoError(err)
	runs, err := suite.ledger.ListRecent(ctx, "", 0)
	suite.Require().NoError(err)
	suite.Require().Len(runs, 1)
	suite.Equal(automation.RunCompleted, runs[0].Status)
	suite.Equal(summary, runs[0].Summary)
	suite.Require().NoError(suite.ledger.Acquire(ctx, suite.newRun(automation.KindPrepToReady, startedAt.Add(time.Minute))))
}

func (suite *RunLedgerIntegrationTestSuite) TestFinish_ReclaimedLease_ReturnsConflict() {
	ctx := context.Background()
	stale := suite.newRun(automation.KindPrepToReady, startedAt)
	suite.Require().NoError(suite.ledger.Acquire(ctx, stale))
	suite.Require().NoError(suite.ledger.Acquire(ctx, suite.newRun(automation.KindPrepToReady, stale.ExpiresAt)))

	err := suite.ledger.Finish(ctx, stale.Complete(automation.Summary{}, stale.ExpiresAt))

	suite.Require().ErrorIs(err, errs.ErrConflict)
}

func (suite *RunLedgerIntegrationTestSuite) newRun(kind automation.Kind, at time.Time) automation.Run {
	run, err := automation.NewRun(kind, "instance-1", automation.TriggerScheduled, at, 4*time.Minute)
	suite.Require().NoError(err)
	return run
}

func TestRunLedgerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(RunLedgerIntegrationTestSuite))
}
