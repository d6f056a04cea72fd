package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	httpin "fooddelivery/internal/adapters/in/http"
	"fooddelivery/internal/adapters/out/postgres"
	"fooddelivery/internal/adapters/out/postgres/runrepo"
	"fooddelivery/internal/adapters/out/postgres/settingsrepo"
	"fooddelivery/internal/adapters/out/publisher"
	"fooddelivery/internal/adapters/out/redisledger"
	"fooddelivery/internal/core/application/settings"
	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/application/usecases/queries"
	"fooddelivery/internal/core/ports"
	"fooddelivery/internal/jobs"
	"fooddelivery/internal/pkg/clock"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot owns the adapters shared by every handler of the process.
type CompositionRoot struct {
	cfg          Config
	gormDB       *gorm.DB
	uowFactory   *postgres.GormUnitOfWorkFactory
	ledger       ports.RunLedger
	settingsRepo *settingsrepo.GormSettingsRepository
	settings     *settings.Provider
	clock        clock.System
	location     *time.Location
	logger       *slog.Logger
	closers      []func() error
}

// NewCompositionRoot connects the optional Redis and Kafka backends and loads the latest
// persisted automation settings over the configured defaults. The job manager keeps
// reloading them afterwards.
func NewCompositionRoot(ctx context.Context, cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	provider, err := settings.NewProvider(cfg.Settings())
	if err != nil {
		return nil, fmt.Errorf("configured automation settings: %w", err)
	}

	c := &CompositionRoot{
		cfg:          cfg,
		gormDB:       gormDB,
		settingsRepo: settingsrepo.NewGormSettingsRepository(gormDB),
		settings:     provider,
		location:     location,
		logger:       logger,
	}

	eventPublisher, err := c.newPublisher()
	if err != nil {
		return nil, err
	}
	c.uowFactory = postgres.NewGormUnitOfWorkFactory(gormDB, eventPublisher, logger)

	if c.ledger, err = c.newLedger(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	if err = provider.Load(ctx, c.settingsRepo); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("load automation settings: %w", err)
	}
	return c, nil
}

func (c *CompositionRoot) newPublisher() (ports.EventPublisher, error) {
	if c.cfg.KafkaHost == "" {
		c.logger.Info("KAFKA_HOST is empty, order events are only logged")
		return publisher.NewLogPublisher(c.logger), nil
	}

	producer, err := publisher.NewKafkaProducer(c.cfg.KafkaHost)
	if err != nil {
		return nil, fmt.Errorf("connect kafka %s: %w", c.cfg.KafkaHost, err)
	}
	p := publisher.NewKafkaPublisher(producer, c.cfg.KafkaOrderChangedTopic, c.logger)
	c.closers = append(c.closers, p.Close)
	return p, nil
}

func (c *CompositionRoot) newLedger(ctx context.Context) (ports.RunLedger, error) {
	if c.cfg.LeaseBackend != LeaseBackendRedis {
		return runrepo.NewGormRunLedger(c.gormDB), nil
	}

	client := redis.NewClient(&redis.Options{Addr: c.cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", c.cfg.RedisAddr, err)
	}
	c.closers = append(c.closers, client.Close)
	return redisledger.NewLedger(client), nil
}

// Close releases the Kafka producer and the Redis client, when in use.
func (c *CompositionRoot) Close() error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, c.closers[i]())
	}
	c.closers = nil
	return err
}

// Owner names this process in the run ledger.
func (c *CompositionRoot) Owner() string {
	if c.cfg.InstanceID != "" {
		return c.cfg.InstanceID
	}
	host, err := os.Hostname()
	if err != nil {
		host = "fooddelivery"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func (c *CompositionRoot) Settings() *settings.Provider {
	return c.settings
}

func (c *CompositionRoot) CreateRunSweepCommandHandler() commands.RunSweepCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewRunSweepCommandHandler(f, c.ledger, c.settings, c.clock, c.logger, commands.SweepOptions{
		Owner:       c.Owner(),
		StepTimeout: c.cfg.StepTimeout,
	})
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewTransitionOrderCommandHandler(f, c.settings, c.clock).WithTimeout(c.cfg.StepTimeout)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f, c.clock).WithTimeout(c.cfg.StepTimeout)
}

func (c *CompositionRoot) CreateCreateShipperCommandHandler() commands.CreateShipperCommandHandler {
	var f commands.ShipperUoWFactory = FuncShipperUoWFactory(func() commands.ShipperUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateShipperCommandHandler(f).WithTimeout(c.cfg.StepTimeout)
}

func (c *CompositionRoot) CreateUpdateSettingsCommandHandler() commands.UpdateSettingsCommandHandler {
	return commands.NewUpdateSettingsCommandHandler(c.settingsRepo, c.settings, c.clock).WithTimeout(c.cfg.StepTimeout)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory).WithTimeout(c.cfg.StepTimeout)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.gormDB).WithTimeout(c.cfg.StepTimeout)
}

func (c *CompositionRoot) CreateGetAvailableShippersQueryHandler() queries.GetAvailableShippersQueryHandler {
	return queries.NewGetAvailableShippersQueryHandler(c.gormDB).WithTimeout(c.cfg.StepTimeout)
}

func (c *CompositionRoot) CreateGetAutomationRunsQueryHandler() queries.GetAutomationRunsQueryHandler {
	return queries.NewGetAutomationRunsQueryHandler(c.ledger).WithTimeout(c.cfg.StepTimeout)
}

// CreateServer wires every use case into the HTTP server.
func (c *CompositionRoot) CreateServer() *httpin.Server {
	return httpin.NewServer(httpin.Handlers{
		RunSweep:             c.CreateRunSweepCommandHandler(),
		TransitionOrder:      c.CreateTransitionOrderCommandHandler(),
		CreateOrder:          c.CreateCreateOrderCommandHandler(),
		CreateShipper:        c.CreateCreateShipperCommandHandler(),
		UpdateSettings:       c.CreateUpdateSettingsCommandHandler(),
		GetOrder:             c.CreateGetOrderQueryHandler(),
		GetActiveOrders:      c.CreateGetActiveOrdersQueryHandler(),
		GetAvailableShippers: c.CreateGetAvailableShippersQueryHandler(),
		GetAutomationRuns:    c.CreateGetAutomationRunsQueryHandler(),
		Settings:             c.settings,
	}, c.logger)
}

// CreateJobManager schedules one sweep per kind, rescheduled on settings changes, and the
// periodic reload of settings saved by other replicas.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	refresh := jobs.NewSettingsRefreshJob(c.settings, c.settingsRepo, c.cfg.SettingsRefreshInterval, c.cfg.StepTimeout, c.logger)
	return jobs.NewJobManager(c.CreateRunSweepCommandHandler(), c.settings, c.clock, c.location, c.logger).
		WithSettingsRefresh(refresh)
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncShipperUoWFactory func() commands.ShipperUoW

func (f FuncShipperUoWFactory) Create() commands.ShipperUoW {
	return f()
}
