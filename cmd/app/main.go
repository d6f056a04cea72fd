package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fooddelivery/cmd"
	httpin "fooddelivery/internal/adapters/in/http"
	"fooddelivery/internal/adapters/out/postgres"
	"fooddelivery/internal/core/application/usecases/commands"
	"fooddelivery/internal/core/domain/model/automation"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 15 * time.Second

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:           "fooddelivery",
		Short:         "Order status automation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML or JSON config file")
	root.AddCommand(serveCmd(), sweepCmd(), migrateCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the automation scheduler",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			configs, logger, gormDB, err := bootstrap()
			if err != nil {
				return err
			}
			if err = postgres.Migrate(gormDB); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}

			app, err := cmd.NewCompositionRoot(ctx, configs, gormDB, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					logger.Error("Failed to close adapters", "error", err)
				}
			}()

			jobManager := app.CreateJobManager()
			if err = jobManager.StartAll(); err != nil {
				return err
			}
			defer jobManager.StopAll()

			return startWebServer(ctx, app, configs, logger)
		},
	}
}

func startWebServer(ctx context.Context, app *cmd.CompositionRoot, configs cmd.Config, logger *slog.Logger) error {
	e, err := httpin.NewRouter(app.CreateServer(), configs.AdminToken, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "port", configs.HTTPPort)
		errCh <- e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort))
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func sweepCmd() *cobra.Command {
	validArgs := []string{"all"}
	for _, kind := range automation.AllKinds() {
		validArgs = append(validArgs, kind.String())
	}

	return &cobra.Command{
		Use:       "sweep <kind|all>",
		Short:     "Run one sweep now and print its summary",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: validArgs,
		RunE: func(c *cobra.Command, args []string) error {
			configs, logger, gormDB, err := bootstrap()
			if err != nil {
				return err
			}
			app, err := cmd.NewCompositionRoot(c.Context(), configs, gormDB, logger)
			if err != nil {
				return err
			}
			defer app.Close()

			handler := app.CreateRunSweepCommandHandler()
			out := json.NewEncoder(c.OutOrStdout())
			out.SetIndent("", "  ")

			if args[0] == "all" {
				results, err := handler.HandleAll(c.Context(), automation.TriggerManual)
				var total automation.Summary
				for _, r := range results {
					line := map[string]any{"kind": r.Kind, "summary": r.Summary, "alreadyRunning": r.AlreadyRunning}
					if r.Err != nil {
						line["error"] = r.Err.Error()
					}
					if encErr := out.Encode(line); encErr != nil {
						return encErr
					}
					total = total.Merge(r.Summary)
				}
				if encErr := out.Encode(map[string]any{"kind": "all", "summary": total}); encErr != nil {
					return encErr
				}
				return err
			}

			kind, err := automation.ParseKind(args[0])
			if err != nil {
				return err
			}
			command, err := commands.NewRunSweepCommand(kind, automation.TriggerManual)
			if err != nil {
				return err
			}
			summary, err := handler.Handle(c.Context(), command)
			if err != nil {
				return err
			}
			return out.Encode(summary)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			_, logger, gormDB, err := bootstrap()
			if err != nil {
				return err
			}
			if err = postgres.Migrate(gormDB); err != nil {
				return err
			}
			logger.Info("Schema is up to date")
			return nil
		},
	}
}

func bootstrap() (cmd.Config, *slog.Logger, *gorm.DB, error) {
	configs, err := cmd.LoadConfig(cfgFile)
	if err != nil {
		return cmd.Config{}, nil, nil, err
	}
	level, err := configs.SlogLevel()
	if err != nil {
		return cmd.Config{}, nil, nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	gormDB, err := gorm.Open(gormpostgres.Open(configs.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return cmd.Config{}, nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	return configs, logger, gormDB, nil
}
