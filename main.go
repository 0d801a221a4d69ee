package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"pos-recipe-engine/src/config"
	"pos-recipe-engine/src/handlers"
	"pos-recipe-engine/src/repositories"
	"pos-recipe-engine/src/routes"
	"pos-recipe-engine/src/services"
)

func main() {
	root := &cobra.Command{
		Use:           "pos-recipe-engine",
		Short:         "Recipe costing and production service for the POS",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newSeedCommand(), newTokenCommand())

	if err := root.Execute(); err != nil {
		config.GetLogger().WithError(err).Error("command failed")
		os.Exit(1)
	}
}

// loadConfig reads configuration and installs the configured logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	config.SetLogger(config.NewLogger(cfg.LogLevel))
	return cfg, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := config.InitDB(cfg)
			if err != nil {
				return err
			}
			if err := config.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			config.GetLogger().Info("schema is up to date")
			return nil
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := config.GetLogger()

	db, err := config.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	store := repositories.NewGormStore(db, cfg.LockTimeout)

	var locker services.Locker
	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		locker = services.NewRedisLocker(redislock.New(rdb), cfg.ProductionLockTTL)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.NewRouter(routes.RouterConfig{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Handlers: routes.Handlers{
			Materials:  &handlers.MaterialHandler{Service: &services.MaterialService{Store: store, Logger: logger}},
			Recipes:    &handlers.RecipeHandler{Service: &services.RecipeService{Store: store, Logger: logger}},
			Production: &handlers.ProductionHandler{Service: &services.ProductionService{Store: store, Locker: locker, Logger: logger}},
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
