package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crmhub/crm-backend/internal/api"
	"github.com/crmhub/crm-backend/internal/api/handler"
	"github.com/crmhub/crm-backend/internal/core/service"
	"github.com/crmhub/crm-backend/internal/infrastructure/config"
	"github.com/crmhub/crm-backend/internal/infrastructure/db/mongo"
	"github.com/crmhub/crm-backend/internal/infrastructure/db/redis"
	"github.com/crmhub/crm-backend/internal/infrastructure/queue"
	"github.com/crmhub/crm-backend/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the status event workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "crm-api",
	})

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	// --- Repositories ---
	clientRepo := mongo.NewClientRepository(db)
	opportunityRepo := mongo.NewOpportunityRepository(db)
	userRepo := mongo.NewUserRepository(db)
	eventRepo := mongo.NewStatusEventRepository(db)
	idem := redis.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)

	// --- Status events ---
	eventHandler := service.NewStatusEventService(eventRepo, logger.Component("status_events"))
	dispatcher := queue.NewDispatcher(cfg.Events.Workers, eventHandler, logger.Component("dispatcher"))

	// --- Services ---
	policy := service.ClientPolicy{
		RequireDocumentOnCreate: cfg.Client.RequireDocument,
		EnforceLeadScoreBounds:  cfg.Client.EnforceLeadScoreBounds,
	}
	clients := service.NewClientService(clientRepo, idem, policy, logger.Component("clients"))
	opportunities := service.NewOpportunityService(opportunityRepo, clientRepo, userRepo, dispatcher, idem, logger.Component("opportunities"))
	users := service.NewUserService(userRepo, logger.Component("users"))

	e := api.NewRouter(api.Deps{
		Clients:       clients,
		Opportunities: opportunities,
		Users:         users,
		Readiness: map[string]handler.Pinger{
			"mongodb": mongo.NewPinger(db),
			"redis":   redis.NewPinger(rdb),
		},
		Logger: logger.Component("http"),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: e,
	}

	// Workers outlive the HTTP server so events published by in-flight
	// requests are still recorded.
	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	dispatcher.Start(workersCtx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("shutting down http server")
		err := srv.Shutdown(shutdownCtx)

		stopWorkers()
		dispatcher.Wait()
		log.Info().Msg("status event workers stopped")
		return err
	})

	return g.Wait()
}
