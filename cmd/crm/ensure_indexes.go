package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/crmhub/crm-backend/internal/infrastructure/config"
	"github.com/crmhub/crm-backend/internal/infrastructure/db/mongo"
	"github.com/crmhub/crm-backend/pkg/logger"
)

func newEnsureIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create the MongoDB indexes, including the unique client identity indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ensureIndexes(cmd.Context())
		},
	}
}

func ensureIndexes(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.IsDevelopment(), Service: "crm-api"})

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("indexes ensured")
	return nil
}
