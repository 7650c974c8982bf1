package main

import (
	"context"
	"fmt"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create MongoDB indexes and PostgreSQL tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if err := database.Connect(cfg.MongoURI, cfg.MongoDatabase); err != nil {
				return fmt.Errorf("failed to connect to MongoDB: %w", err)
			}
			defer database.Disconnect()

			if err := database.EnsureIndexes(ctx, database.DB); err != nil {
				return fmt.Errorf("failed to ensure MongoDB indexes: %w", err)
			}
			logger.Info("✅ MongoDB indexes ensured")

			if cfg.PostgresURI == "" {
				logger.Warn("POSTGRES_URI not set, skipping PostgreSQL tables")
				return nil
			}
			if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
				return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
			}
			defer database.DisconnectPostgres()

			if err := database.InitPostgresTables(ctx, database.PostgresDB); err != nil {
				return fmt.Errorf("failed to create PostgreSQL tables: %w", err)
			}
			logger.Info("✅ PostgreSQL tables ready")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Maximum time for the migration")
	return cmd
}
