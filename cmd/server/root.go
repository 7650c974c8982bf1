package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/AnshRaj112/mindnest-backend/internal/config"
	"github.com/AnshRaj112/mindnest-backend/internal/logs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "mindnest",
	Short: "MindNest mental health platform backend.",
	Long: `MindNest connects clients with therapists: self-assessments with
severity scoring, therapist profiles, and appointment booking.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(envFile); err != nil {
			fmt.Fprintln(os.Stderr, "No .env file found")
		}
	},
	// Running without a subcommand starts the server.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
}

// loadConfig reads the configuration and installs the process-wide logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logs.New(cfg)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
