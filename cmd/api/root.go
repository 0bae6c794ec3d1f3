package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petadopt-backend/internal/config"
	"petadopt-backend/internal/infrastructure/database"
	"petadopt-backend/internal/interfaces/router"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "petadopt",
	Short: "Pet adoption API",
	Long: `petadopt serves the pet adoption API: sign-in, pet listings, search,
favorites and profiles. Without a subcommand it runs the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("config load: %w", err)
		}
		c.SetupLogger()
		cfg = c
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), false)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		migrate, _ := cmd.Flags().GetBool("migrate")
		return serve(cmd.Context(), migrate)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info().Msg("database migrated")
		return nil
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "run migrations before listening")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func serve(ctx context.Context, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	app, db, rdb, err := router.CreateApp(cfg)
	if err != nil {
		return fmt.Errorf("app create: %w", err)
	}
	defer rdb.Close()

	if db != nil {
		if err := (&database.Pinger{DB: db}).Ping(); err != nil {
			return fmt.Errorf("postgres connection failed: %w", err)
		}
		log.Info().Msg("database connected")
		if migrate {
			if err := database.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info().Msg("redis connected")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msgf("server running at http://localhost:%s", cfg.Port)
	log.Info().Msgf("health check: http://localhost:%s/health/json", cfg.Port)
	return app.Listen(":" + cfg.Port)
}
