package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"newsflow/internal/ai"
	"newsflow/internal/auth"
	"newsflow/internal/config"
	"newsflow/internal/database"
	"newsflow/internal/events"
	"newsflow/internal/feed"
	"newsflow/internal/housekeeping"
	"newsflow/internal/logger"
	"newsflow/internal/scheduler"
	"newsflow/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server with scheduled ingestion and retention",
	RunE:  runServe,
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one ingestion cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()
		defer db.Close()

		pub := newPublisher(cfg, log)
		defer pub.Close()

		svc := newFeedService(cfg, db, pub, log)
		if err := seedSources(cmd.Context(), cfg, svc); err != nil {
			return err
		}
		report, err := svc.RefreshAllSources(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one retention sweep and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()
		defer db.Close()

		report, err := housekeeping.NewSweeper(db, cfg.RetentionDays, log).Sweep(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()
		defer db.Close()
		log.Info("schema is up to date", "driver", cfg.DBDriver)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for NEWSFLOW_ADMIN_PASSWORD_HASH",
	Long:  "Hashes the password given as argument, or read from the first line of stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Newsflow version %s\n", Version)
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, db, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer db.Close()

	log.Info("starting newsflow",
		"version", Version,
		"port", cfg.Port,
		"driver", cfg.DBDriver,
		"production", cfg.ProductionMode,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub := newPublisher(cfg, log)
	defer pub.Close()

	feeds := newFeedService(cfg, db, pub, log)
	if err := seedSources(ctx, cfg, feeds); err != nil {
		return err
	}
	sweeper := housekeeping.NewSweeper(db, cfg.RetentionDays, log)

	var enhancer ai.Enhancer
	if e := ai.NewLLMEnhancer(cfg.AnthropicAPIKey, cfg.AIModel, log); e != nil {
		enhancer = e
	} else {
		log.Warn("ANTHROPIC_API_KEY not set, article enhancement disabled")
	}
	if cfg.AuthSecret == "" {
		log.Warn("NEWSFLOW_AUTH_SECRET not set, user routes will reject every request")
	}

	srv := server.NewServer(server.Deps{
		DB:       db,
		Feeds:    feeds,
		Sweeper:  sweeper,
		Enhancer: enhancer,
		Verifier: auth.NewVerifier(cfg.AuthSecret),
		Admin:    auth.NewAdmin(cfg.AdminPasswordHash),
		Log:      log,
	}, server.Config{
		ProductionMode: cfg.ProductionMode,
		LoginURL:       cfg.LoginURL,
		CORSOrigins:    cfg.CORSOrigins,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start(cfg.GetAddress())
	}()

	supervisor := scheduler.New(log)
	supervisor.Add(scheduler.Job{
		Name:       "ingestion",
		At:         cfg.RefreshAt,
		RunAtStart: true,
		StartDelay: cfg.StartupDelay,
		Run: func(ctx context.Context) error {
			_, err := feeds.RefreshAllSources(ctx)
			return err
		},
	})
	supervisor.Add(scheduler.Job{
		Name: "retention",
		At:   cfg.SweepAt,
		Run: func(ctx context.Context) error {
			_, err := sweeper.Sweep(ctx)
			return err
		},
	})
	supervisor.Start(ctx)
	defer supervisor.Stop()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	supervisor.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func newPublisher(cfg config.Config, log *logger.Logger) events.Publisher {
	pub, err := events.New(cfg.NATSURL, log)
	if err != nil {
		log.Warn("event publishing disabled", "error", err)
		return events.Nop{}
	}
	return pub
}

func newFeedService(cfg config.Config, db *database.DB, pub events.Publisher, log *logger.Logger) *feed.Service {
	return feed.NewService(db, feed.NewFetcher(), pub, log, feed.Options{
		ItemsPerSource: cfg.ItemsPerSource,
		Concurrency:    cfg.FetchConcurrency,
	})
}

func seedSources(ctx context.Context, cfg config.Config, svc *feed.Service) error {
	defs, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		return err
	}
	if _, err := svc.SeedDefaultSources(ctx, defs); err != nil {
		return fmt.Errorf("failed to seed sources: %w", err)
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
