package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newsflow/internal/config"
	"newsflow/internal/database"
	"newsflow/internal/logger"
)

// Version will be set during build
var Version = "dev"

var (
	port     int
	dbDSN    string
	dbDriver string
	prodMode bool
)

var rootCmd = &cobra.Command{
	Use:   "newsflow",
	Short: "News aggregation server",
	Long: `Newsflow polls RSS and Atom sources, stores their articles and serves them
to readers together with bookmarks, notes and reading statistics.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&port, "port", 0, "Port to run the server on (default: 8080 or NEWSFLOW_PORT)")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "db", "", "Database DSN or SQLite path (default: data/newsflow.db or NEWSFLOW_DB_DSN)")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "", "Database driver: sqlite, postgres or mysql (default: NEWSFLOW_DB_DRIVER)")
	rootCmd.PersistentFlags().BoolVar(&prodMode, "prod", false, "Enable production mode (secure cookies, JSON logs)")

	rootCmd.AddCommand(serveCmd, refreshCmd, sweepCmd, migrateCmd, hashPasswordCmd, versionCmd)
}

// loadConfig reads the environment, applies flags that were set explicitly
// and validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.GetConfig()
	changed := func(name string) bool {
		f := cmd.Flag(name)
		return f != nil && f.Changed
	}
	if changed("port") {
		cfg.Port = port
	}
	if changed("db") {
		cfg.DBDSN = dbDSN
	}
	if changed("driver") {
		cfg.DBDriver = dbDriver
	}
	if changed("prod") {
		cfg.ProductionMode = prodMode
	}
	if cfg.ProductionMode && os.Getenv("NEWSFLOW_LOG_MODE") == "" {
		cfg.LogMode = "production"
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openDB(cfg config.Config, log *logger.Logger) (*database.DB, error) {
	dbCfg := database.DefaultConfig()
	dbCfg.MaxOpenConns = cfg.MaxOpenConns
	dbCfg.MaxIdleConns = cfg.MaxOpenConns
	db, err := database.NewDB(cfg.DBDriver, cfg.DSN(), dbCfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// bootstrap loads configuration, the logger and the database shared by
// every subcommand.
func bootstrap(cmd *cobra.Command) (config.Config, *logger.Logger, *database.DB, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, nil, nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	db, err := openDB(cfg, log)
	if err != nil {
		log.Sync()
		return cfg, nil, nil, err
	}
	return cfg, log, db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
