package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/username/tradenorm/src/anthropic"
	"github.com/username/tradenorm/src/cache"
	"github.com/username/tradenorm/src/config"
	"github.com/username/tradenorm/src/database"
	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/parsers/base"
	"github.com/username/tradenorm/src/spac"
	"github.com/username/tradenorm/src/symbols"
)

var rootCmd = &cobra.Command{
	Use:   "tradenorm",
	Short: "Normalize broker transaction exports into canonical trades",
	Long:  "Reads CSV, XLSX or IB Flex XML exports from Fidelity, Robinhood, Interactive Brokers, Schwab, tastytrade, TradingView and Webull and emits one canonical trade per executed row.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadConfig()
		logger.InitLogger(config.Cfg.LogLevel)
		return nil
	},
	SilenceUsage: true,
}

// appEnv is what every command needs: the database and the shared mapper services.
type appEnv struct {
	db   *sql.DB
	deps base.Deps
}

func (e *appEnv) Close() {
	if e.db != nil {
		e.db.Close()
	}
}

// newAppEnv opens the database, warms the symbol cache from it and wires the
// external lookup when an API key is configured.
func newAppEnv(ctx context.Context, cfg *config.AppConfig) (*appEnv, error) {
	logger.L.Info("Initializing database...", "path", cfg.DatabasePath)
	db, err := database.InitDB(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	symbolCache := cache.New(cache.NewSQLiteStore(db))
	if err := symbolCache.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("load symbol cache: %w", err)
	}
	logger.L.Info("Symbol cache loaded", "entries", symbolCache.Len())

	var symbolLookup, infoLookup symbols.Lookup
	if cfg.AnthropicAPIKey != "" {
		client := anthropic.NewClient(cfg.AnthropicAPIKey)
		limiter := rate.NewLimiter(rate.Limit(cfg.LookupRatePerSecond), cfg.LookupBurst)
		models := []string{cfg.LookupModel, cfg.LookupBackupModel}
		symbolLookup = symbols.NewAnthropicLookup(client, symbols.LookupConfig{
			Models: models, MaxTokens: 10, Timeout: cfg.LookupTimeout, Limiter: limiter,
		})
		infoLookup = symbols.NewAnthropicLookup(client, symbols.LookupConfig{
			Models: models, MaxTokens: 500, Timeout: cfg.LookupTimeout, Limiter: limiter,
		})
		logger.L.Info("External symbol lookup enabled", "model", cfg.LookupModel, "backup_model", cfg.LookupBackupModel)
	} else {
		logger.L.Info("ANTHROPIC_API_KEY not set, symbol lookup is offline")
	}

	return &appEnv{
		db: db,
		deps: base.Deps{
			Symbols: symbols.NewResolver(symbolCache, symbolLookup),
			Spac:    spac.NewResolver(symbolCache, infoLookup),
		},
	}, nil
}

func main() {
	rootCmd.AddCommand(serveCmd, normalizeCmd, validateCmd, brokersCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
