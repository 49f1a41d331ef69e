package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/spf13/cobra"

	"github.com/username/tradenorm/src/config"
	"github.com/username/tradenorm/src/database"
	"github.com/username/tradenorm/src/handlers"
	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/parsers"
	"github.com/username/tradenorm/src/parsers/base"
	"github.com/username/tradenorm/src/processors"
	"github.com/username/tradenorm/src/security/validation"
	"github.com/username/tradenorm/src/services"
)

var (
	brokerFlag string
	outputFlag string
)

func newUploadService(env *appEnv, cfg *config.AppConfig) services.UploadService {
	return services.NewUploadService(
		env.deps,
		processors.NewTradeProcessor(cfg.RowConcurrency),
		database.NewTradeStore(env.db),
		gocache.New(cfg.BatchResultTTL, services.CacheCleanupInterval),
	)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		env, err := newAppEnv(ctx, config.Cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		router := handlers.NewRouter(newUploadService(env, config.Cfg), handlers.RouterConfig{
			MaxUploadSizeBytes: config.Cfg.MaxUploadSizeBytes,
			AllowedOrigins:     config.Cfg.AllowedOrigins,
		})

		serverAddr := ":" + config.Cfg.Port
		server := &http.Server{
			Addr:         serverAddr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.L.Info("Server starting", "address", serverAddr)
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		case <-ctx.Done():
			logger.L.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.L.Info("Server stopped gracefully.")
			return nil
		}
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>",
	Short: "Normalize one export and print the batch result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		env, err := newAppEnv(ctx, config.Cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := newUploadService(env, config.Cfg).ProcessUpload(ctx, f, brokerFlag, parsers.DetectFormat(args[0]))
		if err != nil {
			return err
		}
		for i := range result.Trades {
			result.Trades[i].Description = validation.SanitizeForFormulaInjection(result.Trades[i].Description)
		}
		return writeJSON(cmd.OutOrStdout(), outputFlag, result)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check an export's header against a broker's expected columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		// Structure checks never resolve symbols, so no database is opened.
		svc := services.NewUploadService(base.OfflineDeps(), processors.NewTradeProcessor(1), nil, nil)
		res, err := svc.ValidateUpload(cmd.Context(), f, brokerFlag, parsers.DetectFormat(args[0]))
		if err != nil {
			return err
		}
		if err := writeJSON(cmd.OutOrStdout(), "", res); err != nil {
			return err
		}
		if !res.Valid {
			return fmt.Errorf("invalid %s export: %s", res.Broker, res.Error)
		}
		return nil
	},
}

var brokersCmd = &cobra.Command{
	Use:   "brokers",
	Short: "List supported brokers and their aliases",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		byBroker := make(map[string][]string)
		for alias, canonical := range parsers.Aliases {
			byBroker[canonical] = append(byBroker[canonical], alias)
		}
		for _, b := range parsers.SupportedBrokers() {
			aliases := byBroker[b]
			sort.Strings(aliases)
			if _, err := fmt.Fprintf(out, "%-20s %v\n", b, aliases); err != nil {
				return err
			}
		}
		return nil
	},
}

func writeJSON(stdout io.Writer, path string, v any) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	normalizeCmd.Flags().StringVar(&brokerFlag, "broker", "", "broker identifier or alias (see 'tradenorm brokers')")
	normalizeCmd.Flags().StringVar(&outputFlag, "output", "", "write the batch JSON to this file instead of stdout")
	_ = normalizeCmd.MarkFlagRequired("broker")

	validateCmd.Flags().StringVar(&brokerFlag, "broker", "", "broker identifier or alias")
	_ = validateCmd.MarkFlagRequired("broker")
}
