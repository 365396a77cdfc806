package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/veil-io/veil/internal/config"
	"github.com/veil-io/veil/internal/engine"
	"github.com/veil-io/veil/internal/metrics"
	"github.com/veil-io/veil/internal/sanitize"
	"github.com/veil-io/veil/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Veil HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP server port (overrides VEIL_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	if !cfg.AuthEnabled() {
		log.Warn().Msg("VEIL_API_TOKEN not set — authentication disabled, all requests accepted")
	}

	scanner, err := buildScanner(cfg)
	if err != nil {
		return fmt.Errorf("building recognition engine: %w", err)
	}

	svc := sanitize.NewService(scanner, sanitize.NewPlaceholderTable())

	opts := []server.Option{
		server.WithVersion(resolvedVersion()),
		server.WithCORSOrigins(cfg.CORSOrigins),
		server.WithMetrics(metrics.New(nil)),
	}
	if cfg.RateLimitRPM > 0 {
		// Global bucket sized at 10x the per-client budget.
		opts = append(opts, server.WithRateLimiter(server.NewRateLimiter(cfg.RateLimitRPM*10, cfg.RateLimitRPM)))
	}

	srv := server.NewServer(svc, cfg.APIToken, cfg.DefaultLanguage, opts...)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().
		Str("addr", addr).
		Str("default_language", cfg.DefaultLanguage).
		Bool("auth", cfg.AuthEnabled()).
		Int("rate_limit_rpm", cfg.RateLimitRPM).
		Int("entity_types", len(scanner.SupportedEntities())).
		Msg("veil_serve_started")

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown_signal_received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server_stopped")
	return nil
}

// buildScanner assembles the recognition engine from config: embedded
// defaults, optional operator pattern file, optional score threshold.
func buildScanner(cfg *config.Config) (*engine.Scanner, error) {
	var opts []engine.Option
	if cfg.PatternFile != "" {
		opts = append(opts, engine.WithPatternFile(cfg.PatternFile))
	}
	if cfg.MinScore > 0 {
		opts = append(opts, engine.WithMinScore(cfg.MinScore))
	}
	return engine.NewScanner(opts...)
}
