package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/erazemk/inventar/internal/api"
	"github.com/erazemk/inventar/internal/blobstore"
	"github.com/erazemk/inventar/internal/config"
	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/imaging"
	"github.com/erazemk/inventar/internal/store"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func newRootCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:           "inventar",
		Short:         "Inventory registry server",
		Long:          "Serves an HTTP+JSON registry of inventory items with optional photos stored in a cache directory.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.New(), cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	defaults := config.Defaults()
	flags := cmd.Flags()
	flags.StringP("host", "h", "", "server host (required)")
	flags.IntP("port", "p", 0, "server port (required)")
	flags.StringP("cache", "c", "", "path to cache directory (required)")
	flags.StringP("log", "l", "", "log file path (default: stdout/stderr only)")
	flags.Int64("max-upload", defaults.MaxUploadBytes, "maximum request body size in bytes")
	flags.Int("photo-max-dimension", defaults.PhotoMaxDimension, "maximum stored photo width or height in pixels")
	flags.StringVar(&configFile, "config", "", "optional config file (yaml, json or toml)")

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func serve(cfg config.Config) error {
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		return err
	}
	if closeLog != nil {
		defer closeLog()
	}

	blobs, err := blobstore.Open(cfg.CacheDir, cfg.BlobCacheTTL)
	if err != nil {
		return err
	}

	database, err := db.Open()
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return err
	}

	registry := store.NewRegistry(database)
	count, err := registry.Count(context.Background())
	if err != nil {
		return err
	}
	slog.Info("registry ready", "cache", blobs.Dir(), "count", count)

	handler := api.LoggingMiddleware(api.NewRouter(&api.ItemsHandler{
		Registry:       registry,
		Blobs:          blobs,
		Photos:         imaging.NewProcessor(cfg.PhotoMaxDimension),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "url", "http://"+cfg.Addr()+"/")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
