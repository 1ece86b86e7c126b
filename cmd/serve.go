package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pixelecho/echoframe/internal/assets"
	"github.com/pixelecho/echoframe/internal/config"
	"github.com/pixelecho/echoframe/internal/gemini"
	"github.com/pixelecho/echoframe/internal/handlers"
	"github.com/pixelecho/echoframe/internal/history"
	"github.com/pixelecho/echoframe/internal/session"
	"github.com/pixelecho/echoframe/internal/storage"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the echoframe web server",
		Long: `Starts the echoframe web interface.

Each browser session supplies its own Gemini API key; the key lives only in
that session's in-memory state and is dropped when the session ends.`,
		Example: `  # Start server on the default port 8888
  echoframe serve

  # Start server with a config file
  echoframe serve --config echoframe.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			store, err := assets.NewStore(cfg.DataDir)
			if err != nil {
				return err
			}

			auditLog := history.NewLog(cfg.HistoryLimit)
			registry := storage.NewRegistry(func() *session.Controller {
				holder := gemini.NewHolder(cfg.Model)
				gateway := gemini.NewGateway(holder, cfg.Model, store)
				return session.New(holder, gateway, store, nil)
			}, cfg.SessionTTL)

			sweepCtx, stopSweep := context.WithCancel(context.Background())
			defer stopSweep()
			go registry.Sweep(sweepCtx, 10*time.Minute)

			handler := handlers.New(registry, store, auditLog, cfg.SoftUploadLimitMB)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/sessions", handler.HandleSessions)
			mux.HandleFunc("/api/sessions/", handler.HandleSessionDetail)
			mux.HandleFunc("/api/history.parquet", handler.HandleHistoryExport)
			mux.HandleFunc("/", handler.HandleStatic)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Echoframe available", "addr", addr, "url", "http://localhost"+addr, "model", cfg.Model)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "echoframe.yaml", "Path to YAML config file")

	return cmd
}
