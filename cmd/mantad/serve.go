package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagarc03/manta"
	"github.com/sagarc03/manta/config"
	mantahttp "github.com/sagarc03/manta/http"
	"github.com/sagarc03/manta/keybackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the mantad HTTP server.

Every account's namespace is served under /<account>/stor. In signed auth
mode requests must carry an rsa-sha256 signature from a configured key of
the account they address.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5709, "HTTP server port")
	serveCmd.Flags().String("auth-mode", "", "authentication mode: signed, public (env: MANTAD_AUTH_MODE)")
	serveCmd.Flags().String("keys-file", "", "JSON file of account public keys (env: MANTAD_AUTH_KEYS_FILE)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	svc, closeBackend, err := openService(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer closeBackend()

	var verifier mantahttp.RequestVerifier
	if cfg.Auth.Signed() {
		store, err := keybackend.NewKeyStore(cfg.Auth.Keys)
		if err != nil {
			return fmt.Errorf("load keys: %w", err)
		}
		if store.Len() == 0 {
			slog.Warn("signed auth mode with no keys configured; every request will be rejected")
		}
		verifier = manta.NewVerifier(store, cfg.Auth.MaxClockSkew)
		slog.Info("signature authentication enabled", "keys", store.Len())
	}

	handlerConfig := mantahttp.HandlerConfig{
		Verifier:      verifier,
		CORS:          cfg.CORS,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		Logger:        slog.Default(),
	}

	handler := mantahttp.NewHandler(&handlerConfig, svc)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-sigCh:
		case <-ctx.Done():
			return
		}

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr, "auth", cfg.Auth.Mode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
