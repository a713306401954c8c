// Command tend runs the habit and mood tracking API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tendhq/tend/internal/app"
	"github.com/tendhq/tend/internal/app/httpapi"
	"github.com/tendhq/tend/internal/app/services/chat"
	"github.com/tendhq/tend/internal/app/storage/sqlstore"
	"github.com/tendhq/tend/internal/config"
	"github.com/tendhq/tend/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tend:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores := app.Stores{}
	if cfg.Database.Driver != "" {
		store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer store.Close()
		stores = app.Stores{
			Users:         store,
			Habits:        store,
			Commitments:   store,
			CheckIns:      store,
			Conversations: store,
			People:        store,
		}
		log.WithField("driver", cfg.Database.Driver).Info("database connected")
	} else {
		log.Warn("no database configured; using in-memory storage")
	}

	var provider chat.Provider
	if cfg.Chat.APIKey != "" {
		p, err := chat.NewHTTPProvider(chat.ProviderConfig{
			Endpoint:  cfg.Chat.ProviderURL,
			APIKey:    cfg.Chat.APIKey,
			Model:     cfg.Chat.Model,
			MaxTokens: cfg.Chat.MaxTokens,
			Timeout:   cfg.Chat.Timeout(),
		}, log)
		if err != nil {
			return fmt.Errorf("configure chat provider: %w", err)
		}
		provider = p
	}

	application := app.New(stores, provider, log)
	handler := httpapi.NewHandler(application, cfg.Auth, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(*cfg),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
