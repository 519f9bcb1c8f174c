package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DoyleJ11/wordlink-backend/internal/arbiter"
	"github.com/DoyleJ11/wordlink-backend/internal/archive"
	"github.com/DoyleJ11/wordlink-backend/internal/config"
	"github.com/DoyleJ11/wordlink-backend/internal/games"
	"github.com/DoyleJ11/wordlink-backend/internal/httpapi"
	"github.com/DoyleJ11/wordlink-backend/internal/hub"
	"github.com/DoyleJ11/wordlink-backend/internal/oracle"
	"github.com/DoyleJ11/wordlink-backend/internal/players"
	"github.com/DoyleJ11/wordlink-backend/internal/queue"
	"github.com/DoyleJ11/wordlink-backend/internal/store"
	"github.com/DoyleJ11/wordlink-backend/internal/timer"
	"github.com/DoyleJ11/wordlink-backend/internal/wordcheck"
	"github.com/DoyleJ11/wordlink-backend/internal/ws"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := store.Open(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, rdb.Close()) }()

	db, err := archive.Open(cfg.Archive.Driver, cfg.Archive.DSN)
	if err != nil {
		return err
	}
	history, err := archive.New(db)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, history.Close()) }()

	morph, err := wordcheck.NewEnglish()
	if err != nil {
		return err
	}
	validator := wordcheck.New(oracle.New(oracle.Config{
		APIKey:     cfg.Oracle.APIKey,
		BaseURL:    cfg.Oracle.BaseURL,
		Model:      cfg.Oracle.Model,
		Timeout:    cfg.Oracle.Timeout,
		MaxRetries: cfg.Oracle.MaxRetries,
	}, logger.Named("oracle")), morph, logger.Named("wordcheck"))

	h := hub.NewHub(ctx, logger.Named("hub"))
	defer h.Shutdown()

	timers := timer.NewLocal()
	defer timers.Stop()

	accounts := players.New(rdb)
	arb := arbiter.New(ctx, arbiter.Config{
		TurnTime:  cfg.Game.TurnTime,
		Countdown: cfg.Game.Countdown,
	}, arbiter.Deps{
		Queue:     queue.New(rdb),
		Games:     games.New(rdb),
		Validator: validator,
		Timers:    timers,
		Notifier:  h,
		Nicknames: accounts,
		Archive:   history,
	}, logger.Named("arbiter"))

	handler := httpapi.SetupRoutes(httpapi.Deps{
		Players: accounts,
		Arbiter: arb,
		History: history,
		Socket:  ws.Handler(h, accounts, originPatterns(cfg.FrontendURL), logger.Named("ws")),
		Log:     logger.Named("http"),
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Env))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// originPatterns turns FRONTEND_URL into the host pattern the websocket
// origin check expects.
func originPatterns(frontendURL string) []string {
	if frontendURL == "" {
		return nil
	}
	if u, err := url.Parse(frontendURL); err == nil && u.Host != "" {
		return []string{u.Host}
	}
	return []string{frontendURL}
}
