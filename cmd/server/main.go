package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"

	"github.com/hongminglow/lapse-be/internal/config"
	"github.com/hongminglow/lapse-be/internal/logger"
	"github.com/hongminglow/lapse-be/internal/server"
	"github.com/hongminglow/lapse-be/internal/storage"
	"github.com/hongminglow/lapse-be/internal/storage/memory"
	"github.com/hongminglow/lapse-be/internal/storage/postgres"
	"github.com/hongminglow/lapse-be/internal/storage/sqlite"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code once deferred cleanup has run.
func run() int {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("load config: %v", err)
		return 1
	}
	level := logger.ParseLevel(cfg.LogLevel)
	logger.InitLogger(level)

	ctx := context.Background()
	store, err := openStore(ctx, cfg, level == logging.DEBUG)
	if err != nil {
		logger.Errorf("init %s storage: %v", cfg.StorageDriver, err)
		return 1
	}
	defer store.Close()

	srv := server.New(cfg, store)

	if cfg.Admin.Enabled() {
		seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		_, err := srv.Users.EnsureAdmin(seedCtx, cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password)
		cancel()
		if err != nil {
			logger.Errorf("seed admin: %v", err)
			return 1
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	logger.Infof("lapse backend listening on %s (storage=%s)", cfg.HTTPAddress(), cfg.StorageDriver)
	return serve(srv, sigCh)
}

type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serve runs srv until a signal arrives or it fails, then shuts it down.
// It returns 1 when the server stopped on its own error.
func serve(srv httpServer, stop <-chan os.Signal) int {
	code := 0
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case sig := <-stop:
		logger.Infof("received %s, shutting down", sig)
	case err := <-serveErr:
		logger.Errorf("http server error: %v", err)
		code = 1
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("graceful shutdown error: %v", err)
	}
	return code
}

func openStore(ctx context.Context, cfg config.Config, debug bool) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return postgres.NewStore(ctx, cfg.DatabaseURL)
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath, debug)
	case config.DriverMemory:
		logger.Warning("using in-memory storage; data is lost on restart")
		return memory.NewStore(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found; relying on existing environment")
	}
}
