// Package server initializes and runs the vault server: it opens the
// database, applies migrations, loads the cipher key, wires the services,
// and serves the HTTP API until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akarpov87/securevault/internal/biometric"
	"github.com/akarpov87/securevault/internal/cryptox"
	"github.com/akarpov87/securevault/internal/logging"
	"github.com/akarpov87/securevault/internal/server/config"
	"github.com/akarpov87/securevault/internal/server/httpapi"
	"github.com/akarpov87/securevault/internal/server/repositories/repomanager"
	"github.com/akarpov87/securevault/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	identity *services.IdentityService
	vault    *services.VaultService
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	key, err := cryptox.LoadOrCreateKey(c.CipherKeyPath)
	if err != nil {
		return nil, fmt.Errorf("cipher key error: %w", err)
	}
	cipher, err := cryptox.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init error: %w", err)
	}

	extractor := biometric.NewHTTPExtractor(c.ExtractorEndpoint)

	identity := services.NewIdentityService(db, rm, extractor, c)
	vault := services.NewVaultService(db, rm, cipher, c)

	return &App{config: c, logger: logger, db: db, identity: identity, vault: vault}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger,
		app.identity, app.vault, app.config.SecretKey, app.config.MaxUploadSize)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
