// Package httpapi exposes the vault operations over HTTP: registration and
// two-factor login, token refresh, and the authenticated file endpoints
// (upload, download, delete, listings).
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/akarpov87/securevault/internal/logging"
	"github.com/akarpov87/securevault/internal/server/models"
	"github.com/akarpov87/securevault/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Identity is the slice of the identity service the HTTP layer consumes.
type Identity interface {
	Register(ctx context.Context, username, password string, image []byte) (*models.User, error)
	Authenticate(ctx context.Context, username, password string, image []byte) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Vault is the slice of the vault service the HTTP layer consumes.
type Vault interface {
	Upload(ctx context.Context, userID, filename string, data []byte) (*models.File, error)
	Download(ctx context.Context, userID string, fileID int64) (string, []byte, error)
	Delete(ctx context.Context, userID string, fileID int64) error
	ListFiles(ctx context.Context, userID string) ([]*models.FileInfo, error)
	ListLogs(ctx context.Context, userID string) ([]*models.OperationLog, error)
}

type Server struct {
	address       string
	logger        logging.Logger
	identity      Identity
	vault         Vault
	jwtSecret     []byte
	maxUploadSize int64
}

func NewServer(a string, l logging.Logger, id Identity, v Vault, secretKey string, maxUploadSize int64) *Server {
	return &Server{
		address:       a,
		logger:        l.With("module", "http_server"),
		identity:      id,
		vault:         v,
		jwtSecret:     []byte(secretKey),
		maxUploadSize: maxUploadSize,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/register", s.handleRegister)
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/token/refresh", s.handleRefreshToken)
	r.Post("/api/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.accessTokenMiddleware)
		r.Post("/api/files", s.handleUpload)
		r.Get("/api/files", s.handleListFiles)
		r.Get("/api/files/{id}", s.handleDownload)
		r.Delete("/api/files/{id}", s.handleDelete)
		r.Get("/api/logs", s.handleListLogs)
	})

	return r
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
