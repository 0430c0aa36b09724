// Package httpapi exposes the account and catalog services over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mediashelf/internal/logging"
	"github.com/dmitrijs2005/mediashelf/internal/server/models"
	"github.com/dmitrijs2005/mediashelf/internal/server/services"
)

// UserService is the subset of services.UserService the API needs.
type UserService interface {
	Signup(ctx context.Context, in services.SignupInput) (*models.User, error)
	Login(ctx context.Context, in services.LoginInput) (string, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
}

// MediaService is the subset of services.MediaService the API needs.
type MediaService interface {
	Add(ctx context.Context, ownerID string, in services.MediaInput) (*models.MediaItem, error)
	Get(ctx context.Context, mediaID, callerID string) (*models.MediaItem, error)
	Update(ctx context.Context, mediaID, callerID string, patch services.MediaPatch) (*models.MediaItem, error)
	Delete(ctx context.Context, mediaID, callerID string) error
	Search(ctx context.Context, callerID, mediaType, term string) ([]*models.MediaItem, error)
}

// Options tune the router and server.
type Options struct {
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type HTTPServer struct {
	address   string
	users     UserService
	media     MediaService
	logger    logging.Logger
	jwtSecret []byte
	opts      Options
}

func NewHTTPServer(a string, l logging.Logger, us UserService, ms MediaService, secretKey string, opts Options) *HTTPServer {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		users:     us,
		media:     ms,
		jwtSecret: []byte(secretKey),
		opts:      opts,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-shutdownErr
}
