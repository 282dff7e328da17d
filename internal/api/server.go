// Package api provides the HTTP server for FabLock Core.
//
// It exposes two surfaces: the machine protocol (line-oriented text consumed
// by embedded controllers at the doors and tools) and the JSON admin API used
// by management frontends. Both run on the same listener.
//
// The server follows the same lifecycle pattern as the other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rbining/fablock-core/internal/access"
	"github.com/rbining/fablock-core/internal/auth"
	"github.com/rbining/fablock-core/internal/device"
	"github.com/rbining/fablock-core/internal/infrastructure/config"
	"github.com/rbining/fablock-core/internal/infrastructure/logging"
	"github.com/rbining/fablock-core/internal/qualification"
	"github.com/rbining/fablock-core/internal/user"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config         config.APIConfig
	Security       config.SecurityConfig
	Logger         *logging.Logger
	Authenticator  *auth.Authenticator
	Resolver       *access.Resolver
	Admins         auth.AdminRepository
	Devices        device.Repository
	Tools          device.ToolRepository
	Users          user.Repository
	Qualifications qualification.Repository
	Version        string
}

// Server is the HTTP API server for FabLock Core.
//
// It manages the HTTP listener, routes, and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg            config.APIConfig
	secCfg         config.SecurityConfig
	logger         *logging.Logger
	authenticator  *auth.Authenticator
	resolver       *access.Resolver
	admins         auth.AdminRepository
	devices        device.Repository
	tools          device.ToolRepository
	users          user.Repository
	qualifications qualification.Repository
	version        string
	server         *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}

	return &Server{
		cfg:            deps.Config,
		secCfg:         deps.Security,
		logger:         deps.Logger,
		authenticator:  deps.Authenticator,
		resolver:       deps.Resolver,
		admins:         deps.Admins,
		devices:        deps.Devices,
		tools:          deps.Tools,
		users:          deps.Users,
		qualifications: deps.Qualifications,
		version:        deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
