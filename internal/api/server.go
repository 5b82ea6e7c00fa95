package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Stainless-Nata/awesomation/internal/account"
	"github.com/Stainless-Nata/awesomation/internal/auth"
	"github.com/Stainless-Nata/awesomation/internal/command"
	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/driver"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/config"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/logging"
	"github.com/Stainless-Nata/awesomation/internal/location"
	"github.com/Stainless-Nata/awesomation/internal/proxy"
	"github.com/Stainless-Nata/awesomation/internal/push"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	WS         config.WebSocketConfig
	Security   config.SecurityConfig
	Logger     *logging.Logger
	Devices    *device.Registry
	Rooms      *location.Registry
	Drivers    *driver.Registry
	Dispatcher *command.Dispatcher
	Accounts   *account.Service
	Persons    auth.PersonRepository
	Fanout     *push.Fanout
	Authorizer *push.Authorizer
	Gateway    *proxy.Gateway
	Hub        *Hub    // push publisher for WebSocket clients
	Events     *Events // optional SSE publisher
	Version    string
}

// Server is the HTTP API server.
//
// It manages the HTTP listener, routes, middleware and the WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	secCfg     config.SecurityConfig
	logger     *logging.Logger
	devices    *device.Registry
	rooms      *location.Registry
	drivers    *driver.Registry
	dispatcher *command.Dispatcher
	accounts   *account.Service
	persons    auth.PersonRepository
	fanout     *push.Fanout
	authorizer *push.Authorizer
	gateway    *proxy.Gateway
	hub        *Hub
	events     *Events
	tickets    *ticketStore
	version    string
	server     *http.Server
	cancel     context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, errors.New("logger is required")
	case deps.Devices == nil || deps.Rooms == nil:
		return nil, errors.New("device and room registries are required")
	case deps.Dispatcher == nil:
		return nil, errors.New("command dispatcher is required")
	case deps.Persons == nil:
		return nil, errors.New("person repository is required")
	case deps.Fanout == nil || deps.Authorizer == nil:
		return nil, errors.New("push fanout and authorizer are required")
	case deps.Hub == nil:
		return nil, errors.New("websocket hub is required")
	}

	ttl := time.Duration(deps.WS.TicketTTL) * time.Second
	return &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		secCfg:     deps.Security,
		logger:     deps.Logger,
		devices:    deps.Devices,
		rooms:      deps.Rooms,
		drivers:    deps.Drivers,
		dispatcher: deps.Dispatcher,
		accounts:   deps.Accounts,
		persons:    deps.Persons,
		fanout:     deps.Fanout,
		authorizer: deps.Authorizer,
		gateway:    deps.Gateway,
		hub:        deps.Hub,
		events:     deps.Events,
		tickets:    newTicketStore(ttl),
		version:    deps.Version,
	}, nil
}

// Handler returns the server's routes without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.tickets.run(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
		// WriteTimeout stays unset: SSE responses are long-lived.
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
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}
	if s.events != nil {
		s.events.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}
