// Package api provides the HTTP REST API and WebSocket server for Door Core.
//
// It exposes door status, command dispatch, transition history, and telemetry
// endpoints to user interfaces (wall panels, dashboards, building management
// frontends).
//
// Construction and lifecycle mirror the infrastructure clients: New wires
// the server without side effects, Start binds the listener and launches
// the background goroutines, Close drains and stops them.
//
// All exported methods are safe for concurrent use.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/door-core/internal/auth"
	"github.com/nerrad567/door-core/internal/door"
	"github.com/nerrad567/door-core/internal/infrastructure/config"
	"github.com/nerrad567/door-core/internal/infrastructure/database"
	"github.com/nerrad567/door-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/door-core/internal/infrastructure/logging"
	"github.com/nerrad567/door-core/internal/infrastructure/mqtt"
)

// shutdownGrace bounds how long Close waits for in-flight requests
// before the listener is torn down anyway.
const shutdownGrace = 10 * time.Second

// Deps carries the server's constructor dependencies.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Registry *door.Registry
	History  door.HistoryRepository // optional: history endpoint returns 503 without it
	Influx   *influxdb.Client       // optional: metrics endpoint returns 503 without it
	MQTT     *mqtt.Client           // optional: WebSocket relay stays silent without it
	DB       *database.DB           // optional: component status + pool stats
	Version  string
}

// Server is the HTTP API server for Door Core. It owns the listener,
// the middleware chain, the WebSocket hub and the ticket store.
type Server struct {
	cfg       config.APIConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	registry  *door.Registry
	users     *auth.UserStore
	history   door.HistoryRepository
	influx    *influxdb.Client
	mqtt      *mqtt.Client
	db        *database.DB
	version   string
	startTime time.Time
	server    *http.Server
	hub       *Hub
	tickets   *ticketStore
	cancel    context.CancelFunc // stops hub and ticket cleanup on Close
}

// New wires a server from its dependencies without starting it.
//
// Logger and Registry are mandatory. MQTT, history, telemetry and the
// database are optional: the endpoints they back degrade to 503 or stay
// silent instead of failing construction. Accounts from the security
// configuration are loaded into an immutable store here.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("door registry is required")
	}

	s := &Server{
		cfg:       deps.Config,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		registry:  deps.Registry,
		users:     loadAccounts(deps.Security),
		history:   deps.History,
		influx:    deps.Influx,
		mqtt:      deps.MQTT,
		db:        deps.DB,
		version:   deps.Version,
		startTime: time.Now(),
		tickets:   newTicketStore(),
	}
	s.hub = NewHub(deps.WS, deps.Logger)

	return s, nil
}

// loadAccounts converts the configured user list into the immutable
// store handleLogin authenticates against. Config validation has
// already rejected unknown roles and missing hashes.
func loadAccounts(sec config.SecurityConfig) *auth.UserStore {
	users := make([]auth.User, 0, len(sec.Users))
	for _, u := range sec.Users {
		users = append(users, auth.User{
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			Role:         auth.Role(u.Role),
		})
	}
	return auth.NewUserStore(users)
}

// Start launches the listener and the background goroutines.
//
// The hub and the ticket janitor run until Close; the MQTT relay
// subscription is attempted once and only logged on failure, since the
// REST surface works without it. Start returns immediately, listen
// errors surface through the logger.
func (s *Server) Start(ctx context.Context) error {
	// Derive our own context so Close can stop the background
	// goroutines even when the parent context outlives the server.
	srvCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.hub.Run(srvCtx)
	go s.sweepTicketsLoop(srvCtx)

	if err := s.subscribeDoorTopics(); err != nil {
		s.logger.Warn("state update subscription failed, WebSocket relay disabled", "error", err)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	go s.serve()

	return nil
}

// serve runs the blocking listen loop. ErrServerClosed is the normal
// Shutdown result and not worth a log line.
func (s *Server) serve() {
	var err error
	if s.cfg.TLS.Enabled {
		s.logger.Info("API server starting with TLS",
			"address", s.server.Addr,
			"cert", s.cfg.TLS.CertFile,
		)
		err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
	} else {
		err = s.server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("API server error", "error", err)
	}
}

// Close drains in-flight requests for up to shutdownGrace, then closes
// whatever is left. Safe to call on a server that never started.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	s.logger.Info("draining API connections")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started. Listen
// failures after Start are asynchronous, so this is a liveness answer
// rather than proof the port is still bound.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check cancelled: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return errors.New("api server not started")
	}

	return nil
}
