package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackzampolin/fireform/internal/api"
	"github.com/jackzampolin/fireform/internal/config"
	"github.com/jackzampolin/fireform/internal/fill"
	"github.com/jackzampolin/fireform/internal/home"
	"github.com/jackzampolin/fireform/internal/providers"
	"github.com/jackzampolin/fireform/internal/render"
	"github.com/jackzampolin/fireform/internal/server/endpoints"
	"github.com/jackzampolin/fireform/internal/svcctx"
	"github.com/jackzampolin/fireform/internal/templates"
)

// Server is the main FireForm HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *providers.Registry
	compiler   render.Compiler
	configMgr  *config.Manager
	logger     *slog.Logger

	readyTimeout time.Duration

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	// ready is set once the inference service has answered a probe.
	ready atomic.Bool

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: server.host from config)
	Host string
	// Port is the port to listen on (default: server.port from config)
	Port string
	// ConfigManager provides configuration with hot-reload support.
	// When nil, defaults are used.
	ConfigManager *config.Manager
	// Home is the fireform home directory (default: ~/.fireform)
	Home *home.Dir
	// Registry overrides the provider registry built from config.
	Registry *providers.Registry
	// Compiler overrides the LaTeX compiler built from config.
	Compiler render.Compiler
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	appCfg := config.DefaultConfig()
	if cfg.ConfigManager != nil {
		appCfg = cfg.ConfigManager.Get()
	}
	if cfg.Host == "" {
		cfg.Host = appCfg.Server.Host
	}
	if cfg.Port == "" {
		cfg.Port = appCfg.Server.Port
	}

	if cfg.Home == nil {
		h, err := home.New("")
		if err != nil {
			return nil, err
		}
		cfg.Home = h
	}
	if err := cfg.Home.EnsureExists(); err != nil {
		return nil, err
	}

	registry := cfg.Registry
	if registry == nil {
		var err error
		registry, err = providers.NewRegistry(appCfg.ToProviderConfig(), cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider registry: %w", err)
		}
	}

	compiler := cfg.Compiler
	if compiler == nil {
		var err error
		compiler, err = render.NewCompiler(appCfg.Render.Engine, appCfg.Render.Binary, appCfg.Render.Image)
		if err != nil {
			return nil, err
		}
	}

	store, err := templates.NewStore(cfg.Home.TemplatesPath())
	if err != nil {
		return nil, err
	}

	fillSvc, err := fill.NewService(fill.Config{
		Clients:  registry,
		Compiler: compiler,
		Passes:   appCfg.Render.Passes,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		registry:     registry,
		compiler:     compiler,
		configMgr:    cfg.ConfigManager,
		logger:       cfg.Logger,
		readyTimeout: appCfg.ReadyTimeout(),
	}

	s.services = &svcctx.Services{
		Registry:  registry,
		Fill:      fillSvc,
		Templates: store,
		Config:    cfg.ConfigManager,
		Logger:    cfg.Logger,
		Home:      cfg.Home,
	}

	// Watch for config changes
	if cfg.ConfigManager != nil && cfg.Registry == nil {
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			if err := registry.Reload(c.ToProviderConfig()); err != nil {
				cfg.Logger.Error("failed to reload provider", "error", err)
				return
			}
			s.ready.Store(false)
			cfg.Logger.Info("provider registry reloaded from config",
				"provider", c.LLM.Provider, "model", c.LLM.Model)
		})
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withServices(s.logRequests(mux)),
		ReadTimeout: 30 * time.Second,
		// One extraction makes a model call per field.
		WriteTimeout: api.DefaultTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// readyWaiter is implemented by clients that can block until their
// service is reachable.
type readyWaiter interface {
	WaitReady(ctx context.Context, timeout time.Duration) error
}

// Start serves HTTP until the context is cancelled or an error occurs.
// The inference service is probed in the background; endpoints that need
// it answer 503 until it responds.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	go s.waitForLLM(ctx)

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

func (s *Server) waitForLLM(ctx context.Context) {
	client := s.registry.Current()
	w, ok := client.(readyWaiter)
	if !ok || s.readyTimeout <= 0 {
		return
	}
	s.logger.Info("waiting for inference service", "provider", client.Name(), "timeout", s.readyTimeout)
	if err := w.WaitReady(ctx, s.readyTimeout); err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("inference service not reachable; extraction will retry on demand", "error", err)
		}
		return
	}
	s.ready.Store(true)
	s.logger.Info("inference service is ready", "provider", client.Name())
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if c, ok := s.compiler.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			s.logger.Error("compiler close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the server's HTTP handler with services attached.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Registry returns the provider registry.
func (s *Server) Registry() *providers.Registry {
	return s.registry
}
