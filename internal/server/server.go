package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/novelarc/novelarc/internal/api"
	"github.com/novelarc/novelarc/internal/config"
	"github.com/novelarc/novelarc/internal/defra"
	"github.com/novelarc/novelarc/internal/home"
	"github.com/novelarc/novelarc/internal/jobs"
	"github.com/novelarc/novelarc/internal/pipeline"
	"github.com/novelarc/novelarc/internal/providers"
	"github.com/novelarc/novelarc/internal/schema"
	"github.com/novelarc/novelarc/internal/server/endpoints"
	"github.com/novelarc/novelarc/internal/store"
	"github.com/novelarc/novelarc/internal/svcctx"
)

// Server is the main Novelarc HTTP server.
// It manages the DefraDB container lifecycle - starting it on server start
// and stopping it on server shutdown.
type Server struct {
	httpServer   *http.Server
	defraManager *defra.DockerManager
	defraClient  *defra.Client
	stores       *store.Stores
	jobStore     jobs.Store
	orchestrator *pipeline.Orchestrator
	configMgr    *config.Manager
	homeDir      *home.Dir
	logger       *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// DefraDataPath is the path to persist DefraDB data
	DefraDataPath string
	// DefraConfig holds DefraDB container settings
	DefraConfig defra.DockerConfig
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Home is the application home directory (uploads, config)
	Home *home.Dir
	// SwaggerSpecPath overrides the default swagger.json location
	SwaggerSpecPath string
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// Set up DefraDB data path
	if cfg.DefraDataPath != "" {
		cfg.DefraConfig.DataPath = cfg.DefraDataPath
	}

	defraManager, err := defra.NewDockerManager(cfg.DefraConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create defra manager: %w", err)
	}

	s := &Server{
		defraManager: defraManager,
		configMgr:    cfg.ConfigManager,
		homeDir:      cfg.Home,
		logger:       cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{
		DefraManager:    defraManager,
		SwaggerSpecPath: cfg.SwaggerSpecPath,
	}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server and DefraDB.
// It blocks until the context is cancelled or an error occurs.
// If an existing DefraDB container exists, it validates the configuration matches.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	// Validate any existing container matches our config
	if err := s.defraManager.ValidateExisting(ctx); err != nil {
		s.setNotRunning()
		return fmt.Errorf("existing DefraDB container incompatible: %w", err)
	}

	// Start DefraDB
	s.logger.Info("starting DefraDB")
	if err := s.defraManager.Start(ctx); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to start DefraDB: %w", err)
	}

	// Create client after DefraDB is up
	s.defraClient = defra.NewClient(s.defraManager.URL())

	// Verify DefraDB is healthy
	if err := s.defraClient.HealthCheck(ctx); err != nil {
		_ = s.shutdown() // Clean up DefraDB on failure
		return fmt.Errorf("DefraDB health check failed: %w", err)
	}
	s.logger.Info("DefraDB is ready", "url", s.defraManager.URL())

	// Initialize schemas
	s.logger.Info("initializing schemas")
	if err := schema.Initialize(ctx, s.defraClient, s.logger); err != nil {
		_ = s.shutdown()
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	// Wire stores and the translation pipeline
	s.stores = store.NewDefraStores(s.defraClient)
	s.jobStore = jobs.NewDefraStore(s.defraClient)
	s.orchestrator = pipeline.New(pipeline.Config{
		Jobs:    s.jobStore,
		Stores:  s.stores,
		Factory: s.providerFactory(),
		Logger:  s.logger,
	})

	// Seed default settings, then push file-configured credentials into the
	// settings store when no keys have been stored yet.
	if err := s.stores.Settings.Seed(ctx, store.DefaultSettings()); err != nil {
		_ = s.shutdown()
		return fmt.Errorf("settings seed failed: %w", err)
	}
	s.seedCredentials(ctx)

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		DefraClient:  s.defraClient,
		Stores:       s.stores,
		Jobs:         s.jobStore,
		Orchestrator: s.orchestrator,
		Config:       s.configMgr,
		Logger:       s.logger,
		Home:         s.homeDir,
	}

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
			_ = s.shutdown() // Clean up DefraDB on HTTP error
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// providerFactory builds LLM clients from the current file configuration.
// The provider config is read at call time, so hot-reloaded changes apply
// to the next client constructed.
func (s *Server) providerFactory() providers.Factory {
	return func(apiKey string) providers.LLMClient {
		var p config.ProviderCfg
		if s.configMgr != nil {
			p = s.configMgr.Get().Provider
		}

		var limiter *providers.RateLimiter
		if p.RateLimit > 0 {
			limiter = providers.NewRateLimiter(int(p.RateLimit * 60))
		}
		timeout := time.Duration(p.TimeoutSeconds) * time.Second

		switch p.Type {
		case "openai":
			return providers.NewOpenAIClient(providers.OpenAIConfig{
				APIKey:       apiKey,
				DefaultModel: p.Model,
				BaseURL:      p.BaseURL,
				Timeout:      timeout,
				Limiter:      limiter,
			})
		default:
			return providers.NewGeminiClient(providers.GeminiConfig{
				APIKey:       apiKey,
				DefaultModel: p.Model,
				BaseURL:      p.BaseURL,
				Timeout:      timeout,
				Limiter:      limiter,
			})
		}
	}
}

// seedCredentials copies file-configured API keys into the settings store
// when the stored credential pool is still empty. Keys managed through the
// settings API are never overwritten.
func (s *Server) seedCredentials(ctx context.Context) {
	if s.configMgr == nil {
		return
	}
	keys := s.configMgr.Get().ResolveAPIKeys()
	if len(keys) == 0 {
		return
	}

	current, err := s.stores.Settings.Get(ctx, store.SettingAPIKeys)
	if err == nil && len(store.ParseAPIKeys(current.Value)) > 0 {
		return
	}

	if err := s.stores.Settings.Set(ctx, store.SettingAPIKeys, store.FormatAPIKeys(keys)); err != nil {
		s.logger.Warn("failed to store configured API keys", "error", err)
		return
	}
	s.logger.Info("stored configured API keys", "count", len(keys))
}

// shutdown performs graceful shutdown of both HTTP server and DefraDB.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop DefraDB
	s.logger.Info("stopping DefraDB")
	if err := s.defraManager.Stop(shutdownCtx); err != nil {
		s.logger.Error("DefraDB stop error", "error", err)
	}

	// Close Docker client
	if err := s.defraManager.Close(); err != nil {
		s.logger.Error("DefraDB manager close error", "error", err)
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

// DefraClient returns the DefraDB client.
// Returns nil if the server hasn't started yet.
func (s *Server) DefraClient() *defra.Client {
	return s.defraClient
}

// Orchestrator returns the translation pipeline orchestrator.
// Returns nil if the server hasn't started yet.
func (s *Server) Orchestrator() *pipeline.Orchestrator {
	return s.orchestrator
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if the stores aren't wired yet.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.defraClient == nil || s.stores == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}
