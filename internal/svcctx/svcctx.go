// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/novelarc/novelarc/internal/config"
	"github.com/novelarc/novelarc/internal/defra"
	"github.com/novelarc/novelarc/internal/home"
	"github.com/novelarc/novelarc/internal/jobs"
	"github.com/novelarc/novelarc/internal/pipeline"
	"github.com/novelarc/novelarc/internal/store"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	DefraClient  *defra.Client
	Stores       *store.Stores
	Jobs         jobs.Store
	Orchestrator *pipeline.Orchestrator
	Config       *config.Manager
	Logger       *slog.Logger
	Home         *home.Dir
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// DefraClientFrom extracts the DefraDB client from context.
func DefraClientFrom(ctx context.Context) *defra.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.DefraClient
	}
	return nil
}

// StoresFrom extracts the domain store bundle from context.
func StoresFrom(ctx context.Context) *store.Stores {
	if s := ServicesFrom(ctx); s != nil {
		return s.Stores
	}
	return nil
}

// JobsFrom extracts the translation job store from context.
func JobsFrom(ctx context.Context) jobs.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Jobs
	}
	return nil
}

// OrchestratorFrom extracts the pipeline orchestrator from context.
func OrchestratorFrom(ctx context.Context) *pipeline.Orchestrator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Orchestrator
	}
	return nil
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}
