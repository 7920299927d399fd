package providers

import (
	"github.com/depictapp/depict/internal/config"
	generationdomain "github.com/depictapp/depict/internal/generation/domain"
	"github.com/depictapp/depict/internal/providers/artifact"
	"github.com/depictapp/depict/internal/providers/gemini"
	"github.com/depictapp/depict/internal/providers/grok"
	"go.uber.org/fx"
)

// Module wires the external collaborators of the generation pipeline.
var Module = fx.Module("providers",
	fx.Provide(func(cfg config.Config) generationdomain.Generator {
		return gemini.NewClient(cfg.Providers.GeminiAPIKey, cfg.Providers.GeminiBaseURL)
	}),
	fx.Provide(func(cfg config.Config) *artifact.FSStore {
		return artifact.NewFSStore(cfg.Artifacts.Dir, cfg.Artifacts.PublicBaseURL)
	}),
	fx.Provide(func(store *artifact.FSStore) generationdomain.ArtifactStore {
		return store
	}),
	fx.Provide(func(cfg config.Config) generationdomain.Scorer {
		return grok.NewClient(cfg.Providers.GrokAPIKey, cfg.Providers.GrokBaseURL, cfg.Providers.GrokModel)
	}),
)
