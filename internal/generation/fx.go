package generation

import (
	"github.com/depictapp/depict/internal/generation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("generation.service",
	fx.Provide(service.New),
)
