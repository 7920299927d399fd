package challenge

import (
	"github.com/depictapp/depict/internal/challenge/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("challenge",
	fx.Provide(repository.Provide),
)
