package credit

import (
	"github.com/depictapp/depict/internal/credit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("credit.service",
	fx.Provide(service.New),
)
