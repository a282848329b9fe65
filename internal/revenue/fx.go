package revenue

import (
	"github.com/careloop/clinicore/internal/revenue/service"
	"go.uber.org/fx"
)

var Module = fx.Module("revenue.service",
	fx.Provide(service.NewService),
)
