package billing

import (
	"github.com/careloop/clinicore/internal/billing/repository"
	"github.com/careloop/clinicore/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
