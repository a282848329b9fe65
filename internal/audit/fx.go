package audit

import (
	"github.com/careloop/clinicore/internal/audit/repository"
	"github.com/careloop/clinicore/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
