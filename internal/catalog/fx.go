package catalog

import (
	"github.com/careloop/clinicore/internal/catalog/repository"
	"github.com/careloop/clinicore/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
