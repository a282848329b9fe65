package receipt

import (
	"github.com/careloop/clinicore/internal/receipt/render"
	"github.com/careloop/clinicore/internal/receipt/service"
	"go.uber.org/fx"
)

var Module = fx.Module("receipt.service",
	fx.Provide(render.NewPDFRenderer),
	fx.Provide(service.NewService),
)
