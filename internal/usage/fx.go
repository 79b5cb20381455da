package usage

import (
	"github.com/resailhq/resail/internal/usage/service"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.service",
	fx.Provide(service.NewLinkResolverCache),
	fx.Provide(service.NewService),
)
