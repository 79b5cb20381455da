package accountlink

import (
	"github.com/resailhq/resail/internal/accountlink/service"
	"go.uber.org/fx"
)

var Module = fx.Module("accountlink.service",
	fx.Provide(service.NewService),
)
