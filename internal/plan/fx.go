package plan

import (
	"github.com/resailhq/resail/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.catalog",
	fx.Provide(service.NewService),
)
