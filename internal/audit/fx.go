package audit

import (
	"github.com/resailhq/resail/internal/audit/repository"
	"github.com/resailhq/resail/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
