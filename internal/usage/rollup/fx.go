package rollup

import (
	"context"

	"github.com/resailhq/resail/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("usage.rollup",
	fx.Provide(func(cfg config.Config) Config {
		return Config{
			BatchSize:    cfg.Rollup.BatchSize,
			PollInterval: cfg.Rollup.PollInterval,
		}
	}),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, worker *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go worker.RunForever(ctx)
			return nil
		},
	})
}
