package worker

import (
	"context"

	"github.com/reclaimhq/reclaim/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("submission.worker",
	fx.Provide(newConfig),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func newConfig(cfg config.Config) Config {
	return Config{
		Provider:     cfg.Partner.Provider,
		PollInterval: cfg.Submitter.PollInterval,
		BatchSize:    cfg.Submitter.BatchSize,
		MaxAttempts:  cfg.Submitter.MaxAttempts,
	}.withDefaults()
}

func runWorker(lc fx.Lifecycle, worker *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go worker.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
