package billing

import (
	"github.com/reclaimhq/reclaim/internal/billing/repository"
	"github.com/reclaimhq/reclaim/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
