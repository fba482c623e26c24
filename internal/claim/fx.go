package claim

import (
	"github.com/reclaimhq/reclaim/internal/claim/repository"
	"github.com/reclaimhq/reclaim/internal/claim/service"
	"go.uber.org/fx"
)

var Module = fx.Module("claim.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
