package journal

import (
	"github.com/reclaimhq/reclaim/internal/journal/repository"
	"github.com/reclaimhq/reclaim/internal/journal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("journal.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
