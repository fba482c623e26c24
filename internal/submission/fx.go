package submission

import (
	"github.com/reclaimhq/reclaim/internal/config"
	"github.com/reclaimhq/reclaim/internal/submission/amazon"
	"github.com/reclaimhq/reclaim/internal/submission/domain"
	"github.com/reclaimhq/reclaim/internal/submission/repository"
	"github.com/reclaimhq/reclaim/internal/submission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("submission.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
		newPartnerClient,
	),
)

func newPartnerClient(cfg config.Config) domain.PartnerClient {
	return amazon.NewClient(cfg.Partner)
}
