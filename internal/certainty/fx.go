package certainty

import (
	"strings"

	"github.com/reclaimhq/reclaim/internal/certainty/domain"
	"github.com/reclaimhq/reclaim/internal/certainty/scorer"
	"github.com/reclaimhq/reclaim/internal/certainty/service"
	"github.com/reclaimhq/reclaim/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("certainty.service",
	fx.Provide(
		newScorer,
		service.NewService,
	),
)

func newScorer(cfg config.Config) domain.Scorer {
	if strings.TrimSpace(cfg.Scorer.BaseURL) == "" {
		return scorer.NewHeuristic()
	}
	return scorer.NewHTTPScorer(cfg.Scorer)
}
