package scorer

import (
	"context"
	"strings"

	claimdomain "github.com/reclaimhq/reclaim/internal/claim/domain"
	"github.com/reclaimhq/reclaim/internal/certainty/domain"
)

const heuristicModel = "heuristic-v1"

// Heuristic scores claims locally when no scoring service is configured.
// Small, well-described claims score higher; the output is deterministic for
// a given claim.
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Score(_ context.Context, claim *claimdomain.Claim) (domain.Score, error) {
	if claim == nil {
		return domain.Score{}, claimdomain.ErrClaimNotFound
	}

	certainty := 0.5

	switch {
	case claim.AmountCents <= 0:
		certainty = 0
	case claim.AmountCents < 5_000:
		certainty += 0.3
	case claim.AmountCents < 50_000:
		certainty += 0.15
	case claim.AmountCents > 500_000:
		certainty -= 0.25
	}

	if len(strings.TrimSpace(claim.Description)) >= 40 {
		certainty += 0.1
	}

	if certainty < 0 {
		certainty = 0
	}
	if certainty > 1 {
		certainty = 1
	}
	return domain.Score{Certainty: certainty, Model: heuristicModel}, nil
}
