package scorer

import (
	"context"
	"testing"

	claimdomain "github.com/reclaimhq/reclaim/internal/claim/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristicScoreBands(t *testing.T) {
	h := NewHeuristic()
	ctx := context.Background()

	small, err := h.Score(ctx, &claimdomain.Claim{AmountCents: 1_000})
	require.NoError(t, err)
	large, err := h.Score(ctx, &claimdomain.Claim{AmountCents: 900_000})
	require.NoError(t, err)
	assert.Greater(t, small.Certainty, large.Certainty)

	zero, err := h.Score(ctx, &claimdomain.Claim{AmountCents: 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, zero.Certainty)
}

func TestHeuristicScoreBounded(t *testing.T) {
	h := NewHeuristic()
	claims := []*claimdomain.Claim{
		{AmountCents: 100, Description: "Lost inbound shipment, 12 units missing from FC intake"},
		{AmountCents: 10_000_000},
		{AmountCents: -5},
	}
	for _, claim := range claims {
		score, err := h.Score(context.Background(), claim)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score.Certainty, 0.0)
		assert.LessOrEqual(t, score.Certainty, 1.0)
		assert.Equal(t, "heuristic-v1", score.Model)
	}
}

func TestHeuristicDeterministic(t *testing.T) {
	h := NewHeuristic()
	claim := &claimdomain.Claim{AmountCents: 4_200, Description: "Warehouse damaged two units during a transfer"}

	first, err := h.Score(context.Background(), claim)
	require.NoError(t, err)
	second, err := h.Score(context.Background(), claim)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHeuristicNilClaim(t *testing.T) {
	_, err := NewHeuristic().Score(context.Background(), nil)
	assert.ErrorIs(t, err, claimdomain.ErrClaimNotFound)
}
