// Package domain contains the claim-certainty scoring contract. A scorer
// estimates how likely a claim is to be reimbursed; claims above the flagging
// threshold are marked for submission.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	claimdomain "github.com/reclaimhq/reclaim/internal/claim/domain"
)

// Score is one scoring outcome. Certainty is in [0, 1].
type Score struct {
	Certainty float64 `json:"certainty"`
	Model     string  `json:"model"`
}

// Scorer estimates reimbursement certainty for a claim.
type Scorer interface {
	Score(ctx context.Context, claim *claimdomain.Claim) (Score, error)
}

type ScoreResult struct {
	ClaimID   snowflake.ID `json:"claim_id"`
	Certainty float64      `json:"certainty"`
	Threshold float64      `json:"threshold"`
	Flagged   bool         `json:"flagged"`
	Model     string       `json:"model"`
}

type Service interface {
	ScoreClaim(ctx context.Context, claimID snowflake.ID) (*ScoreResult, error)
}

var (
	ErrScoreOutOfRange = errors.New("certainty_out_of_range")
)
