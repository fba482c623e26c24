// Package scorer provides the certainty scorer implementations: an HTTP
// client for an external scoring service and a local heuristic fallback.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	claimdomain "github.com/reclaimhq/reclaim/internal/claim/domain"
	"github.com/reclaimhq/reclaim/internal/certainty/domain"
	"github.com/reclaimhq/reclaim/internal/config"
)

type scoreRequest struct {
	CaseID      string `json:"case_id"`
	CaseNumber  string `json:"case_number"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type scoreResponse struct {
	Certainty float64 `json:"certainty"`
	Model     string  `json:"model"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type HTTPScorer struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

func NewHTTPScorer(cfg config.ScorerConfig) *HTTPScorer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &HTTPScorer{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiToken: strings.TrimSpace(cfg.APIToken),
		client:   &http.Client{Timeout: timeout},
	}
}

func (s *HTTPScorer) Score(ctx context.Context, claim *claimdomain.Claim) (domain.Score, error) {
	if claim == nil {
		return domain.Score{}, claimdomain.ErrClaimNotFound
	}

	body, err := json.Marshal(scoreRequest{
		CaseID:      claim.ID.String(),
		CaseNumber:  claim.CaseNumber,
		AmountCents: claim.AmountCents,
		Currency:    claim.Currency,
		Description: claim.Description,
	})
	if err != nil {
		return domain.Score{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/scores", bytes.NewReader(body))
	if err != nil {
		return domain.Score{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Score{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return domain.Score{}, errors.New("scorer_request_failed")
		}
		message := strings.TrimSpace(apiErr.Error.Message)
		if message == "" {
			message = "scorer_request_failed"
		}
		return domain.Score{}, errors.New(message)
	}

	var scored scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&scored); err != nil {
		return domain.Score{}, err
	}
	if scored.Certainty < 0 || scored.Certainty > 1 {
		return domain.Score{}, domain.ErrScoreOutOfRange
	}
	if scored.Model == "" {
		scored.Model = "remote"
	}
	return domain.Score{Certainty: scored.Certainty, Model: scored.Model}, nil
}
