// Package amazon implements the partner client for the Amazon reimbursement
// API.
package amazon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/reclaimhq/reclaim/internal/config"
	"github.com/reclaimhq/reclaim/internal/submission/domain"
)

const providerName = "amazon"

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type statusResponse struct {
	Status string `json:"status"`
}

type Client struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

var ErrMissingToken = errors.New("partner_token_missing")

func NewClient(cfg config.PartnerConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiToken: strings.TrimSpace(cfg.APIToken),
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *Client) Provider() string { return providerName }

func (c *Client) Submit(ctx context.Context, payload domain.SubmitPayload) (domain.SubmitResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.SubmitResult{}, err
	}

	var result domain.SubmitResult
	if err := c.doRequest(ctx, http.MethodPost, "/v1/reimbursements", body, "case:"+payload.CaseID, &result); err != nil {
		return domain.SubmitResult{}, err
	}
	if result.SubmissionID == "" {
		return domain.SubmitResult{}, errors.New("partner_response_invalid")
	}
	return result, nil
}

func (c *Client) GetStatus(ctx context.Context, submissionID string) (domain.PartnerStatus, error) {
	submissionID = strings.TrimSpace(submissionID)
	if submissionID == "" {
		return "", errors.New("partner_submission_id_missing")
	}

	var resp statusResponse
	if err := c.doRequest(ctx, http.MethodGet, "/v1/reimbursements/"+submissionID, nil, "", &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Status) == "" {
		return "", errors.New("partner_response_invalid")
	}
	return domain.PartnerStatus(strings.ToLower(strings.TrimSpace(resp.Status))), nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, idempotencyKey string, out any) error {
	if c.apiToken == "" {
		return ErrMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return errors.New("partner_request_failed")
		}
		message := strings.TrimSpace(apiErr.Error.Message)
		if message == "" {
			message = "partner_request_failed"
		}
		return errors.New(message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
