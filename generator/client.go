package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/certforge/certmint/types"
)

// Client calls the external certificate generation endpoint. The endpoint
// is invoked once per batch and returns one issuance candidate per work
// item, with either a content address or a generation error.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logging.ZapEventLogger
}

// response mirrors the generation endpoint wire format.
type response struct {
	Success bool                      `json:"success"`
	Error   string                    `json:"error,omitempty"`
	Results []types.IssuanceCandidate `json:"results"`
}

// NewClient returns a generation endpoint client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *logging.ZapEventLogger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Generate triggers certificate generation for one batch and returns the
// resulting candidate set. The returned slice preserves the endpoint's
// ordering; callers treat it as immutable for the batch run.
func (c *Client) Generate(ctx context.Context, batchID string) ([]types.IssuanceCandidate, error) {
	endpoint, err := url.JoinPath(c.baseURL, "batches", batchID, "generate")
	if err != nil {
		return nil, fmt.Errorf("invalid generator address: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", "req_"+uuid.NewString())

	c.logger.Debugw("requesting certificate generation", "batch", batchID, "endpoint", endpoint)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation endpoint returned status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}
	if !body.Success {
		if body.Error == "" {
			body.Error = "generation failed"
		}
		return nil, fmt.Errorf("generation endpoint reported failure: %s", body.Error)
	}

	c.logger.Infow("fetched issuance candidates", "batch", batchID, "count", len(body.Results))
	return body.Results, nil
}
