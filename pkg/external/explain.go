// Package external holds clients for services outside the core pipeline:
// the explanation model endpoint and its Redis-backed response cache.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pharmgx-twin-server/internal/domain"
)

// ExplainConfig represents configuration for the explanation model client.
type ExplainConfig struct {
	BaseURL   string        `json:"base_url"`
	APIKey    string        `json:"api_key"`
	Model     string        `json:"model"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit float64       `json:"rate_limit"` // requests per second
}

// ExplainClient calls an external language-model endpoint to turn a risk
// assessment into a short patient-facing narrative. It is strictly a side
// channel: callers must tolerate failure.
type ExplainClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// NewExplainClient creates a new explanation client.
func NewExplainClient(config ExplainConfig) *ExplainClient {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}

	return &ExplainClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

type explainRequest struct {
	Model  string `json:"model,omitempty"`
	Prompt string `json:"prompt"`
}

type explainResponse struct {
	Text string `json:"text"`
}

// Explain requests a narrative for one assessment. The prompt carries only
// derived, de-identified fields: drug, gene, phenotype and risk labels.
func (c *ExplainClient) Explain(ctx context.Context, assessment *domain.DrugRiskAssessment) (string, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}

	payload, err := json.Marshal(explainRequest{
		Model:  c.model,
		Prompt: buildPrompt(assessment),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal explain request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/explain", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build explain request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("explain request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("explain service returned status %d: %s", resp.StatusCode, string(body))
	}

	var out explainResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode explain response: %w", err)
	}
	if out.Text == "" {
		return "", fmt.Errorf("explain service returned an empty narrative")
	}

	return out.Text, nil
}

func buildPrompt(a *domain.DrugRiskAssessment) string {
	return fmt.Sprintf(
		"Explain for a patient, in two sentences, what a %s phenotype for gene %s means when taking %s. "+
			"The assessed risk category is %q and the guideline recommendation is %q. "+
			"Do not mention raw genetic data.",
		a.Phenotype, a.Gene, a.Drug, a.RiskLabel, a.Recommendation,
	)
}
