package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"webrag/internal/domain"
	"webrag/internal/generation"
)

// DefaultEndpoint is the legacy PaLM/Gemini text generation method.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta2/models/text-bison-001:generate"

// Client calls a Gemini-style text generation endpoint that accepts
// {prompt, temperature, maxOutputTokens} and answers {candidates: [{output}]}.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

type Config struct {
	Endpoint  string
	APIKeyEnv string
	Timeout   time.Duration
}

// NewClient reads the credential from the configured environment variable.
// A missing credential is a startup error.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKeyEnv == "" {
		cfg.APIKeyEnv = "GEMINI_API_KEY"
	}
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("%w: env %s is empty", domain.ErrMissingCredential, cfg.APIKeyEnv)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &Client{endpoint: cfg.Endpoint, apiKey: key, client: &http.Client{Timeout: t}}, nil
}

func (c *Client) Name() string { return "gemini" }

type generateRequest struct {
	Prompt          string  `json:"prompt"`
	Temperature     float32 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Output string `json:"output"`
	} `json:"candidates"`
}

// Generate returns the first candidate's output, or "" when the API
// returned no candidates.
func (c *Client) Generate(ctx context.Context, req generation.Request) (string, error) {
	body, err := json.Marshal(generateRequest{
		Prompt:          req.Prompt,
		Temperature:     req.Temperature,
		MaxOutputTokens: req.MaxOutputTokens,
	})
	if err != nil {
		return "", &domain.GenerationError{Op: "gemini: marshal request", Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &domain.GenerationError{Op: "gemini: create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &domain.GenerationError{Op: "gemini: request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &domain.GenerationError{
			Op:  "gemini: request",
			Err: fmt.Errorf("API error (status %d): %s", resp.StatusCode, bytes.TrimSpace(msg)),
		}
	}
	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &domain.GenerationError{Op: "gemini: decode response", Err: err}
	}
	if len(out.Candidates) == 0 {
		return "", nil
	}
	return out.Candidates[0].Output, nil
}
