package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Base URLs of the OpenAI-compatible /embeddings endpoints we know about.
const (
	OpenAIBaseURL     = "https://api.openai.com/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	OllamaBaseURL     = "http://localhost:11434/v1"
)

// DefaultModel produces the 1536-wide vectors the content_chunks table expects.
const DefaultModel = "text-embedding-3-small"

// maxInputs is the provider's limit on inputs per request.
const maxInputs = 2048

// Client calls an OpenAI-compatible /embeddings endpoint. Each Embed call is
// exactly one HTTP request; failures go back to the caller without retries.
type Client struct {
	baseURL      string
	apiKey       string
	model        string
	dimension    int
	requestDims  bool
	httpClient   *http.Client
	providerName string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (60s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDimension asks the provider for vectors of size n and rejects
// responses of any other size.
func WithDimension(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.dimension = n
			c.requestDims = true
		}
	}
}

func WithProviderName(name string) Option {
	return func(c *Client) {
		c.providerName = name
	}
}

// NewClient builds a client for baseURL. An empty model means DefaultModel.
func NewClient(baseURL, apiKey, model string, opts ...Option) *Client {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		model:        model,
		dimension:    knownDimension(model),
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		providerName: "openai",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// knownDimension is the native output size of common models. Unknown models
// report 1536 until configured otherwise.
func knownDimension(model string) int {
	switch strings.TrimPrefix(model, "openai/") {
	case "text-embedding-3-large":
		return 3072
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	default:
		return 1536
	}
}

// APIError is a non-2xx answer from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("embedding API returned status %d: %s", e.StatusCode, e.Message)
}

// IsRateLimited reports whether err is a 429 from the provider.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	EncodingFormat string   `json:"encoding_format"`
	Dimensions     int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *errorBody      `json:"error,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > maxInputs {
		return nil, fmt.Errorf("batch of %d inputs exceeds the provider limit of %d", len(texts), maxInputs)
	}

	reqBody := embeddingRequest{Input: texts, Model: c.model, EncodingFormat: "float"}
	if c.requestDims {
		reqBody.Dimensions = c.dimension
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.providerName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed embeddingResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if decodeErr == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: preview(msg)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(string(body)), decodeErr)
	}
	if parsed.Error != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: parsed.Error.Message}
	}

	return c.collect(parsed.Data, len(texts))
}

// collect orders vectors by their response index and checks their shape.
func (c *Client) collect(data []embeddingData, n int) ([][]float32, error) {
	out := make([][]float32, n)
	for _, d := range data {
		if d.Index < 0 || d.Index >= n {
			return nil, fmt.Errorf("%s returned out-of-range index %d", c.providerName, d.Index)
		}
		out[d.Index] = d.Embedding
	}
	for i, v := range out {
		if v == nil {
			return nil, fmt.Errorf("%s returned no embedding for input %d", c.providerName, i)
		}
		if c.requestDims && len(v) != c.dimension {
			return nil, fmt.Errorf("%s returned %d dimensions for input %d, want %d", c.providerName, len(v), i, c.dimension)
		}
	}
	return out, nil
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}

func (c *Client) Dimension() int {
	return c.dimension
}

func (c *Client) ModelName() string {
	return c.model
}
