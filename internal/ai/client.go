// Package ai talks to a local Ollama instance over its HTTP API.
package ai

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

	"github.com/rs/zerolog"
)

// Failure taxonomy for a generation request. The relay maps these to
// user-safe room notices; raw details stay in the logs.
var (
	// ErrUnavailable means the backend could not be reached at all.
	ErrUnavailable = errors.New("inference backend unreachable")
	// ErrTimeout means the request deadline expired before a reply arrived.
	ErrTimeout = errors.New("inference request timed out")
)

// BackendError means the backend was reachable but answered non-2xx.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("inference backend returned %d: %s", e.Status, e.Body)
}

const maxErrorBody = 240

// Client is a thin adapter over the Ollama HTTP API. It holds no chat
// state; every call is an independent request/response exchange governed
// by the caller's context.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	log     *zerolog.Logger
}

// New builds a client for the given base URL (e.g. http://localhost:11434)
// and model name. Request deadlines come from the caller's context, not a
// client-wide timeout.
func New(baseURL, model string, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{},
		log:     logger,
	}
}

// Model returns the model identifier requests are issued for.
func (c *Client) Model() string {
	return c.model
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends prompt to the backend and returns the generated text.
// Failures are classified as ErrTimeout, ErrUnavailable or *BackendError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: 0.7,
			NumPredict:  500,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	body, err := c.post(ctx, "/api/generate", payload)
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &BackendError{Status: http.StatusOK, Body: "unparseable generate response"}
	}
	if parsed.Response == "" {
		return "", &BackendError{Status: http.StatusOK, Body: "empty generate response"}
	}
	return parsed.Response, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Ready reports whether the backend answers its tags endpoint.
func (c *Client) Ready(ctx context.Context) error {
	_, err := c.get(ctx, "/api/tags")
	return err
}

// Models lists the model names installed on the backend.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/api/tags")
	if err != nil {
		return nil, err
	}
	var parsed tagsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal tags response: %w", err)
	}
	names := make([]string, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Status returns the raw tags payload for the status endpoint.
func (c *Client) Status(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/api/tags")
}

// WaitReady polls the backend until it responds, up to attempts tries
// spaced by interval. Returns false when the backend never came up or the
// context was cancelled.
func (c *Client) WaitReady(ctx context.Context, attempts int, interval time.Duration) bool {
	for i := 0; i < attempts; i++ {
		probe, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := c.Ready(probe)
		cancel()
		if err == nil {
			return true
		}
		c.log.Info().Err(err).Int("attempt", i+1).Int("max", attempts).Msg("waiting for inference backend")

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return false
		}
	}
	return false
}

// EnsureModel pulls the configured model if the backend does not have it
// yet. Pulling a large model can take minutes; the caller's context bounds
// the wait.
func (c *Client) EnsureModel(ctx context.Context) error {
	names, err := c.Models(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if name == c.model || name == c.model+":latest" {
			c.log.Info().Str("model", c.model).Msg("model already available")
			return nil
		}
	}

	c.log.Info().Str("model", c.model).Msg("pulling model")
	start := time.Now()
	payload, err := json.Marshal(map[string]any{"name": c.model, "stream": false})
	if err != nil {
		return fmt.Errorf("marshal pull request: %w", err)
	}
	if _, err := c.post(ctx, "/api/pull", payload); err != nil {
		return fmt.Errorf("pull model %s: %w", c.model, err)
	}
	c.log.Info().Str("model", c.model).Dur("elapsed", time.Since(start)).Msg("model pulled")
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &BackendError{Status: resp.StatusCode, Body: compact(string(body))}
	}
	return body, nil
}

// compact flattens an error body to a single bounded line for logging.
func compact(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
