package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultURL       = "https://api.anthropic.com/v1/messages"
	DefaultModel     = "claude-haiku-4-5-20251001"
	DefaultMaxTokens = 1024

	apiVersion     = "2023-06-01"
	maxEventLength = 1 << 20
)

var (
	ErrNoAPIKey        = errors.New("no API key configured")
	ErrAPIRequest      = errors.New("API request failed")
	ErrInvalidResponse = errors.New("invalid API response")
)

// ClientParams configures NewClient. Zero values fall back to defaults.
type ClientParams struct {
	APIKey     string
	Model      string
	MaxTokens  int
	URL        string
	HTTPClient *http.Client
}

// Client streams completions from the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	maxTokens  int
	url        string
	httpClient *http.Client
}

// NewClient creates a new AI client. Returns ErrNoAPIKey when APIKey is empty.
func NewClient(p ClientParams) (*Client, error) {
	if p.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		apiKey:     p.APIKey,
		model:      p.Model,
		maxTokens:  p.MaxTokens,
		url:        p.URL,
		httpClient: p.HTTPClient,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.maxTokens <= 0 {
		c.maxTokens = DefaultMaxTokens
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.httpClient == nil {
		// no overall timeout: streams are bounded by the caller's context
		c.httpClient = &http.Client{Transport: &http.Transport{
			ResponseHeaderTimeout: 30 * time.Second,
		}}
	}
	return c, nil
}

// Stream sends prompt and yields text deltas as they arrive. The sequence
// ends after the first error. Stopping early cancels the request.
func (c *Client) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		resp, err := c.send(ctx, prompt)
		if err != nil {
			yield("", err)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), maxEventLength)

		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data:")
			if !ok {
				continue
			}
			data = strings.TrimSpace(data)
			if data == "" {
				continue
			}

			var ev streamEvent
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				yield("", fmt.Errorf("%w: %v", ErrInvalidResponse, err))
				return
			}

			switch ev.Type {
			case "content_block_delta":
				if ev.Delta == nil || ev.Delta.Type != "text_delta" || ev.Delta.Text == "" {
					continue
				}
				if !yield(ev.Delta.Text, nil) {
					return
				}
			case "error":
				msg := "unknown error"
				if ev.Error != nil {
					msg = ev.Error.Type + ": " + ev.Error.Message
				}
				yield("", fmt.Errorf("%w: %s", ErrAPIRequest, msg))
				return
			case "message_stop":
				return
			}
		}

		if err := scanner.Err(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			yield("", fmt.Errorf("%w: %v", ErrAPIRequest, err))
			return
		}
		// Body ended without message_stop.
		yield("", fmt.Errorf("%w: stream ended early", ErrInvalidResponse))
	}
}

// Complete collects the whole streamed answer.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var sb strings.Builder
	for chunk, err := range c.Stream(ctx, prompt) {
		if err != nil {
			return "", err
		}
		sb.WriteString(chunk)
	}
	return sb.String(), nil
}

func (c *Client) send(ctx context.Context, prompt string) (*http.Response, error) {
	reqBody := apiRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []apiMessage{
			{Role: "user", Content: prompt},
		},
		Stream: true,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAPIRequest, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d: %s", ErrAPIRequest, resp.StatusCode, string(body))
	}

	return resp, nil
}
