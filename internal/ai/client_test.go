package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sseServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientParams{APIKey: "sk-test", URL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func writeEvents(w http.ResponseWriter, texts ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	fmt.Fprint(w, "event: message_start\ndata: {\"type\":\"message_start\"}\n\n")
	for _, text := range texts {
		data, _ := json.Marshal(map[string]any{
			"type":  "content_block_delta",
			"index": 0,
			"delta": map[string]string{"type": "text_delta", "text": text},
		})
		fmt.Fprintf(w, "event: content_block_delta\ndata: %s\n\n", data)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
	fmt.Fprint(w, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n")
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(ClientParams{})
	if !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestClient_StreamYieldsDeltas(t *testing.T) {
	var gotBody apiRequest
	var gotKey, gotVersion string

	c := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		writeEvents(w, "Hello", ", ", "world")
	})

	var chunks []string
	for chunk, err := range c.Stream(context.Background(), "prompt text") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		chunks = append(chunks, chunk)
	}

	if strings.Join(chunks, "|") != "Hello|, |world" {
		t.Errorf("unexpected chunks %q", chunks)
	}
	if gotKey != "sk-test" || gotVersion != apiVersion {
		t.Errorf("unexpected headers key=%q version=%q", gotKey, gotVersion)
	}
	if !gotBody.Stream || gotBody.Model != DefaultModel || gotBody.MaxTokens != DefaultMaxTokens {
		t.Errorf("unexpected request %+v", gotBody)
	}
	if len(gotBody.Messages) != 1 || gotBody.Messages[0].Content != "prompt text" {
		t.Errorf("unexpected messages %+v", gotBody.Messages)
	}
}

func TestClient_Complete(t *testing.T) {
	c := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEvents(w, "a", "b", "c")
	})

	got, err := c.Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
}

func TestClient_HTTPError(t *testing.T) {
	c := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	})

	_, err := c.Complete(context.Background(), "p")
	if !errors.Is(err, ErrAPIRequest) {
		t.Fatalf("expected ErrAPIRequest, got %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestClient_ErrorEvent(t *testing.T) {
	c := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: content_block_delta\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"partial\"}}\n\n")
		fmt.Fprint(w, "event: error\ndata: {\"type\":\"error\",\"error\":{\"type\":\"overloaded_error\",\"message\":\"Overloaded\"}}\n\n")
	})

	var chunks []string
	var lastErr error
	for chunk, err := range c.Stream(context.Background(), "p") {
		if err != nil {
			lastErr = err
			break
		}
		chunks = append(chunks, chunk)
	}

	if len(chunks) != 1 || chunks[0] != "partial" {
		t.Errorf("expected the partial chunk first, got %q", chunks)
	}
	if !errors.Is(lastErr, ErrAPIRequest) || !strings.Contains(lastErr.Error(), "Overloaded") {
		t.Errorf("unexpected error %v", lastErr)
	}
}

func TestClient_TruncatedStream(t *testing.T) {
	c := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"x\"}}\n\n")
	})

	_, err := c.Complete(context.Background(), "p")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestClient_MalformedEvent(t *testing.T) {
	c := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {not json\n\n")
	})

	_, err := c.Complete(context.Background(), "p")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestClient_StopEarly(t *testing.T) {
	c := sseServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEvents(w, "one", "two", "three")
	})

	count := 0
	for _, err := range c.Stream(context.Background(), "p") {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected to stop after one chunk, got %d", count)
	}
}
