package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nikbrunner/xbm/internal/ai"
	"github.com/nikbrunner/xbm/internal/httpserver/deps"
	"github.com/nikbrunner/xbm/internal/logger"
)

type askRequest struct {
	Question string `json:"question"`
}

type answerEvent struct {
	RequestID string `json:"request_id"`
	Text      string `json:"text"`
	HTML      string `json:"html"`
}

type aiStatusResponse struct {
	QueryCount int  `json:"query_count"`
	Remaining  int  `json:"remaining"` // -1 = unlimited
	CustomKey  bool `json:"custom_key"`
}

type keyRequest struct {
	Key string `json:"key"`
}

// Ask streams the answer as server-sent events: one "answer" event per
// chunk carrying the full formatted answer so far, an "error" event on
// failure, then "done".
func Ask(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", kindInfo)
			return
		}

		rc := http.NewResponseController(w)
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		send := func(event string, v any) bool {
			if err := writeEvent(w, rc, event, v); err != nil {
				d.Logger.Debug("sse write failed", logger.Error(err))
				return false
			}
			return true
		}

		for answer, err := range d.Session.Ask(r.Context(), req.Question, d.Library.Collection()) {
			if err != nil {
				send("error", errorResponse{Error: ai.UserMessage(err), Kind: aiErrorKind(err)})
				break
			}
			if !send("answer", answerEvent(answer)) {
				return
			}
		}
		send("done", struct{}{})
	}
}

func aiErrorKind(err error) string {
	switch {
	case errors.Is(err, ai.ErrQuotaExceeded), errors.Is(err, ai.ErrNoAPIKey), errors.Is(err, ai.ErrEmptyQuestion):
		return kindInfo
	}
	return kindError
}

func writeEvent(w http.ResponseWriter, rc *http.ResponseController, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

func aiStatus(d deps.Deps) aiStatusResponse {
	q := d.Session.Quota()
	state := q.State()
	return aiStatusResponse{
		QueryCount: state.QueryCount,
		Remaining:  q.Remaining(),
		CustomKey:  state.HasCustomKey(),
	}
}

// AIStatus reports the free query count and whether a custom key is set.
func AIStatus(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, aiStatus(d))
	}
}

// SetAIKey stores a custom API key, lifting the free query limit.
func SetAIKey(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req keyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Key) == "" {
			writeError(w, http.StatusBadRequest, "Please provide an API key", kindInfo)
			return
		}
		d.Session.Quota().SetCustomKey(strings.TrimSpace(req.Key))
		d.Logger.Info("custom api key set")
		writeJSON(w, http.StatusOK, aiStatus(d))
	}
}

// ClearAIKey removes the custom API key.
func ClearAIKey(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Session.Quota().SetCustomKey("")
		d.Logger.Info("custom api key cleared")
		writeJSON(w, http.StatusOK, aiStatus(d))
	}
}
