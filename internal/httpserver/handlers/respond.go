package handlers

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the body of every failed API call. Kind tells the
// client whether to show Message as a notice ("info") or a failure ("error").
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

const (
	kindInfo  = "info"
	kindError = "error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, kind string) {
	writeJSON(w, status, errorResponse{Error: message, Kind: kind})
}

// NotFound answers unknown API paths.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "Not found", kindError)
}

// MethodNotAllowed answers known API paths hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed", kindError)
}
