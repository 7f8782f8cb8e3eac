package handlers

import (
	"net/http"
	"time"

	"github.com/nikbrunner/xbm/internal/httpserver/deps"
	"github.com/nikbrunner/xbm/internal/model"
	"github.com/nikbrunner/xbm/internal/query"
	"github.com/nikbrunner/xbm/internal/storage"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded" // serving from memory while the backend fails
)

type storageHealth struct {
	Backend    string `json:"backend"`
	Persistent bool   `json:"persistent"`
	storage.Health
}

type archiveHealth struct {
	Bookmarks int                     `json:"bookmarks"`
	Users     int                     `json:"users"`
	Media     map[model.MediaType]int `json:"media"`
}

type healthzResponse struct {
	Status        string        `json:"status"`
	UptimeSeconds float64       `json:"uptime_seconds"`
	Storage       storageHealth `json:"storage"`
	Archive       archiveHealth `json:"archive"`
	FreeQueries   *int          `json:"free_queries_left,omitempty"` // absent with a custom key
	Version       string        `json:"version,omitempty"`
	Commit        string        `json:"commit,omitempty"`
}

// Healthz reports liveness plus the state of persistence and the archive.
// A backend that was never opened or whose last operation failed yields
// "degraded" with status 200: the server still answers from memory.
func Healthz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthzResponse{
			Status:        statusOK,
			UptimeSeconds: time.Since(d.StartTime).Seconds(),
			Storage:       storageHealth{Backend: d.Backend},
			Version:       d.Version,
			Commit:        d.Commit,
		}

		if d.Store != nil {
			resp.Storage.Persistent = true
			resp.Storage.Health = d.Store.Health()
		}
		if !resp.Storage.Persistent || !resp.Storage.OK() {
			resp.Status = statusDegraded
		}

		c := d.Library.Collection()
		resp.Archive = archiveHealth{
			Bookmarks: len(c),
			Users:     len(query.UniqueUsernames(c)),
			Media:     c.CountMedia(),
		}

		if d.Session != nil {
			if left := d.Session.Quota().Remaining(); left >= 0 {
				resp.FreeQueries = &left
			}
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, resp)
	}
}
