package httpserver_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"iter"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/xbm/internal/ai"
	"github.com/nikbrunner/xbm/internal/config"
	"github.com/nikbrunner/xbm/internal/httpserver"
	"github.com/nikbrunner/xbm/internal/httpserver/deps"
	"github.com/nikbrunner/xbm/internal/importer"
	"github.com/nikbrunner/xbm/internal/library"
	"github.com/nikbrunner/xbm/internal/logger"
	"github.com/nikbrunner/xbm/internal/model"
	"github.com/nikbrunner/xbm/internal/storage"
)

const export = `[
	{"id":"1","text":"older post","timestamp":"2024-01-01T00:00:00Z","username":"jane","media":null},
	{"id":"2","text":"newer post","timestamp":"2024-02-01T00:00:00Z","username":"bob","media":{"type":"photo","source":"p.jpg"}}
]`

type chunkStreamer struct{ chunks []string }

func (s chunkStreamer) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, c := range s.chunks {
			if !yield(c, nil) {
				return
			}
		}
	}
}

type memoryState struct{ state model.AIState }

func (m *memoryState) LoadAIState() model.AIState      { return m.state }
func (m *memoryState) SaveAIState(state model.AIState) { m.state = state }

type fixture struct {
	handler http.Handler
	lib     *library.Library
	quota   *ai.Quota
}

func newFixture(t *testing.T, chunks ...string) fixture {
	t.Helper()
	return newStoredFixture(t, nil, chunks...)
}

// newStoredFixture persists through store; nil serves from memory only.
func newStoredFixture(t *testing.T, store *storage.BestEffort, chunks ...string) fixture {
	t.Helper()
	params := library.Params{}
	if store != nil {
		params.Store = store
	}
	lib := library.New(params)
	quota := ai.NewQuota(&memoryState{}, ai.FreeQueryLimit)
	session := ai.NewSession(ai.SessionParams{
		Quota:      quota,
		DefaultKey: "sk-default",
		Connect: func(string) (ai.Streamer, error) {
			return chunkStreamer{chunks: chunks}, nil
		},
	})

	d := deps.Deps{
		Logger:    logger.NewNop(),
		StartTime: time.Now(),
		Version:   "test",
		Library:   lib,
		Session:   session,
		Backend:   config.BackendJSON,
		Store:     store,
	}
	cfg := config.ServerConfig{RequestTimeout: 10 * time.Second}
	return fixture{handler: httpserver.NewRouter(cfg, logger.NewNop(), d), lib: lib, quota: quota}
}

func (f fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f fixture) upload(t *testing.T, body, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return f.do(t, req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	assert.NilError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type listBody struct {
	Total     int `json:"total"`
	Count     int `json:"count"`
	Bookmarks []struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		Permalink string `json:"permalink"`
	} `json:"bookmarks"`
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func listIDs(t *testing.T, f fixture, rawQuery string) []string {
	t.Helper()
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/bookmarks?"+rawQuery, nil))
	assert.Equal(t, rec.Code, http.StatusOK)
	body := decode[listBody](t, rec)
	ids := []string{}
	for _, b := range body.Bookmarks {
		ids = append(ids, b.ID)
	}
	return ids
}

type healthBody struct {
	Status  string `json:"status"`
	Storage struct {
		Backend    string `json:"backend"`
		Persistent bool   `json:"persistent"`
		Failures   int64  `json:"failures"`
		LastError  string `json:"last_error"`
	} `json:"storage"`
	Archive struct {
		Bookmarks int            `json:"bookmarks"`
		Users     int            `json:"users"`
		Media     map[string]int `json:"media"`
	} `json:"archive"`
	FreeQueries *int   `json:"free_queries_left"`
	Version     string `json:"version"`
}

func healthz(t *testing.T, f fixture) healthBody {
	t.Helper()
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Header().Get("Cache-Control"), "no-store")
	return decode[healthBody](t, rec)
}

func TestHealthz_Persistent(t *testing.T) {
	store := storage.NewBestEffort(storage.NewJSONStorage(t.TempDir()), logger.NewNop())
	f := newStoredFixture(t, store)

	body := healthz(t, f)
	assert.Equal(t, body.Status, "ok")
	assert.Equal(t, body.Version, "test")
	assert.Equal(t, body.Storage.Backend, "json")
	assert.Assert(t, body.Storage.Persistent)
	assert.Equal(t, body.Archive.Bookmarks, 0)
	assert.Assert(t, body.FreeQueries != nil)
	assert.Equal(t, *body.FreeQueries, ai.FreeQueryLimit)

	assert.Equal(t, f.upload(t, export, "application/json").Code, http.StatusOK)

	body = healthz(t, f)
	assert.Equal(t, body.Status, "ok")
	assert.Equal(t, body.Archive.Bookmarks, 2)
	assert.Equal(t, body.Archive.Users, 2)
	assert.DeepEqual(t, body.Archive.Media, map[string]int{"photo": 1})
}

func TestHealthz_MemoryOnlyIsDegraded(t *testing.T) {
	body := healthz(t, newFixture(t))

	assert.Equal(t, body.Status, "degraded")
	assert.Assert(t, !body.Storage.Persistent)
}

func TestHealthz_FailingBackendIsDegraded(t *testing.T) {
	store := storage.NewBestEffort(failingSave{storage.NewJSONStorage(t.TempDir())}, logger.NewNop())
	f := newStoredFixture(t, store)

	assert.Equal(t, f.upload(t, export, "application/json").Code, http.StatusOK)

	body := healthz(t, f)
	assert.Equal(t, body.Status, "degraded")
	assert.Assert(t, body.Storage.Persistent)
	assert.Equal(t, body.Storage.Failures, int64(1))
	assert.Equal(t, body.Storage.LastError, "disk full")
	assert.Equal(t, body.Archive.Bookmarks, 2, "the upload is still served from memory")
}

func TestHealthz_CustomKeyHidesFreeQueries(t *testing.T) {
	f := newFixture(t)
	f.quota.SetCustomKey("sk-mine")

	assert.Assert(t, healthz(t, f).FreeQueries == nil)
}

type failingSave struct{ storage.Storage }

func (failingSave) Save(model.Collection) error { return errors.New("disk full") }

func TestAPI_UnknownRoutesAnswerJSON(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, rec.Code, http.StatusNotFound)
	assert.Equal(t, decode[errorBody](t, rec).Kind, "error")

	rec = f.do(t, httptest.NewRequest(http.MethodPatch, "/api/bookmarks", nil))
	assert.Equal(t, rec.Code, http.StatusMethodNotAllowed)
	assert.Equal(t, decode[errorBody](t, rec).Error, "Method not allowed")
	assert.Assert(t, is.Contains(rec.Header().Get("Cache-Control"), "no-cache"))
}

func TestAPI_AIStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/ai", nil))
	assert.Equal(t, rec.Code, http.StatusOK)
}

func TestUpload_RawJSON(t *testing.T) {
	f := newFixture(t)

	rec := f.upload(t, export, "application/json")
	assert.Equal(t, rec.Code, http.StatusOK)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, body["message"], "Bookmarks loaded successfully")
	assert.Equal(t, body["kind"], "info")
	assert.Equal(t, body["count"], float64(2))
	assert.Equal(t, len(f.lib.Collection()), 2)
}

func TestUpload_Multipart(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="bookmarks.json"`)
	h.Set("Content-Type", "application/octet-stream")
	part, err := mw.CreatePart(h)
	assert.NilError(t, err)
	_, err = part.Write([]byte(export))
	assert.NilError(t, err)
	assert.NilError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := f.do(t, req)
	assert.Equal(t, rec.Code, http.StatusOK, rec.Body.String())
	assert.Equal(t, len(f.lib.Collection()), 2)
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		status      int
		message     string
	}{
		{"wrong type", export, "text/plain", http.StatusUnsupportedMediaType, "Only JSON files are allowed"},
		{"syntax", `[{"id":`, "application/json", http.StatusUnprocessableEntity, "Failed to parse JSON file. Please check the file format."},
		{"shape", `{"items":[]}`, "application/json", http.StatusUnprocessableEntity, "Invalid bookmarks format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.upload(t, export, "application/json")

			rec := f.upload(t, tt.body, tt.contentType)
			assert.Equal(t, rec.Code, tt.status)

			body := decode[errorBody](t, rec)
			assert.Equal(t, body.Error, tt.message)
			assert.Equal(t, body.Kind, "info")
			assert.Equal(t, len(f.lib.Collection()), 2, "rejected upload must keep the collection")
		})
	}
}

func TestUpload_TooLargeRejectedUpFront(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", strings.NewReader("[]"))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = 2 * importer.MaxFileSize

	rec := f.do(t, req)
	assert.Equal(t, rec.Code, http.StatusRequestEntityTooLarge)
	assert.Equal(t, decode[errorBody](t, rec).Error, "File size exceeds 10MB limit")
}

func TestListBookmarks_Params(t *testing.T) {
	f := newFixture(t)
	f.upload(t, export, "application/json")

	assert.DeepEqual(t, listIDs(t, f, ""), []string{"2", "1"})
	assert.DeepEqual(t, listIDs(t, f, "sort=oldest"), []string{"1", "2"})
	assert.DeepEqual(t, listIDs(t, f, "media=photo"), []string{"2"})
	assert.DeepEqual(t, listIDs(t, f, "media=none"), []string{"1"})
	assert.DeepEqual(t, listIDs(t, f, "user=%40bob"), []string{"2"})
	assert.DeepEqual(t, listIDs(t, f, "q=OLDER"), []string{"1"})
	assert.DeepEqual(t, listIDs(t, f, "q=nothing"), []string{})
}

func TestListBookmarks_Permalink(t *testing.T) {
	f := newFixture(t)
	f.upload(t, export, "application/json")

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/bookmarks?sort=oldest", nil))
	body := decode[listBody](t, rec)
	assert.Equal(t, body.Total, 2)
	assert.Equal(t, body.Bookmarks[0].Permalink, "https://x.com/jane/status/1")
}

func TestListBookmarks_BadParam(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/bookmarks?sort=sideways", nil))
	assert.Equal(t, rec.Code, http.StatusBadRequest)
	assert.Equal(t, decode[errorBody](t, rec).Kind, "info")
}

func TestClearBookmarks(t *testing.T) {
	f := newFixture(t)
	f.upload(t, export, "application/json")

	rec := f.do(t, httptest.NewRequest(http.MethodDelete, "/api/bookmarks", nil))
	assert.Equal(t, rec.Code, http.StatusNoContent)
	assert.Equal(t, len(f.lib.Collection()), 0)
	assert.DeepEqual(t, listIDs(t, f, ""), []string{})
}

func TestUsernames(t *testing.T) {
	f := newFixture(t)
	f.upload(t, export, "application/json")

	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/api/usernames", nil))
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.DeepEqual(t, decode[map[string][]string](t, rec)["usernames"], []string{"jane", "bob"})

	rec = f.do(t, httptest.NewRequest(http.MethodGet, "/api/usernames?prefix=bo", nil))
	assert.DeepEqual(t, decode[map[string][]string](t, rec)["usernames"], []string{"bob"})
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.data = strings.TrimPrefix(line, "data: ")
		case line == "":
			events = append(events, cur)
			cur = sseEvent{}
		}
	}
	return events
}

func ask(t *testing.T, f fixture, question string) []sseEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"question": question})
	assert.NilError(t, err)
	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/ask", bytes.NewReader(payload)))
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, rec.Header().Get("Content-Type"), "text/event-stream")
	return readEvents(t, rec.Body.String())
}

func TestAsk_StreamsOneEventPerChunk(t *testing.T) {
	f := newFixture(t, "Jane wrote ", "about it [1].")
	f.upload(t, export, "application/json")

	events := ask(t, f, "what did jane say?")
	assert.Equal(t, len(events), 3)
	assert.Equal(t, events[0].name, "answer")
	assert.Equal(t, events[1].name, "answer")
	assert.Equal(t, events[2].name, "done")

	var last struct {
		Text string `json:"text"`
		HTML string `json:"html"`
	}
	assert.NilError(t, json.Unmarshal([]byte(events[1].data), &last))
	assert.Equal(t, last.Text, "Jane wrote about it [1].")
	assert.Check(t, is.Contains(last.HTML, `href="https://x.com/jane/status/1"`))
	assert.Equal(t, f.quota.State().QueryCount, 1)
}

func TestAsk_QuotaExceeded(t *testing.T) {
	f := newFixture(t, "never sent")
	for range ai.FreeQueryLimit {
		f.quota.RecordSuccess(true)
	}

	events := ask(t, f, "anything?")
	assert.Equal(t, len(events), 2)
	assert.Equal(t, events[0].name, "error")
	assert.Equal(t, events[1].name, "done")

	var body errorBody
	assert.NilError(t, json.Unmarshal([]byte(events[0].data), &body))
	assert.Equal(t, body.Error, ai.QuotaMessage)
	assert.Equal(t, body.Kind, "info")
}

func TestAsk_BadBody(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader("{")))
	assert.Equal(t, rec.Code, http.StatusBadRequest)
}

func TestAIKey(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, httptest.NewRequest(http.MethodPut, "/api/ai/key", strings.NewReader(`{"key":"sk-mine"}`)))
	assert.Equal(t, rec.Code, http.StatusOK)
	status := decode[map[string]any](t, rec)
	assert.Equal(t, status["custom_key"], true)
	assert.Equal(t, status["remaining"], float64(-1))

	rec = f.do(t, httptest.NewRequest(http.MethodDelete, "/api/ai/key", nil))
	assert.Equal(t, rec.Code, http.StatusOK)
	assert.Equal(t, decode[map[string]any](t, rec)["remaining"], float64(ai.FreeQueryLimit))

	rec = f.do(t, httptest.NewRequest(http.MethodPut, "/api/ai/key", strings.NewReader(`{"key":"  "}`)))
	assert.Equal(t, rec.Code, http.StatusBadRequest)
}
