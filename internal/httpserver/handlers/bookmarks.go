package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/nikbrunner/xbm/internal/httpserver/deps"
	"github.com/nikbrunner/xbm/internal/importer"
	"github.com/nikbrunner/xbm/internal/library"
	"github.com/nikbrunner/xbm/internal/logger"
	"github.com/nikbrunner/xbm/internal/model"
	"github.com/nikbrunner/xbm/internal/query"
)

// multipartOverhead leaves room for boundaries and part headers around the file.
const multipartOverhead = 64 * 1024

type bookmarkJSON struct {
	model.Bookmark
	Permalink string `json:"permalink"`
}

type listResponse struct {
	Total     int            `json:"total"`
	Count     int            `json:"count"`
	Sort      string         `json:"sort"`
	Media     string         `json:"media"`
	Bookmarks []bookmarkJSON `json:"bookmarks"`
}

type uploadResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Count   int    `json:"count"`
	Format  string `json:"format"`
}

type usernamesResponse struct {
	Usernames []string `json:"usernames"`
}

// ListBookmarks returns the collection filtered and sorted by the q, sort,
// media and user query parameters. Omitted parameters take their defaults.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := paramsFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), kindInfo)
			return
		}

		all := d.Library.Collection()
		view := query.Derive(all, p)

		out := make([]bookmarkJSON, 0, len(view))
		for _, b := range view {
			out = append(out, bookmarkJSON{Bookmark: b, Permalink: b.Permalink()})
		}

		writeJSON(w, http.StatusOK, listResponse{
			Total:     len(all),
			Count:     len(view),
			Sort:      string(p.Sort),
			Media:     string(p.Media),
			Bookmarks: out,
		})
	}
}

func paramsFromQuery(r *http.Request) (query.Params, error) {
	values := r.URL.Query()
	p := query.DefaultParams()
	p.Search = values.Get("q")

	sort, err := query.ParseSortOrder(values.Get("sort"))
	if err != nil {
		return p, err
	}
	p.Sort = sort

	media, err := query.ParseMediaFilter(values.Get("media"))
	if err != nil {
		return p, err
	}
	p.Media = media

	return p.WithUsername(model.NormalizeUsername(values.Get("user"))), nil
}

// UploadBookmarks replaces the collection with an uploaded export. The
// export is either the "file" field of a multipart form or the raw body.
func UploadBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := importer.CheckSize(r.ContentLength - multipartOverhead); err != nil {
			writeImportError(w, err)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, importer.MaxFileSize+multipartOverhead)

		body, info, err := uploadSource(r)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeImportError(w, importer.CheckSize(tooLarge.Limit+1))
				return
			}
			d.Logger.Debug("unreadable upload", logger.Error(err))
			writeError(w, http.StatusBadRequest, "No file provided", kindInfo)
			return
		}
		defer func() { _ = body.Close() }()

		outcome, err := d.Library.Ingest(body, info)
		if err != nil {
			if errors.Is(err, library.ErrSuperseded) {
				writeError(w, http.StatusConflict, "A newer upload replaced this one", kindInfo)
				return
			}
			writeImportError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, uploadResponse{
			Message: outcome.Format.Message(),
			Kind:    kindInfo,
			Count:   len(outcome.Bookmarks),
			Format:  outcome.Format.String(),
		})
	}
}

func uploadSource(r *http.Request) (io.ReadCloser, importer.UploadInfo, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		size := r.ContentLength
		if size < 0 {
			size = 0
		}
		return r.Body, importer.UploadInfo{Size: size, ContentType: r.Header.Get("Content-Type")}, nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, importer.UploadInfo{}, err
	}
	ct := header.Header.Get("Content-Type")
	if ct == "application/octet-stream" {
		ct = "" // generic clients; let the extension decide
	}
	return file, importer.UploadInfo{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: ct,
	}, nil
}

func writeImportError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, importer.ErrFileTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, importer.ErrUnsupportedType):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, importer.ErrReadFailure):
		status = http.StatusBadRequest
	}

	kind := kindError
	var ie *importer.Error
	if errors.As(err, &ie) {
		kind = ie.Severity().String()
	}
	writeError(w, status, importer.UserMessage(err), kind)
}

// ClearBookmarks empties the collection and its persisted copy.
func ClearBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Library.Clear()
		d.Logger.Info("bookmarks cleared", logger.String("remote_ip", r.RemoteAddr))
		w.WriteHeader(http.StatusNoContent)
	}
}

// Usernames lists distinct usernames, fuzzy-ranked when prefix is given.
func Usernames(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		c := d.Library.Collection()

		var names []string
		if model.NormalizeUsername(prefix) == "" {
			names = query.UniqueUsernames(c)
		} else {
			for _, s := range query.SuggestUsernames(c, prefix) {
				names = append(names, s.Username)
			}
		}
		if names == nil {
			names = []string{}
		}

		writeJSON(w, http.StatusOK, usernamesResponse{Usernames: names})
	}
}
