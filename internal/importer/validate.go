package importer

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/nikbrunner/xbm/internal/model"
)

// MaxFileSize is the largest accepted upload in bytes (10MB).
const MaxFileSize = 10 * 1024 * 1024

var allowedContentTypes = []string{"application/json"}

// UploadInfo describes a file before any of its bytes are read.
type UploadInfo struct {
	Name        string
	Size        int64
	ContentType string // empty = derive from the file extension
}

// CheckSize rejects sizes above MaxFileSize.
func CheckSize(size int64) error {
	if size > MaxFileSize {
		return newError(KindFileTooLarge, "File size exceeds 10MB limit", nil)
	}
	return nil
}

// ValidateUpload checks size, then declared content type.
func ValidateUpload(info UploadInfo) error {
	if err := CheckSize(info.Size); err != nil {
		return err
	}

	if !allowedContentType(resolveContentType(info)) {
		return newError(KindUnsupportedType, "Only JSON files are allowed", nil)
	}

	return nil
}

func resolveContentType(info UploadInfo) string {
	ct := info.ContentType
	if ct == "" && info.Name != "" {
		ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(info.Name)))
	}
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ""
	}
	return mediaType
}

func allowedContentType(ct string) bool {
	for _, allowed := range allowedContentTypes {
		if ct == allowed {
			return true
		}
	}
	return false
}

// ValidateParsed checks the structure of decoded JSON before normalization.
// v is the result of json.Unmarshal into an interface value.
func ValidateParsed(v any) error {
	if v == nil {
		return newError(KindMalformedShape, "Invalid JSON format", nil)
	}

	switch data := v.(type) {
	case []any:
		if !allValid(data) {
			return newError(KindMalformedShape, "Invalid bookmark format in array", nil)
		}
		return nil
	case map[string]any:
		if content, ok := data["content"].([]any); ok {
			if !allValid(content) {
				return newError(KindMalformedShape, "Invalid bookmark format in content", nil)
			}
			return nil
		}
	}

	return newError(KindMalformedShape, "Invalid bookmarks format", nil)
}

func allValid(items []any) bool {
	for _, item := range items {
		if !validItem(item) {
			return false
		}
	}
	return true
}

func validItem(v any) bool {
	item, ok := v.(map[string]any)
	if !ok {
		return false
	}

	switch DetectShape(item) {
	case ShapeAlternate:
		return validAlternate(item)
	default:
		return validCanonical(item)
	}
}

func validAlternate(item map[string]any) bool {
	_, authorOK := item["author"].(string)
	_, linkOK := item["link"].(string)
	return authorOK && linkOK &&
		isString(item, "text") &&
		isString(item, "id") &&
		validTimestampField(item)
}

func validCanonical(item map[string]any) bool {
	if !isString(item, "text") || !isString(item, "username") || !isString(item, "id") {
		return false
	}
	if !validTimestampField(item) {
		return false
	}

	media, present := item["media"]
	if !present {
		return false
	}
	if media == nil {
		return true
	}
	m, ok := media.(map[string]any)
	if !ok {
		return false
	}
	mediaType, typeOK := m["type"].(string)
	_, sourceOK := m["source"].(string)
	return typeOK && sourceOK && model.MediaType(mediaType).Valid()
}

func validTimestampField(item map[string]any) bool {
	ts, ok := item["timestamp"].(string)
	return ok && model.ValidTimestamp(ts)
}

func isString(item map[string]any, key string) bool {
	_, ok := item[key].(string)
	return ok
}
