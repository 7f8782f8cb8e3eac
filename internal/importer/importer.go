package importer

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/nikbrunner/xbm/internal/model"
)

// Outcome is the result of a successful import.
type Outcome struct {
	Bookmarks model.Collection
	Format    Format
}

// Import validates and normalizes an export read from r.
// Checks run in order size, type, JSON syntax, shape; the first failure wins.
func Import(r io.Reader, info UploadInfo) (Outcome, error) {
	if err := ValidateUpload(info); err != nil {
		return Outcome{}, err
	}

	// Read one byte past the limit so a lying Size cannot slip through.
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return Outcome{}, newError(KindReadFailure, "Error reading file. Please try again.", err)
	}
	if err := CheckSize(int64(len(data))); err != nil {
		return Outcome{}, err
	}

	return Parse(data)
}

// Parse decodes, validates and normalizes raw JSON bytes.
func Parse(data []byte) (Outcome, error) {
	var payload any
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &payload); err != nil {
		return Outcome{}, newError(KindJSONSyntax, genericFailureMessage, err)
	}

	if err := ValidateParsed(payload); err != nil {
		return Outcome{}, err
	}

	bookmarks, format := NormalizePayload(payload)
	return Outcome{Bookmarks: bookmarks, Format: format}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ImportFile imports the export at path.
func ImportFile(path string) (Outcome, error) {
	file, err := os.Open(path)
	if err != nil {
		return Outcome{}, newError(KindReadFailure, "Error reading file. Please try again.", err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return Outcome{}, newError(KindReadFailure, "Error reading file. Please try again.", err)
	}

	return Import(file, UploadInfo{
		Name: filepath.Base(path),
		Size: stat.Size(),
	})
}
