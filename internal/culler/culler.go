// Package culler finds bookmarks whose media has disappeared from the CDN.
package culler

import (
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nikbrunner/xbm/internal/model"
)

// Status represents the health status of a media URL.
type Status int

const (
	Healthy     Status = iota // 2xx or 3xx response
	Dead                      // 404 or 410 Gone
	Unreachable               // timeout, DNS failure, connection refused, etc.
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	}
	return "unreachable"
}

const (
	DefaultConcurrency = 8
	DefaultTimeout     = 10 * time.Second
)

// Result holds the check result for a single bookmark's media.
type Result struct {
	Bookmark   model.Bookmark
	Status     Status
	StatusCode int    // HTTP status code (0 if connection failed)
	Error      string // Error message for unreachable URLs
}

// Options configures a check run. Zero values take the defaults.
type Options struct {
	Concurrency int
	Timeout     time.Duration
	Client      *http.Client // optional; Timeout is ignored when set
}

// ProgressFunc is called after each URL is checked.
// completed is the number of URLs checked so far, total is the total count.
type ProgressFunc func(completed, total int)

// CheckMedia checks the media source of every bookmark that has one, with
// a bounded worker pool. Results follow the order of c, skipping text-only
// posts. Cancelling ctx marks the remaining media unreachable.
func CheckMedia(ctx context.Context, c model.Collection, opts Options, onProgress ProgressFunc) []Result {
	var targets []model.Bookmark
	for _, b := range c {
		if b.HasMedia() && b.Media.Source != "" {
			targets = append(targets, b)
		}
	}
	if len(targets) == 0 {
		return nil
	}

	// Suppress noisy HTTP client logging (protocol errors, unsolicited responses, etc.)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Follow redirects but limit to 10
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}

	results := make([]Result, len(targets))
	jobs := make(chan int, len(targets))
	var wg sync.WaitGroup

	// Progress tracking
	var progressMu sync.Mutex
	completed := 0

	for w := 0; w < min(concurrency, len(targets)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = checkMedia(ctx, client, targets[idx])

				if onProgress != nil {
					progressMu.Lock()
					completed++
					onProgress(completed, len(targets))
					progressMu.Unlock()
				}
			}
		}()
	}

	for i := range targets {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// checkMedia checks a single media URL.
func checkMedia(ctx context.Context, client *http.Client, bookmark model.Bookmark) Result {
	result := Result{Bookmark: bookmark}

	// Try HEAD first; some CDNs reject it, so fall back to GET
	resp, err := do(ctx, client, http.MethodHead, bookmark.Media.Source)
	if err != nil || resp.StatusCode == http.StatusMethodNotAllowed {
		if resp != nil {
			_ = resp.Body.Close()
		}
		resp, err = do(ctx, client, http.MethodGet, bookmark.Media.Source)
		if err != nil {
			result.Status = Unreachable
			result.Error = normalizeError(err.Error())
			return result
		}
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.Status = Healthy
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.Status = Dead
	default:
		// Other errors (500, 403, etc.) may be temporary or auth-related
		result.Status = Unreachable
		result.Error = http.StatusText(resp.StatusCode)
	}

	return result
}

func do(ctx context.Context, client *http.Client, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	return client.Do(req)
}

// Summary counts results per status.
func Summary(results []Result) map[Status]int {
	counts := make(map[Status]int, 3)
	for _, r := range results {
		counts[r.Status]++
	}
	return counts
}

// normalizeError simplifies verbose error messages into readable categories.
func normalizeError(errStr string) string {
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "no such host"):
		return "DNS failure"
	case strings.Contains(lower, "context canceled"):
		return "Cancelled"
	case strings.Contains(lower, "context deadline exceeded"),
		strings.Contains(lower, "timeout"):
		return "Timeout"
	case strings.Contains(lower, "connection refused"):
		return "Connection refused"
	case strings.Contains(lower, "certificate"):
		return "TLS/certificate error"
	case strings.Contains(lower, "network is unreachable"):
		return "Network unreachable"
	case strings.Contains(lower, "tls:"):
		return "TLS error"
	case strings.Contains(lower, "unsupported protocol scheme"):
		return "Invalid URL"
	default:
		return errStr
	}
}
