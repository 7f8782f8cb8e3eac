package ai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nikbrunner/xbm/internal/format"
	"github.com/nikbrunner/xbm/internal/logger"
	"github.com/nikbrunner/xbm/internal/model"
)

var (
	ErrEmptyQuestion = errors.New("empty question")
	ErrRequestFailed = errors.New("failed to generate answer")
	ErrSummaryFailed = errors.New("failed to generate summary")
)

// Streamer produces text chunks for a prompt.
type Streamer interface {
	Stream(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// Connector builds a Streamer for a credential.
type Connector func(apiKey string) (Streamer, error)

type SessionParams struct {
	Quota      *Quota
	DefaultKey string
	Client     ClientParams // used when Connect is nil; APIKey is ignored
	Connect    Connector
	Formatter  *format.Formatter
	Logger     logger.Logger
}

// Session is one conversation surface. Only its most recent question is live:
// asking again cancels the previous request and drops its remaining chunks.
type Session struct {
	quota      *Quota
	defaultKey string
	connect    Connector
	formatter  *format.Formatter
	log        logger.Logger

	mu     sync.Mutex
	live   string
	cancel context.CancelFunc
	last   Answer
}

func NewSession(p SessionParams) *Session {
	s := &Session{
		quota:      p.Quota,
		defaultKey: p.DefaultKey,
		connect:    p.Connect,
		formatter:  p.Formatter,
		log:        p.Logger,
	}
	if s.quota == nil {
		s.quota = NewQuota(nil, FreeQueryLimit)
	}
	if s.formatter == nil {
		s.formatter = format.New()
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.connect == nil {
		params := p.Client
		s.connect = func(apiKey string) (Streamer, error) {
			params.APIKey = apiKey
			return NewClient(params)
		}
	}
	return s
}

// Quota returns the session's quota.
func (s *Session) Quota() *Quota { return s.quota }

// Last returns the most recent answer snapshot. Failed requests leave it unchanged.
func (s *Session) Last() Answer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Ask streams an answer to question using c as context. Each element is the
// full answer so far, formatted. The quota is checked before any request is
// made and counted only once the stream completes.
func (s *Session) Ask(ctx context.Context, question string, c model.Collection) iter.Seq2[Answer, error] {
	return func(yield func(Answer, error) bool) {
		question = strings.TrimSpace(question)
		if question == "" {
			yield(Answer{}, ErrEmptyQuestion)
			return
		}

		if err := s.quota.Check(); err != nil {
			yield(Answer{}, err)
			return
		}

		key, usedDefault := s.quota.Credential(s.defaultKey)
		streamer, err := s.connect(key)
		if err != nil {
			yield(Answer{}, err)
			return
		}

		id, ctx := s.begin(ctx)
		defer s.end(id)

		log := s.log.With(logger.String("request_id", id))
		log.Debug("ai request started", logger.Int("context_items", len(c)))

		var text strings.Builder
		for chunk, err := range streamer.Stream(ctx, BuildPrompt(question, c)) {
			if !s.isLive(id) {
				log.Debug("ai request superseded")
				return
			}
			if err != nil {
				log.Error("failed to generate answer", logger.Error(err))
				yield(Answer{}, fmt.Errorf("%w: %v", ErrRequestFailed, err))
				return
			}

			text.WriteString(chunk)
			answer := Answer{
				RequestID: id,
				Text:      text.String(),
				HTML:      s.formatter.Format(text.String(), c),
			}
			if !s.publish(id, answer) {
				return
			}
			if !yield(answer, nil) {
				return
			}
		}

		if s.isLive(id) {
			s.quota.RecordSuccess(usedDefault)
			log.Debug("ai request finished", logger.Int("length", text.Len()))
		}
	}
}

// Summarize returns a short summary of one post. It does not count
// against the free limit.
func (s *Session) Summarize(ctx context.Context, text string) (string, error) {
	key, _ := s.quota.Credential(s.defaultKey)
	streamer, err := s.connect(key)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk, err := range streamer.Stream(ctx, SummaryPrompt(text)) {
		if err != nil {
			s.log.Error("failed to generate summary", logger.Error(err))
			return "", fmt.Errorf("%w: %v", ErrSummaryFailed, err)
		}
		sb.WriteString(chunk)
	}
	return sb.String(), nil
}

// begin makes a new request live, cancelling the previous one.
func (s *Session) begin(parent context.Context) (string, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	id := uuid.NewString()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.live, s.cancel = id, cancel
	s.mu.Unlock()

	return id, ctx
}

func (s *Session) end(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == id {
		s.cancel()
		s.live, s.cancel = "", nil
	}
}

func (s *Session) isLive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live == id
}

// publish records answer as the latest, unless id is no longer live.
func (s *Session) publish(id string, answer Answer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live != id {
		return false
	}
	s.last = answer
	return true
}

// Messages shown to the user.
const (
	QuotaMessage         = "You have reached the free query limit. Please add your own API key to continue using AI features."
	RequestFailedMessage = "Failed to generate answer"
	NoKeyMessage         = "AI features are disabled. Set ANTHROPIC_API_KEY or add your own API key."
	SummaryFailedMessage = "Failed to generate summary"
)

// UserMessage returns the text to show for an AI error.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		return QuotaMessage
	case errors.Is(err, ErrNoAPIKey):
		return NoKeyMessage
	case errors.Is(err, ErrSummaryFailed):
		return SummaryFailedMessage
	case errors.Is(err, ErrEmptyQuestion):
		return "Please enter a question."
	}
	return RequestFailedMessage
}
