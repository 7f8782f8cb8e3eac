package ai

// Answer is one snapshot of a streaming answer. Text is the accumulated raw
// text and HTML its formatted rendering; both grow with every chunk.
type Answer struct {
	RequestID string `json:"requestId"`
	Text      string `json:"text"`
	HTML      string `json:"html"`
}

// apiRequest represents the Anthropic API request body.
type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	Messages  []apiMessage `json:"messages"`
	Stream    bool         `json:"stream"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamEvent is the payload of one server-sent event.
type streamEvent struct {
	Type  string    `json:"type"`
	Delta *delta    `json:"delta,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

type delta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
