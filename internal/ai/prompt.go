package ai

import (
	"fmt"
	"strings"

	"github.com/nikbrunner/xbm/internal/model"
)

// BuildContext lists every bookmark as a numbered citation target.
// The numbering matches the [n] markers the formatter links back.
func BuildContext(c model.Collection) string {
	lines := make([]string, len(c))
	for i, b := range c {
		lines[i] = fmt.Sprintf(`[%d] Post by @%s: "%s"`, i+1, b.Username, b.Text)
	}
	return strings.Join(lines, "\n\n")
}

// BuildPrompt asks question over the whole collection.
func BuildPrompt(question string, c model.Collection) string {
	return fmt.Sprintf(`Analyze these bookmarked posts and answer the following question:

%s

Question: %s

Please provide a concise response:
1. Keep it under 3-4 paragraphs
2. Focus on the most relevant posts
3. Use [n] to reference posts
4. Highlight key points with **bold**
5. Include brief quotes when relevant`, BuildContext(c), question)
}

// SummaryPrompt asks for a short summary of one post.
func SummaryPrompt(text string) string {
	return fmt.Sprintf(`Summarize this tweet in a concise way: "%s"`, text)
}
