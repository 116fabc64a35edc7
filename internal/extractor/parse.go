package extractor

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/MikeSquared-Agency/factfind/internal/profile"
)

// ExtractJSON strips a Markdown code fence from a model reply. A ```json
// fence wins over a bare ``` fence; a fence with no closing marker runs to
// the end of the text.
func ExtractJSON(text string) string {
	for _, open := range []string{"```json", "```"} {
		i := strings.Index(text, open)
		if i < 0 {
			continue
		}
		body := text[i+len(open):]
		if j := strings.Index(body, "```"); j >= 0 {
			body = body[:j]
		}
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(text)
}

// ParseProfile turns a model reply into a validated profile whose status has
// been derived locally.
func ParseProfile(text string) (*profile.FinancialProfile, error) {
	payload := ExtractJSON(text)

	var probe json.RawMessage
	if err := json.Unmarshal([]byte(payload), &probe); err != nil {
		return nil, &ParseError{Snippet: truncate(payload, maxSnippet), Err: err}
	}

	p, err := profile.Decode([]byte(payload))
	if err != nil {
		var verr *profile.ValidationError
		if errors.As(err, &verr) {
			return nil, &ValidationError{Err: verr}
		}
		return nil, &ParseError{Snippet: truncate(payload, maxSnippet), Err: err}
	}
	return p, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
