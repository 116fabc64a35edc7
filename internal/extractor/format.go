package extractor

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	advisorLabel = "Holly (Advisor)"
	clientLabel  = "Client"
	unknownLabel = "Unknown"
)

// FormatTranscript renders turns as "<Speaker>: <message>" blocks separated
// by a blank line.
func FormatTranscript(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, speaker(t.Role)+": "+t.Message)
	}
	return strings.Join(lines, "\n\n")
}

func speaker(role string) string {
	switch role {
	case "agent":
		return advisorLabel
	case "user":
		return clientLabel
	case "":
		return unknownLabel
	default:
		return titleCase(role)
	}
}

// titleCase upper-cases the first letter of each word and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := true
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		switch {
		case !unicode.IsLetter(r):
			start = true
		case start:
			r = unicode.ToUpper(r)
			start = false
		default:
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
