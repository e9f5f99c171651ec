package postprocess

import "strings"

// Marker delimits a tagged segment of model output. Matching is case-insensitive.
type Marker struct {
	Open  string
	Close string
}

// ReasoningMarkers are removed from every reply together with their content.
// An unclosed marker removes everything after it; a closing marker without an
// opening one removes everything before it.
var ReasoningMarkers = []Marker{
	{Open: "<think>", Close: "</think>"},
	{Open: "<thinking>", Close: "</thinking>"},
	{Open: "<reasoning>", Close: "</reasoning>"},
}

// FinalMarker wraps the visible answer. When present only its body is kept.
var FinalMarker = Marker{Open: "<final>", Close: "</final>"}

// StripReasoning returns the user-visible part of a raw model reply.
func StripReasoning(raw string) string {
	text := raw
	for _, m := range ReasoningMarkers {
		text = removeSegments(text, m)
	}
	if body, ok := between(text, FinalMarker); ok {
		text = body
	}
	return strings.TrimSpace(text)
}

func removeSegments(text string, m Marker) string {
	var b strings.Builder
	for {
		open := indexFold(text, m.Open)
		end := indexFold(text, m.Close)
		switch {
		case end >= 0 && (open < 0 || end < open):
			b.Reset()
			text = text[end+len(m.Close):]
		case open >= 0:
			b.WriteString(text[:open])
			rest := text[open+len(m.Open):]
			closeAt := indexFold(rest, m.Close)
			if closeAt < 0 {
				return b.String()
			}
			text = rest[closeAt+len(m.Close):]
		default:
			b.WriteString(text)
			return b.String()
		}
	}
}

func between(text string, m Marker) (string, bool) {
	start := indexFold(text, m.Open)
	if start < 0 {
		return "", false
	}
	body := text[start+len(m.Open):]
	if end := indexFold(body, m.Close); end >= 0 {
		body = body[:end]
	}
	return body, true
}

func indexFold(s, sub string) int {
	n := len(sub)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], sub) {
			return i
		}
	}
	return -1
}
