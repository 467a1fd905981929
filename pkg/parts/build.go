package parts

import "time"

// NewText creates a text part
func NewText(id, text string) *Part {
	return &Part{ID: id, Body: &TextBody{Text: text}}
}

// NewTool creates a tool part with no arguments streamed yet
func NewTool(id, name string) *Part {
	return &Part{ID: id, Body: &ToolBody{Name: name}}
}

// NewThinking creates a thinking part
func NewThinking(id, text string) *Part {
	return &Part{ID: id, Body: &ThinkingBody{Text: text}}
}

// NewError creates an error part
func NewError(id, message string) *Part {
	return &Part{ID: id, Body: &ErrorBody{Message: message}}
}

// ParseTimestamp parses an RFC 3339 timestamp, with or without fractional
// seconds. The second return value is false for empty or malformed input.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ElapsedSeconds returns FinishedAt - CreatedAt in seconds. It reports false
// when either timestamp is missing or the interval is negative.
func ElapsedSeconds(p *Part) (float64, bool) {
	if p == nil || p.CreatedAt.IsZero() || p.FinishedAt.IsZero() {
		return 0, false
	}
	d := p.FinishedAt.Sub(p.CreatedAt)
	if d < 0 {
		return 0, false
	}
	return d.Seconds(), true
}
