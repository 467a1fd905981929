package parts

import (
	"bytes"
	"encoding/json"
	"time"
)

// Variant is the type tag of a conversation part
type Variant string

const (
	VariantText     Variant = "text"
	VariantTool     Variant = "tool"
	VariantThinking Variant = "thinking"
	VariantError    Variant = "error"
)

// Status is the lifecycle status reported by the transport
type Status string

const (
	StatusUnset     Status = ""
	StatusPreparing Status = "preparing"
	StatusRunning   Status = "running"
	StatusSuccess   Status = "success"
	StatusError     Status = "error"
	StatusCompleted Status = "completed"
)

// Part is one atomic unit of assistant output. Parts are treated as
// immutable values: an update for an existing id replaces the pointer held
// by the store instead of mutating the old value.
type Part struct {
	ID         string
	ThreadID   string
	CreatedAt  time.Time
	FinishedAt time.Time
	IsDone     bool
	Status     Status
	Body       Body
}

// Body is the variant-specific payload of a part
type Body interface {
	Variant() Variant
	isBody()
}

// Citation is a text annotation pointing at a source
type Citation struct {
	Type       string `json:"type,omitempty"`
	URL        string `json:"url,omitempty"`
	Title      string `json:"title,omitempty"`
	StartIndex int    `json:"start_index,omitempty"`
	EndIndex   int    `json:"end_index,omitempty"`
}

// TextBody holds assistant prose
type TextBody struct {
	Text        string
	Annotations []Citation
}

// ToolBody holds a tool invocation. Arguments is nil until the transport
// has started streaming them and may hold incomplete JSON while IsDone is
// false.
type ToolBody struct {
	Name      string
	Arguments *string
	Result    json.RawMessage
	Error     json.RawMessage
	Input     json.RawMessage
	WebSearch bool
}

// ThinkingBody holds a reasoning trace
type ThinkingBody struct {
	Text    string
	Summary []string
}

// ErrorBody holds an upstream execution failure
type ErrorBody struct {
	Code          string
	Message       string
	Type          string
	FailedIn      string
	Retryable     *bool
	TotalAttempts int
}

func (*TextBody) Variant() Variant     { return VariantText }
func (*ToolBody) Variant() Variant     { return VariantTool }
func (*ThinkingBody) Variant() Variant { return VariantThinking }
func (*ErrorBody) Variant() Variant    { return VariantError }

func (*TextBody) isBody()     {}
func (*ToolBody) isBody()     {}
func (*ThinkingBody) isBody() {}
func (*ErrorBody) isBody()    {}

// Variant returns the part's type tag. Parts without a body are text.
func (p *Part) Variant() Variant {
	if p == nil {
		return VariantText
	}
	switch b := p.Body.(type) {
	case *ToolBody:
		if b != nil {
			return VariantTool
		}
	case *ThinkingBody:
		if b != nil {
			return VariantThinking
		}
	case *ErrorBody:
		if b != nil {
			return VariantError
		}
	}
	return VariantText
}

// AsText returns the text body, or nil when the part is not text
func (p *Part) AsText() *TextBody {
	if p == nil {
		return nil
	}
	b, _ := p.Body.(*TextBody)
	return b
}

// AsTool returns the tool body, or nil when the part is not a tool
func (p *Part) AsTool() *ToolBody {
	if p == nil {
		return nil
	}
	b, _ := p.Body.(*ToolBody)
	return b
}

// AsThinking returns the thinking body, or nil when the part is not thinking
func (p *Part) AsThinking() *ThinkingBody {
	if p == nil {
		return nil
	}
	b, _ := p.Body.(*ThinkingBody)
	return b
}

// AsError returns the error body, or nil when the part is not an error
func (p *Part) AsError() *ErrorBody {
	if p == nil {
		return nil
	}
	b, _ := p.Body.(*ErrorBody)
	return b
}

// HasResult reports whether the tool carries a non-null result
func (t *ToolBody) HasResult() bool {
	return t != nil && present(t.Result)
}

// HasError reports whether the tool carries a non-null error
func (t *ToolBody) HasError() bool {
	return t != nil && present(t.Error)
}

// ErrorText returns the tool error as display text
func (t *ToolBody) ErrorText() string {
	if !t.HasError() {
		return ""
	}
	var s string
	if err := json.Unmarshal(t.Error, &s); err == nil {
		return s
	}
	return string(t.Error)
}

// ArgumentsText returns the raw arguments, or "" when none have arrived
func (t *ToolBody) ArgumentsText() string {
	if t == nil || t.Arguments == nil {
		return ""
	}
	return *t.Arguments
}

// IsRetryable reports whether the error may be resubmitted. Errors that do
// not say otherwise are retryable.
func (e *ErrorBody) IsRetryable() bool {
	if e == nil {
		return false
	}
	if e.Retryable == nil {
		return true
	}
	return *e.Retryable
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}
