package partstate

import "github.com/killallgit/partstream/pkg/parts"

// ThinkingPhase is the lifecycle of a thinking card
type ThinkingPhase int

const (
	ThinkingInProgress ThinkingPhase = iota
	ThinkingCompleted
)

// String returns the string representation of the phase
func (p ThinkingPhase) String() string {
	switch p {
	case ThinkingInProgress:
		return "thinking"
	case ThinkingCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ToolPhase is the lifecycle of a tool card
type ToolPhase int

const (
	ToolPreparing ToolPhase = iota
	ToolRunning
	ToolSuccess
	ToolError
)

// String returns the string representation of the phase
func (p ToolPhase) String() string {
	switch p {
	case ToolPreparing:
		return "preparing"
	case ToolRunning:
		return "running"
	case ToolSuccess:
		return "success"
	case ToolError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is expected
func (p ToolPhase) Terminal() bool {
	return p == ToolSuccess || p == ToolError
}

// ThinkingPhaseOf derives the phase from the part alone
func ThinkingPhaseOf(p *parts.Part) ThinkingPhase {
	if p != nil && (p.IsDone || p.Status == parts.StatusCompleted) {
		return ThinkingCompleted
	}
	return ThinkingInProgress
}

// ToolPhaseOf derives the phase from the part alone. An error wins over a
// result; success needs a finished part with a result.
func ToolPhaseOf(p *parts.Part) ToolPhase {
	tool := p.AsTool()
	if tool == nil {
		return ToolPreparing
	}
	switch {
	case tool.HasError():
		return ToolError
	case p.IsDone && tool.HasResult():
		return ToolSuccess
	case p.IsDone:
		return ToolRunning
	}
	switch p.Status {
	case parts.StatusRunning, parts.StatusSuccess, parts.StatusCompleted, parts.StatusError:
		return ToolRunning
	default:
		return ToolPreparing
	}
}

// IsStreaming reports whether tool arguments are still arriving. It gates
// the busy visual independently of the phase.
func IsStreaming(p *parts.Part) bool {
	tool := p.AsTool()
	return tool != nil && !p.IsDone && tool.Arguments != nil
}
