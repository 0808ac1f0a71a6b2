package types

// Tool is the active editor tool. Exactly one tool is active at a time and it
// decides what a pointer press on the canvas does.
type Tool int

const (
	// ToolMove selects and drags layers.
	ToolMove Tool = iota
	// ToolGenerativeFill draws a rectangular selection for AI fill.
	ToolGenerativeFill
	// ToolRemoveBackground marks the background-removal tool as active.
	ToolRemoveBackground
)

func (t Tool) String() string {
	switch t {
	case ToolMove:
		return "move"
	case ToolGenerativeFill:
		return "generative-fill"
	case ToolRemoveBackground:
		return "remove-background"
	default:
		return "unknown"
	}
}

// Tools lists every tool in toolbar order.
func Tools() []Tool {
	return []Tool{ToolMove, ToolGenerativeFill, ToolRemoveBackground}
}
