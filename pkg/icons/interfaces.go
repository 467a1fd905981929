package icons

// Icon is a symbolic reference to a display icon
type Icon string

// RendererRef names a specialised tool renderer
type RendererRef string

const (
	IconTool       Icon = "tool"
	IconFile       Icon = "file"
	IconFileEdit   Icon = "file-edit"
	IconFolder     Icon = "folder"
	IconTerminal   Icon = "terminal"
	IconSearch     Icon = "search"
	IconWebSearch  Icon = "globe"
	IconGit        Icon = "git"
	IconCheckpoint Icon = "git-commit"
	IconPlugin     Icon = "plug"
	IconThinking   Icon = "brain"
)

const (
	RendererFileWrite RendererRef = "file_write"
	RendererShell     RendererRef = "shell"
	RendererWebSearch RendererRef = "web_search"
)

// Resolver maps tool names to icons and renderer overrides
type Resolver interface {
	// ResolveIcon returns the icon for a tool, or fallback when the tool is unknown
	ResolveIcon(toolName string, fallback Icon) Icon

	// ResolveRenderer returns the renderer override for a tool, if any
	ResolveRenderer(toolName string) (RendererRef, bool)
}

// Entry is the registry record for one tool name or prefix
type Entry struct {
	Icon     Icon        `yaml:"icon"`
	Renderer RendererRef `yaml:"renderer,omitempty"`
}

// Table is the on-disk shape of a registry overlay
type Table struct {
	Tools    map[string]Entry `yaml:"tools"`
	Prefixes map[string]Entry `yaml:"prefixes"`
}
