package icons

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTable is returned when an overlay file cannot be used
var ErrInvalidTable = errors.New("invalid icon table")

type prefixRule struct {
	prefix string
	entry  Entry
}

// Registry is the default Resolver. It is immutable after construction, so
// one instance can be shared by every session.
type Registry struct {
	exact    map[string]Entry
	prefixes []prefixRule
}

var builtinTools = map[string]Entry{
	"read_file":         {Icon: IconFile},
	"view":              {Icon: IconFile},
	"write_file":        {Icon: IconFileEdit, Renderer: RendererFileWrite},
	"create_file":       {Icon: IconFileEdit, Renderer: RendererFileWrite},
	"edit_file":         {Icon: IconFileEdit, Renderer: RendererFileWrite},
	"str_replace":       {Icon: IconFileEdit, Renderer: RendererFileWrite},
	"list_dir":          {Icon: IconFolder},
	"ls":                {Icon: IconFolder},
	"tree":              {Icon: IconFolder},
	"bash":              {Icon: IconTerminal, Renderer: RendererShell},
	"shell":             {Icon: IconTerminal, Renderer: RendererShell},
	"run_command":       {Icon: IconTerminal, Renderer: RendererShell},
	"grep":              {Icon: IconSearch},
	"glob":              {Icon: IconSearch},
	"search":            {Icon: IconSearch},
	"web_search":        {Icon: IconWebSearch, Renderer: RendererWebSearch},
	"web_fetch":         {Icon: IconWebSearch},
	"commit":            {Icon: IconCheckpoint},
	"git_commit":        {Icon: IconCheckpoint},
	"git_status":        {Icon: IconGit},
	"git_diff":          {Icon: IconGit},
	"checkpoint":        {Icon: IconCheckpoint},
	"create_checkpoint": {Icon: IconCheckpoint},
}

var builtinPrefixes = map[string]Entry{
	"mcp__": {Icon: IconPlugin},
	"git_":  {Icon: IconGit},
}

var defaultRegistry = New()

// Default returns the shared registry holding the built-in table
func Default() *Registry {
	return defaultRegistry
}

// New creates a registry holding the built-in table
func New() *Registry {
	return build(Table{Tools: builtinTools, Prefixes: builtinPrefixes})
}

// With returns a copy of r with overlay entries taking precedence
func (r *Registry) With(overlay Table) *Registry {
	merged := Table{
		Tools:    make(map[string]Entry, len(r.exact)+len(overlay.Tools)),
		Prefixes: make(map[string]Entry, len(r.prefixes)+len(overlay.Prefixes)),
	}
	for name, e := range r.exact {
		merged.Tools[name] = e
	}
	for _, rule := range r.prefixes {
		merged.Prefixes[rule.prefix] = rule.entry
	}
	// keys are normalized before merging so an overlay "Bash" replaces the
	// built-in "bash"; sorted order settles case variants within the overlay
	for _, name := range sortedKeys(overlay.Tools) {
		merged.Tools[normalize(name)] = overlay.Tools[name]
	}
	for _, prefix := range sortedKeys(overlay.Prefixes) {
		merged.Prefixes[normalize(prefix)] = overlay.Prefixes[prefix]
	}
	return build(merged)
}

func sortedKeys(m map[string]Entry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func build(t Table) *Registry {
	r := &Registry{exact: make(map[string]Entry, len(t.Tools))}
	for name, e := range t.Tools {
		r.exact[normalize(name)] = e
	}
	for prefix, e := range t.Prefixes {
		r.prefixes = append(r.prefixes, prefixRule{prefix: normalize(prefix), entry: e})
	}
	// longest prefix wins
	sort.Slice(r.prefixes, func(i, j int) bool {
		if len(r.prefixes[i].prefix) != len(r.prefixes[j].prefix) {
			return len(r.prefixes[i].prefix) > len(r.prefixes[j].prefix)
		}
		return r.prefixes[i].prefix < r.prefixes[j].prefix
	})
	return r
}

// ResolveIcon implements Resolver
func (r *Registry) ResolveIcon(toolName string, fallback Icon) Icon {
	e, ok := r.lookup(toolName)
	if !ok || e.Icon == "" {
		return fallback
	}
	return e.Icon
}

// ResolveRenderer implements Resolver
func (r *Registry) ResolveRenderer(toolName string) (RendererRef, bool) {
	e, ok := r.lookup(toolName)
	if !ok || e.Renderer == "" {
		return "", false
	}
	return e.Renderer, true
}

func (r *Registry) lookup(toolName string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	name := normalize(toolName)
	if name == "" {
		return Entry{}, false
	}
	if e, ok := r.exact[name]; ok {
		return e, true
	}
	for _, rule := range r.prefixes {
		if strings.HasPrefix(name, rule.prefix) {
			return rule.entry, true
		}
	}
	return Entry{}, false
}

// Parse decodes a YAML overlay table
func Parse(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	for name, e := range t.Tools {
		if normalize(name) == "" {
			return Table{}, fmt.Errorf("%w: empty tool name", ErrInvalidTable)
		}
		if e.Icon == "" && e.Renderer == "" {
			return Table{}, fmt.Errorf("%w: tool %q has neither icon nor renderer", ErrInvalidTable, name)
		}
	}
	for prefix := range t.Prefixes {
		if normalize(prefix) == "" {
			return Table{}, fmt.Errorf("%w: empty prefix", ErrInvalidTable)
		}
	}
	return t, nil
}

// LoadFile returns the built-in registry overlaid with the table in path
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read icon table: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return New().With(t), nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
