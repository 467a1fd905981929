package stream

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownScheme is returned by Open for targets no factory handles
var ErrUnknownScheme = errors.New("unknown stream scheme")

// Factory builds a Source for a target
type Factory func(target string) (Source, error)

// Registry maps target schemes ("ws", "file", ...) to source factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a registry with the built-in schemes: ws, wss, file,
// and "-" for stdin. Targets without a scheme are file paths.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	webSocket := func(target string) (Source, error) {
		return &WebSocketSource{URL: target}, nil
	}
	r.Register("ws", webSocket)
	r.Register("wss", webSocket)
	r.Register("file", func(target string) (Source, error) {
		path := strings.TrimPrefix(target, "file://")
		if path == "" {
			return nil, fmt.Errorf("empty file target")
		}
		return &FileSource{Path: path}, nil
	})
	r.Register("-", func(string) (Source, error) {
		return &JSONLSource{Reader: os.Stdin}, nil
	})
	return r
}

// Register adds or replaces the factory for a scheme
func (r *Registry) Register(scheme string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(scheme)] = f
}

// Schemes lists the registered schemes
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for scheme := range r.factories {
		out = append(out, scheme)
	}
	sort.Strings(out)
	return out
}

// Open builds the source for target
func (r *Registry) Open(target string) (Source, error) {
	scheme := schemeOf(target)

	r.mu.RLock()
	f, ok := r.factories[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	return f(target)
}

func schemeOf(target string) string {
	if target == "-" {
		return "-"
	}
	if i := strings.Index(target, "://"); i > 0 {
		return strings.ToLower(target[:i])
	}
	return "file"
}
