package cmd

import (
	"fmt"
	"io"

	"github.com/killallgit/partstream/pkg/aggregate"
	"github.com/killallgit/partstream/pkg/classify"
	"github.com/killallgit/partstream/pkg/config"
	"github.com/killallgit/partstream/pkg/icons"
	"github.com/killallgit/partstream/pkg/logger"
	"github.com/killallgit/partstream/pkg/render"
	"github.com/killallgit/partstream/pkg/store"
	"github.com/killallgit/partstream/pkg/timeline"
)

// App holds the pipeline shared by the subcommands
type App struct {
	Store     *store.Memory
	Engine    *aggregate.Engine
	Presenter *render.Terminal
	Mode      string

	sessions map[string]*timeline.Session
}

// NewApp wires the store, aggregation engine and presenter from settings
func NewApp(settings *config.Settings, plain bool) (*App, error) {
	log := logger.WithComponent("app")

	registry := icons.Default()
	if settings.Icons.File != "" {
		loaded, err := icons.LoadFile(settings.Icons.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load icons: %w", err)
		}
		registry = loaded
		log.Debug("Loaded icon table", "file", settings.Icons.File)
	}

	opts := []render.Option{
		render.WithIcons(registry),
		render.WithWidth(settings.Display.Width),
		render.WithMaxVisibleIcons(settings.Aggregation.MaxVisibleIcons),
	}
	if plain {
		opts = append(opts,
			render.WithStyles(render.PlainStyles()),
			render.WithHighlighter(render.NewHighlighter("noop", "")),
		)
	}

	log.Debug("Building pipeline",
		"mode", settings.Display.Mode,
		"excluded_tools", settings.Aggregation.ExcludeTools,
		"plain", plain)

	return &App{
		Store:     store.NewMemory(),
		Engine:    aggregate.NewEngine(classify.New(settings.Aggregation.ExcludeTools...)),
		Presenter: render.NewTerminal(opts...),
		Mode:      settings.Display.Mode,
		sessions:  make(map[string]*timeline.Session),
	}, nil
}

// Session returns the timeline session for a thread, creating it on first use
func (a *App) Session(threadID string) *timeline.Session {
	if s, ok := a.sessions[threadID]; ok {
		return s
	}
	s := timeline.NewSession(threadID, a.Store,
		timeline.WithEngine(a.Engine),
		timeline.WithPresenter(a.Presenter),
		timeline.WithMetricsOptions(a.Presenter.MetricsOptions()),
		timeline.WithMode(a.Mode),
	)
	a.sessions[threadID] = s
	return s
}

// Threads lists the threads to print. A non-empty filter selects one thread.
func (a *App) Threads(filter string) []string {
	if filter != "" {
		return []string{filter}
	}
	return a.Store.Threads()
}

// Print writes the current render list of each selected thread to w
func (a *App) Print(w io.Writer, filter string) error {
	threads := a.Threads(filter)
	for i, threadID := range threads {
		if len(threads) > 1 {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "── %s\n", threadID); err != nil {
				return err
			}
		}
		for _, entry := range a.Session(threadID).Refresh() {
			if _, err := fmt.Fprintln(w, entry.Text); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close releases every session
func (a *App) Close() {
	for _, s := range a.sessions {
		s.Close()
	}
	a.sessions = make(map[string]*timeline.Session)
}
