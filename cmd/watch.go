package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/killallgit/partstream/pkg/config"
	"github.com/killallgit/partstream/pkg/logger"
	"github.com/killallgit/partstream/pkg/stream"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var (
		wsURL    string
		threadID string
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "watch [target]",
		Short: "Stream parts live and reprint the render list on each update",
		Long: `Stream part frames from a target (ws://, wss://, file path or "-") and
reprint the render list whenever the store changes. The target defaults to
--ws, then to stream.source from the settings file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.Get()

			target := wsURL
			if len(args) == 1 {
				target = args[0]
			}
			if target == "" {
				target = settings.Stream.Source
			}
			if target == "" {
				return fmt.Errorf("no stream target: pass a target, --ws, or set stream.source")
			}

			src, err := stream.NewRegistry().Open(target)
			if err != nil {
				return err
			}

			app, err := NewApp(settings, plain)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watch(ctx, app, src, cmd.OutOrStdout(), threadID, plain)
		},
	}

	cmd.Flags().StringVar(&wsURL, "ws", "", "websocket URL to stream from")
	cmd.Flags().StringVarP(&threadID, "thread", "t", "", "only print this thread")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colors, highlighting and screen clearing")
	cmd.Flags().StringP("mode", "m", "chat", "display mode (chat or compact)")
	cmd.Flags().Int("width", 100, "maximum line width")
	return cmd
}

// watch runs src into the app's store and reprints after every change until
// the source ends or ctx is cancelled
func watch(ctx context.Context, app *App, src stream.Source, w io.Writer, threadID string, plain bool) error {
	log := logger.WithComponent("watch")

	changed := make(chan struct{}, 1)
	app.Store.OnChange(func(id string) {
		if threadID != "" && id != threadID {
			return
		}
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, app.Store)
	}()

	term := termenv.NewOutput(w)
	redraw := func() error {
		if plain {
			if _, err := fmt.Fprintln(w, "---"); err != nil {
				return err
			}
		} else {
			term.ClearScreen()
		}
		return app.Print(w, threadID)
	}

	for {
		select {
		case <-changed:
			if err := redraw(); err != nil {
				return err
			}
		case err := <-done:
			select {
			case <-changed:
				if err := redraw(); err != nil {
					return err
				}
			default:
			}
			if errors.Is(err, context.Canceled) {
				log.Info("Watch interrupted")
				return nil
			}
			if err != nil {
				return fmt.Errorf("stream ended: %w", err)
			}
			log.Info("Stream closed")
			return nil
		}
	}
}
