package cmd

import (
	"fmt"

	"github.com/killallgit/partstream/pkg/config"
	"github.com/killallgit/partstream/pkg/logger"
	"github.com/killallgit/partstream/pkg/stream"
	"github.com/spf13/cobra"
)

func newRenderCommand() *cobra.Command {
	var (
		threadID string
		plain    bool
	)

	cmd := &cobra.Command{
		Use:   "render <file.jsonl|->",
		Short: "Replay a transport log and print the render list",
		Long: `Replay a JSON-lines transport log (one part frame per line, "-" for stdin)
into an in-memory store, then print the render list of every thread.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.WithComponent("render")

			app, err := NewApp(config.Get(), plain)
			if err != nil {
				return err
			}
			defer app.Close()

			src, err := stream.NewRegistry().Open(args[0])
			if err != nil {
				return err
			}
			if err := src.Run(cmd.Context(), app.Store); err != nil {
				return fmt.Errorf("replay failed: %w", err)
			}
			log.Info("Replayed transport log", "target", args[0], "threads", len(app.Store.Threads()))

			return app.Print(cmd.OutOrStdout(), threadID)
		},
	}

	cmd.Flags().StringVarP(&threadID, "thread", "t", "", "only print this thread")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable colors and syntax highlighting")
	cmd.Flags().StringP("mode", "m", "chat", "display mode (chat or compact)")
	cmd.Flags().Int("width", 100, "maximum line width")
	return cmd
}
