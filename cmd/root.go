package cmd

import (
	"fmt"
	"os"

	"github.com/killallgit/partstream/pkg/config"
	"github.com/killallgit/partstream/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagBindings maps command flags onto settings keys. Bindings are applied
// right before config is loaded so a flag only wins when it was set.
var flagBindings = map[string]string{
	"log-level": "logging.level",
	"mode":      "display.mode",
	"width":     "display.width",
}

// NewRootCommand builds the partstream command tree
func NewRootCommand() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "partstream",
		Short: "Render streamed assistant message parts",
		Long: `partstream consumes a stream of assistant message parts (text, thinking,
tool calls, errors) and prints the render list a chat view would show,
folding runs of tool activity into single summary rows.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for name, key := range flagBindings {
				if f := cmd.Flags().Lookup(name); f != nil {
					if err := viper.BindPFlag(key, f); err != nil {
						return fmt.Errorf("failed to bind --%s: %w", name, err)
					}
				}
			}
			if err := config.Init(cfgFile); err != nil {
				return err
			}
			return logger.Init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Close()
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .partstream/settings.yaml)")
	root.PersistentFlags().StringP("log-level", "l", "info", "log level")

	root.AddCommand(newRenderCommand())
	root.AddCommand(newWatchCommand())
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
