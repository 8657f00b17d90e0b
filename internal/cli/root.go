package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/AdityaBITMESRA/neurotree/pkg/buildinfo"
)

// Execute runs the neurotree CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newRootCmd builds the root command with the global --verbose and --config
// flags; the logger is attached to the context in PersistentPreRunE and is
// accessible to all commands via loggerFromContext.
func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
		cfg        Config
	)

	root := &cobra.Command{
		Use:          "neurotree",
		Short:        "neurotree converts neuronal morphologies between SWC and segment-model form",
		Long:         `neurotree is a CLI tool for converting neuronal morphologies between the flat SWC point-tree format and the structured segment/segment-group model, normalizing the soma encoding along the way.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			cfg = loaded

			level := charmlog.InfoLevel
			if verbose || cfg.Verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/neurotree/config.toml)")

	root.AddCommand(newToNMLCmd(&cfg))
	root.AddCommand(newToSWCCmd(&cfg))
	root.AddCommand(newInspectCmd())
	root.AddCommand(newCompletionCmd())

	return root
}
