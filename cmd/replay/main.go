// Command replay executes recorded browser workflows.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/entrhq/replay/pkg/config"
	"github.com/entrhq/replay/pkg/logging"
)

var (
	verbose    bool
	configPath string
)

func main() {
	root := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded browser workflows",
		Long: `replay runs previously recorded browser interactions as structured,
reusable automations that tolerate page-structure drift.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Initialize(configPath); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.replay/config.json)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newRefineCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger builds the process logger. Debug level is gated on --verbose.
func newLogger() (*zap.Logger, func(), error) {
	return logging.New(verbose)
}
