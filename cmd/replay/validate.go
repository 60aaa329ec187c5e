package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/replay/pkg/workflow"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workflow-file>",
		Short: "Check a workflow file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := workflow.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d steps, %d inputs, ok\n",
				def.Name, len(def.Steps), len(def.InputSchema))
			return nil
		},
	}
}
