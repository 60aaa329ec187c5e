package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/entrhq/replay/pkg/config"
	"github.com/entrhq/replay/pkg/refiner"
)

func newRefineCmd() *cobra.Command {
	var (
		htmlFile string
		rule     string
		multiple bool
		model    string
		baseURL  string
		apiKey   string
	)
	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Derive an extraction plan from an HTML sample and a rule",
		Long: `Refine asks the configured model to turn a natural-language extraction
rule plus a sample page into a concrete extraction plan, verifies the plan
against the sample, and prints it as JSON for use in extract_dom_content
steps.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closeLog, err := newLogger()
			if err != nil {
				return err
			}
			defer closeLog()

			sample, err := os.ReadFile(htmlFile)
			if err != nil {
				return fmt.Errorf("failed to read HTML sample: %w", err)
			}
			provider, err := config.BuildProvider(model, baseURL, apiKey)
			if err != nil {
				return err
			}

			plan, err := refiner.NewLLMRefiner(provider, log).Refine(cmd.Context(), refiner.Request{
				HTMLSample: string(sample),
				Rule:       rule,
				Multiple:   multiple,
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}
	cmd.Flags().StringVar(&htmlFile, "html", "", "path to the HTML sample")
	cmd.Flags().StringVar(&rule, "rule", "", "natural-language extraction rule")
	cmd.Flags().BoolVar(&multiple, "multiple", false, "the rule targets repeated records")
	cmd.Flags().StringVar(&model, "model", "", "model to use")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "LLM API base URL")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "LLM API key")
	cmd.MarkFlagRequired("html")
	cmd.MarkFlagRequired("rule")
	return cmd
}
