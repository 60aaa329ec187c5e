package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/entrhq/replay/pkg/browser"
	"github.com/entrhq/replay/pkg/config"
	"github.com/entrhq/replay/pkg/dom"
	"github.com/entrhq/replay/pkg/refiner"
	"github.com/entrhq/replay/pkg/runner"
	"github.com/entrhq/replay/pkg/workflow"
)

type runFlags struct {
	inputs        []string
	inputFile     string
	headless      bool
	reportDir     string
	allowDomains  []string
	denyDomains   []string
	timeout       time.Duration
	agentMaxSteps int
	model         string
	baseURL       string
	apiKey        string
}

func newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run <workflow-file>",
		Short: "Run a workflow with bound input values",
		Long: `Run executes a workflow file (.json or .yaml) against a fresh browser
session. Inputs are bound with repeated --input name=value flags, or an
--input-file holding a JSON array of input objects to run the workflow once
per object, concurrently, each run in its own isolated session.

The exit status is 0 when every run completes and 1 when any run aborts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd.Context(), args[0], flags)
		},
	}
	cmd.Flags().StringArrayVarP(&flags.inputs, "input", "i", nil, "input binding name=value (repeatable)")
	cmd.Flags().StringVar(&flags.inputFile, "input-file", "", "JSON file with an array of input objects, one run each")
	cmd.Flags().BoolVar(&flags.headless, "headless", true, "run the browser headless")
	cmd.Flags().StringVar(&flags.reportDir, "report-dir", "", "directory to write run reports into")
	cmd.Flags().StringArrayVar(&flags.allowDomains, "allow-domain", nil, "host pattern the run may navigate to (repeatable)")
	cmd.Flags().StringArrayVar(&flags.denyDomains, "deny-domain", nil, "host pattern the run may never navigate to (repeatable)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 10*time.Minute, "overall run timeout")
	cmd.Flags().IntVar(&flags.agentMaxSteps, "agent-max-steps", 0, "step budget for fallback agent invocations")
	cmd.Flags().StringVar(&flags.model, "model", "", "model for extract_page_content steps")
	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "LLM API base URL")
	cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "LLM API key")
	return cmd
}

func runWorkflow(ctx context.Context, path string, flags runFlags) error {
	log, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	def, err := workflow.Load(path)
	if err != nil {
		return err
	}

	inputSets, err := collectInputSets(def, flags)
	if err != nil {
		return err
	}

	guard, err := config.GetDomains().Guard(flags.allowDomains, flags.denyDomains)
	if err != nil {
		return err
	}

	content, err := buildContentExtractor(def, flags, log)
	if err != nil {
		return err
	}

	browserCfg := config.GetBrowser()
	sessionOpts := browserCfg.SessionOptions()
	sessionOpts.Headless = flags.headless

	mgr := browser.NewSessionManager()
	if err := mgr.Initialize(); err != nil {
		return err
	}
	defer mgr.Shutdown()
	maxSessions := browserCfg.GetMaxSessions()
	if len(inputSets) > maxSessions {
		maxSessions = len(inputSets)
	}
	mgr.SetMaxSessions(maxSessions)
	mgr.SetIdleTimeout(time.Duration(browserCfg.GetIdleTimeoutSeconds()) * time.Second)

	resolverCfg := config.GetResolver()
	agentMaxSteps := flags.agentMaxSteps
	if agentMaxSteps == 0 {
		agentMaxSteps = resolverCfg.GetAgentMaxSteps()
	}
	exec := runner.NewExecutor(runner.Config{
		Resolver:      resolverCfg.SelectorConfig(),
		AgentMaxSteps: agentMaxSteps,
	}, nil, content, log)

	ctx, cancel := context.WithTimeout(ctx, flags.timeout)
	defer cancel()

	// Independent runs of the same workflow execute concurrently, each bound
	// to its own session. An aborted run does not cancel its siblings; only
	// the overall timeout does.
	provider := func(ctx context.Context, run int) (dom.Page, func(), error) {
		session, err := mgr.StartSession(fmt.Sprintf("run-%d", run), sessionOpts)
		if err != nil {
			return nil, nil, err
		}
		return session.DOM(guard), func() { mgr.CloseSession(session.Name) }, nil
	}
	reports, runErr := exec.RunAll(ctx, provider, def, inputSets)

	if flags.reportDir != "" {
		for _, report := range reports {
			if report == nil {
				continue
			}
			path := filepath.Join(flags.reportDir, report.RunID+".json")
			if werr := report.WriteFile(path); werr != nil {
				log.Warn("failed to persist run report", zap.Error(werr))
			}
		}
	}

	printOutputs(reports)
	if runErr != nil {
		return fmt.Errorf("run aborted: %w", runErr)
	}
	return nil
}

// collectInputSets builds one input map per run from the flags, coercing
// values to the schema's declared types.
func collectInputSets(def *workflow.Definition, flags runFlags) ([]map[string]any, error) {
	if flags.inputFile != "" {
		if len(flags.inputs) > 0 {
			return nil, fmt.Errorf("--input and --input-file are mutually exclusive")
		}
		data, err := os.ReadFile(flags.inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		var sets []map[string]any
		if err := json.Unmarshal(data, &sets); err != nil {
			return nil, fmt.Errorf("input file must hold a JSON array of objects: %w", err)
		}
		if len(sets) == 0 {
			return nil, fmt.Errorf("input file holds no input sets")
		}
		return sets, nil
	}

	inputs := make(map[string]any, len(flags.inputs))
	for _, binding := range flags.inputs {
		name, raw, ok := strings.Cut(binding, "=")
		if !ok {
			return nil, fmt.Errorf("invalid input binding %q, expected name=value", binding)
		}
		inputs[name] = coerceInput(def, name, raw)
	}
	return []map[string]any{inputs}, nil
}

// coerceInput converts a flag string to the schema's declared type. Unknown
// names stay strings; schema validation rejects them later.
func coerceInput(def *workflow.Definition, name, raw string) any {
	for _, f := range def.InputSchema {
		if f.Name != name {
			continue
		}
		switch f.Type {
		case "number":
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				return n
			}
		case "bool":
			if b, err := strconv.ParseBool(raw); err == nil {
				return b
			}
		}
		return raw
	}
	return raw
}

// buildContentExtractor wires the LLM collaborator only when the workflow
// actually carries extract_page_content steps.
func buildContentExtractor(def *workflow.Definition, flags runFlags, log *zap.Logger) (runner.ContentExtractor, error) {
	needed := false
	for _, s := range def.Steps {
		if s.Type() == workflow.TypeExtractPageContent {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}
	provider, err := config.BuildProvider(flags.model, flags.baseURL, flags.apiKey)
	if err != nil {
		return nil, fmt.Errorf("workflow has extract_page_content steps: %w", err)
	}
	return refiner.NewContentExtractor(provider, log), nil
}

func printOutputs(reports []*runner.Report) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, r := range reports {
		if r == nil {
			continue
		}
		enc.Encode(map[string]any{
			"runId":    r.RunID,
			"workflow": r.Workflow,
			"state":    r.State,
			"outputs":  r.Outputs,
		})
	}
}
