package refiner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/entrhq/replay/pkg/dom/memdom"
	"github.com/entrhq/replay/pkg/extraction"
	"github.com/entrhq/replay/pkg/htmlutil"
	"github.com/entrhq/replay/pkg/llm"
	"github.com/entrhq/replay/pkg/selector"
)

// Prompt budget defaults. The sample is cleaned first, then token-capped, so
// the budget is spent on semantic markup rather than scripts and styles.
const (
	DefaultMaxSampleTokens = 16000
	DefaultMaxSampleChars  = 120000

	tokenEncoding = "cl100k_base"
)

const planSystemPrompt = `You write DOM extraction plans. Given an HTML sample and a description of what to extract, respond with a single JSON object:
{
  "containerXpath": "XPath of the element holding one record",
  "containerSelector": "equivalent CSS selector, if expressible",
  "fields": [
    {"name": "field_name", "xpath": "XPath relative to the container", "selector": "CSS alternative", "type": "text|attribute|href|src", "attribute": "attribute name, only when type is attribute"}
  ],
  "excludeXpaths": ["XPaths of subtrees to ignore, relative to the container"],
  "multiple": true or false
}
Rules:
- Field locators must be relative to the container (start with .// or be a CSS selector).
- Prefer stable attributes (id, data-*) over positional paths.
- Use type "text" unless the value lives in an attribute.
- Respond with the JSON object only, no commentary.`

// LLMRefiner derives extraction plans with a language model and verifies
// each plan against the sample before returning it.
type LLMRefiner struct {
	provider        llm.Provider
	log             *zap.Logger
	maxSampleTokens int
}

// Option configures an LLMRefiner.
type Option func(*LLMRefiner)

// WithMaxSampleTokens caps the token budget spent on the HTML sample.
func WithMaxSampleTokens(n int) Option {
	return func(r *LLMRefiner) {
		r.maxSampleTokens = n
	}
}

// NewLLMRefiner creates a refiner on top of an LLM provider. A nil logger
// disables logging.
func NewLLMRefiner(provider llm.Provider, log *zap.Logger, opts ...Option) *LLMRefiner {
	if log == nil {
		log = zap.NewNop()
	}
	r := &LLMRefiner{
		provider:        provider,
		log:             log.Named("refiner"),
		maxSampleTokens: DefaultMaxSampleTokens,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refine cleans and caps the sample, asks the model for a plan, and rejects
// plans whose container does not resolve against the sample.
func (r *LLMRefiner) Refine(ctx context.Context, req Request) (*extraction.Plan, error) {
	if req.Rule == "" {
		return nil, fmt.Errorf("refinement rule is empty")
	}
	sample, err := r.prepareSample(req.HTMLSample)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Extract: %s\n", req.Rule)
	if req.Multiple {
		b.WriteString("The rule targets repeated records; produce one record per container.\n")
	}
	fmt.Fprintf(&b, "\nHTML sample:\n%s", sample)

	msg, err := r.provider.Complete(ctx, []*llm.Message{
		llm.NewSystemMessage(planSystemPrompt),
		llm.NewUserMessage(b.String()),
	}, llm.CompletionOptions{JSONResponse: true})
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	plan, err := parsePlan(msg.Content)
	if err != nil {
		return nil, err
	}
	plan.Multiple = req.Multiple

	if err := r.verify(ctx, plan, req.HTMLSample); err != nil {
		return nil, err
	}
	r.log.Debug("plan verified against sample",
		zap.String("container", plan.ContainerXPath),
		zap.Int("fields", len(plan.Fields)))
	return plan, nil
}

// prepareSample strips noise from the sample and trims it to the token
// budget.
func (r *LLMRefiner) prepareSample(rawHTML string) (string, error) {
	if rawHTML == "" {
		return "", fmt.Errorf("html sample is empty")
	}
	cleaned, err := htmlutil.Clean(rawHTML, DefaultMaxSampleChars)
	if err != nil {
		return "", err
	}
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return "", fmt.Errorf("failed to load token encoding: %w", err)
	}
	tokens := enc.Encode(cleaned.HTML, nil, nil)
	if len(tokens) <= r.maxSampleTokens {
		return cleaned.HTML, nil
	}
	r.log.Debug("sample exceeds token budget, truncating",
		zap.Int("tokens", len(tokens)),
		zap.Int("budget", r.maxSampleTokens))
	return enc.Decode(tokens[:r.maxSampleTokens]), nil
}

// parsePlan decodes the model's JSON, tolerating a fenced code block.
func parsePlan(content string) (*extraction.Plan, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	var plan extraction.Plan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return nil, fmt.Errorf("model returned unparseable plan: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("model returned invalid plan: %w", err)
	}
	return &plan, nil
}

// verify runs the plan against an in-memory copy of the sample. A plan whose
// container does not resolve there will not resolve on the live page either.
func (r *LLMRefiner) verify(ctx context.Context, plan *extraction.Plan, rawHTML string) error {
	page, err := memdom.Load(rawHTML, "about:sample")
	if err != nil {
		return fmt.Errorf("failed to load sample for verification: %w", err)
	}
	resolver := selector.New(selector.Config{
		StrategyTimeout: time.Millisecond,
		PollInterval:    time.Millisecond,
	}, r.log)
	engine := extraction.NewEngine(resolver, r.log)
	records, err := engine.Extract(ctx, page, plan)
	if err != nil {
		if errors.Is(err, extraction.ErrContainerNotFound) {
			return fmt.Errorf("generated plan does not match the sample: %w", err)
		}
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("generated plan produced no records from the sample")
	}
	return nil
}
