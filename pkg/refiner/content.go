package refiner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/entrhq/replay/pkg/htmlutil"
	"github.com/entrhq/replay/pkg/llm"
)

const contentSystemPrompt = `You extract information from web pages. Given page HTML and an extraction goal, respond with a single JSON object holding the requested information. Use null for anything the page does not contain. Respond with the JSON object only, no commentary.`

// ContentExtractor answers free-form extraction goals against whole pages.
// It backs extract_page_content steps; structured per-field extraction goes
// through extraction plans instead.
type ContentExtractor struct {
	provider  llm.Provider
	log       *zap.Logger
	maxTokens int
}

// NewContentExtractor creates a page-content extractor. A nil logger
// disables logging.
func NewContentExtractor(provider llm.Provider, log *zap.Logger) *ContentExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContentExtractor{
		provider:  provider,
		log:       log.Named("pagecontent"),
		maxTokens: DefaultMaxSampleTokens,
	}
}

// ExtractContent cleans and caps the page HTML, asks the model for the goal,
// and returns the decoded JSON result.
func (c *ContentExtractor) ExtractContent(ctx context.Context, rawHTML, goal string) (any, error) {
	if goal == "" {
		return nil, fmt.Errorf("extraction goal is empty")
	}
	cleaned, err := htmlutil.Clean(rawHTML, DefaultMaxSampleChars)
	if err != nil {
		return nil, err
	}
	sample := cleaned.HTML
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding: %w", err)
	}
	if tokens := enc.Encode(sample, nil, nil); len(tokens) > c.maxTokens {
		c.log.Debug("page exceeds token budget, truncating",
			zap.Int("tokens", len(tokens)),
			zap.Int("budget", c.maxTokens))
		sample = enc.Decode(tokens[:c.maxTokens])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", goal)
	if cleaned.Title != "" {
		fmt.Fprintf(&b, "Page title: %s\n", cleaned.Title)
	}
	fmt.Fprintf(&b, "\nPage HTML:\n%s", sample)

	msg, err := c.provider.Complete(ctx, []*llm.Message{
		llm.NewSystemMessage(contentSystemPrompt),
		llm.NewUserMessage(b.String()),
	}, llm.CompletionOptions{JSONResponse: true})
	if err != nil {
		return nil, fmt.Errorf("content extraction failed: %w", err)
	}

	content := strings.TrimSpace(msg.Content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	var result any
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		// Some models answer plain text despite the format request; pass the
		// text through rather than failing the step.
		return msg.Content, nil
	}
	return result, nil
}
