package refiner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/replay/pkg/llm"
)

// stubProvider answers every completion with a fixed response.
type stubProvider struct {
	response string
	lastMsgs []*llm.Message
	lastOpts llm.CompletionOptions
}

func (s *stubProvider) Complete(_ context.Context, msgs []*llm.Message, opts llm.CompletionOptions) (*llm.Message, error) {
	s.lastMsgs = msgs
	s.lastOpts = opts
	return &llm.Message{Role: llm.RoleAssistant, Content: s.response}, nil
}

func (s *stubProvider) GetModel() string   { return "stub" }
func (s *stubProvider) GetBaseURL() string { return "stub://" }

const catalogSample = `<html><body>
<ul id="books">
  <li class="book"><span class="title">Stoner</span><a class="author" href="/a/1">John Williams</a></li>
  <li class="book"><span class="title">Cold Mountain</span><a class="author" href="/a/2">Charles Frazier</a></li>
</ul>
</body></html>`

const catalogPlanJSON = `{
  "containerSelector": "li.book",
  "containerXpath": "//li[@class='book']",
  "fields": [
    {"name": "title", "selector": ".title"},
    {"name": "author_url", "selector": "a.author", "type": "href"}
  ]
}`

func TestParsePlan(t *testing.T) {
	t.Run("bare json", func(t *testing.T) {
		plan, err := parsePlan(catalogPlanJSON)
		require.NoError(t, err)
		assert.Equal(t, "li.book", plan.ContainerSelector)
		require.Len(t, plan.Fields, 2)
		assert.Equal(t, "title", plan.Fields[0].Name)
	})

	t.Run("fenced json", func(t *testing.T) {
		plan, err := parsePlan("```json\n" + catalogPlanJSON + "\n```")
		require.NoError(t, err)
		assert.Equal(t, "li.book", plan.ContainerSelector)
	})

	t.Run("fence without language tag", func(t *testing.T) {
		plan, err := parsePlan("```\n" + catalogPlanJSON + "\n```")
		require.NoError(t, err)
		assert.Equal(t, "li.book", plan.ContainerSelector)
	})

	t.Run("unparseable", func(t *testing.T) {
		_, err := parsePlan("sorry, I cannot do that")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unparseable")
	})

	t.Run("parseable but invalid", func(t *testing.T) {
		_, err := parsePlan(`{"containerSelector": ".c", "fields": []}`)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid plan")
	})
}

func TestRefine(t *testing.T) {
	if testing.Short() {
		t.Skip("requires the token encoding, which may be fetched over the network")
	}

	provider := &stubProvider{response: catalogPlanJSON}
	r := NewLLMRefiner(provider, nil)

	plan, err := r.Refine(context.Background(), Request{
		HTMLSample: catalogSample,
		Rule:       "title and author link of each book",
		Multiple:   true,
	})
	require.NoError(t, err)
	assert.True(t, plan.Multiple)
	assert.Equal(t, "li.book", plan.ContainerSelector)

	// The provider was asked for JSON and saw the cleaned sample.
	assert.True(t, provider.lastOpts.JSONResponse)
	require.Len(t, provider.lastMsgs, 2)
	assert.Equal(t, llm.RoleSystem, provider.lastMsgs[0].Role)
	assert.Contains(t, provider.lastMsgs[1].Content, "title and author link")
	assert.Contains(t, provider.lastMsgs[1].Content, "Stoner")
}

func TestRefineRejectsMismatchedPlan(t *testing.T) {
	if testing.Short() {
		t.Skip("requires the token encoding, which may be fetched over the network")
	}

	provider := &stubProvider{response: `{
		"containerSelector": ".product-card",
		"fields": [{"name": "title", "selector": ".title"}]
	}`}
	r := NewLLMRefiner(provider, nil)

	_, err := r.Refine(context.Background(), Request{
		HTMLSample: catalogSample,
		Rule:       "titles",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match the sample")
}

func TestRefineEmptyInputs(t *testing.T) {
	r := NewLLMRefiner(&stubProvider{}, nil)

	_, err := r.Refine(context.Background(), Request{HTMLSample: catalogSample})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule is empty")

	_, err = r.Refine(context.Background(), Request{Rule: "titles"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample is empty")
}

func TestContentExtractor(t *testing.T) {
	if testing.Short() {
		t.Skip("requires the token encoding, which may be fetched over the network")
	}

	provider := &stubProvider{response: `{"summary": "two novels"}`}
	c := NewContentExtractor(provider, nil)

	result, err := c.ExtractContent(context.Background(), catalogSample, "summarize the catalog")
	require.NoError(t, err)
	m, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "two novels", m["summary"])

	assert.Contains(t, provider.lastMsgs[1].Content, "summarize the catalog")
}

func TestContentExtractorPlainTextAnswer(t *testing.T) {
	if testing.Short() {
		t.Skip("requires the token encoding, which may be fetched over the network")
	}

	provider := &stubProvider{response: "The catalog lists two novels."}
	c := NewContentExtractor(provider, nil)

	result, err := c.ExtractContent(context.Background(), catalogSample, "summarize")
	require.NoError(t, err)
	assert.Equal(t, "The catalog lists two novels.", result)
}

func TestContentExtractorEmptyGoal(t *testing.T) {
	c := NewContentExtractor(&stubProvider{}, nil)
	_, err := c.ExtractContent(context.Background(), catalogSample, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goal is empty")
}
