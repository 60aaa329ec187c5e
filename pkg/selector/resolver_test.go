package selector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/replay/pkg/dom/memdom"
)

// fastConfig keeps strategy polling short so exhaustion tests stay quick.
var fastConfig = Config{
	StrategyTimeout: 20 * time.Millisecond,
	PollInterval:    5 * time.Millisecond,
}

const resolverDoc = `<html><body>
<button id="submit" class="btn primary">Submit</button>
<div class="row">first</div>
<div class="row">second</div>
<input name="q" type="text">
<button disabled id="disabled-btn">Nope</button>
<span style="display:none" id="hidden-span">ghost</span>
</body></html>`

func loadResolverPage(t *testing.T) *memdom.Page {
	t.Helper()
	page, err := memdom.Load(resolverDoc, "https://example.com/")
	require.NoError(t, err)
	return page
}

func TestResolvePriorityOrder(t *testing.T) {
	page := loadResolverPage(t)
	r := New(fastConfig, nil)

	// Both locators match; the lower priority value must win even though it
	// appears later in the list.
	out, err := r.Resolve(context.Background(), page, []Locator{
		{Kind: KindCSS, Value: ".row", Priority: 20},
		{Kind: KindCSS, Value: "#submit", Priority: 10},
	}, Constraints{Purpose: PurposeExtraction})
	require.NoError(t, err)
	assert.Equal(t, "#submit", out.Strategy.Value)
	assert.False(t, out.Ambiguous)
}

func TestResolveFirstWinStopsLaterStrategies(t *testing.T) {
	page := loadResolverPage(t)
	r := New(fastConfig, nil)

	out, err := r.Resolve(context.Background(), page, []Locator{
		{Kind: KindCSS, Value: "#submit", Priority: 1},
		{Kind: KindXPath, Value: `//div[@class='row']`, Priority: 2},
	}, Constraints{Purpose: PurposeExtraction})
	require.NoError(t, err)
	assert.Equal(t, KindCSS, out.Strategy.Kind)
	require.Len(t, out.Elements, 1)
}

func TestResolveCSSFailsXPathWins(t *testing.T) {
	page := loadResolverPage(t)
	r := New(fastConfig, nil)

	out, err := r.Resolve(context.Background(), page, []Locator{
		{Kind: KindCSS, Value: "#renamed-button", Priority: 1},
		{Kind: KindXPath, Value: `//button[@id='submit']`, Priority: 2},
	}, Constraints{Purpose: PurposeInteraction})
	require.NoError(t, err)
	assert.Equal(t, KindXPath, out.Strategy.Kind)

	el := out.First()
	require.NotNil(t, el)
	text, err := el.Text()
	require.NoError(t, err)
	assert.Equal(t, "Submit", text)
}

func TestResolveAmbiguousMatch(t *testing.T) {
	page := loadResolverPage(t)
	r := New(fastConfig, nil)

	out, err := r.Resolve(context.Background(), page, []Locator{
		{Kind: KindCSS, Value: ".row", Priority: 1},
	}, Constraints{Purpose: PurposeExtraction})
	require.NoError(t, err)
	assert.True(t, out.Ambiguous)
	require.Len(t, out.Elements, 2)

	// First in document order is used.
	text, err := out.First().Text()
	require.NoError(t, err)
	assert.Equal(t, "first", text)
}

func TestResolveAmbiguitySuppressedWhenMultipleExpected(t *testing.T) {
	page := loadResolverPage(t)
	r := New(fastConfig, nil)

	out, err := r.Resolve(context.Background(), page, []Locator{
		{Kind: KindCSS, Value: ".row", Priority: 1},
	}, Constraints{Purpose: PurposeExtraction, ExpectMultiple: true})
	require.NoError(t, err)
	assert.False(t, out.Ambiguous)
	require.Len(t, out.Elements, 2)
}

func TestResolveExhausted(t *testing.T) {
	page := loadResolverPage(t)
	r := New(fastConfig, nil)

	_, err := r.Resolve(context.Background(), page, []Locator{
		{Kind: KindCSS, Value: "#missing", Priority: 1},
		{Kind: KindXPath, Value: `//article`, Priority: 2},
	}, Constraints{Purpose: PurposeExtraction})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)

	// The exhaustion error carries the last strategy's failure reason.
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestResolveExhaustedByUnqualifiedCandidates(t *testing.T) {
	page := loadResolverPage(t)
	r := New(fastConfig, nil)

	// The locator matches, but the element cannot receive events.
	_, err := r.Resolve(context.Background(), page, []Locator{
		{Kind: KindCSS, Value: "#disabled-btn", Priority: 1},
	}, Constraints{Purpose: PurposeInteraction})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, ErrNotInteractable)
}

func TestResolveSkipsInvalidLocator(t *testing.T) {
	page := loadResolverPage(t)
	r := New(fastConfig, nil)

	// The malformed XPath disqualifies itself, not the step.
	out, err := r.Resolve(context.Background(), page, []Locator{
		{Kind: KindXPath, Value: `//div[@id='x`, Priority: 1},
		{Kind: KindCSS, Value: "#submit", Priority: 2},
	}, Constraints{Purpose: PurposeExtraction})
	require.NoError(t, err)
	assert.Equal(t, "#submit", out.Strategy.Value)
}

func TestResolveInteractionConstraints(t *testing.T) {
	page := loadResolverPage(t)
	r := New(fastConfig, nil)

	t.Run("hidden element does not qualify", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), page, []Locator{
			{Kind: KindCSS, Value: "#hidden-span", Priority: 1},
		}, Constraints{Purpose: PurposeInteraction})
		assert.ErrorIs(t, err, ErrExhausted)
	})

	t.Run("disabled element does not qualify", func(t *testing.T) {
		_, err := r.Resolve(context.Background(), page, []Locator{
			{Kind: KindCSS, Value: "#disabled-btn", Priority: 1},
		}, Constraints{Purpose: PurposeInteraction})
		assert.ErrorIs(t, err, ErrExhausted)
	})

	t.Run("hidden element still qualifies for extraction", func(t *testing.T) {
		out, err := r.Resolve(context.Background(), page, []Locator{
			{Kind: KindCSS, Value: "#hidden-span", Priority: 1},
		}, Constraints{Purpose: PurposeExtraction})
		require.NoError(t, err)
		require.Len(t, out.Elements, 1)
	})
}

func TestResolveInteractionFallbacks(t *testing.T) {
	page := loadResolverPage(t)
	r := New(fastConfig, nil)

	// No recorded locator matches; the id hint generates a working fallback.
	out, err := r.Resolve(context.Background(), page, []Locator{
		{Kind: KindCSS, Value: "#stale", Priority: 1},
	}, Constraints{
		Purpose: PurposeInteraction,
		Hints:   Hints{Tag: "button", ID: "submit", Text: "Submit"},
	})
	require.NoError(t, err)
	assert.True(t, out.Strategy.Generated())
	assert.Equal(t, "#submit", out.Strategy.Value)
}

func TestResolveTextFallback(t *testing.T) {
	page := loadResolverPage(t)
	r := New(fastConfig, nil)

	out, err := r.Resolve(context.Background(), page, []Locator{
		{Kind: KindCSS, Value: "#stale", Priority: 1},
	}, Constraints{
		Purpose: PurposeInteraction,
		Hints:   Hints{Tag: "button", Text: "Submit"},
	})
	require.NoError(t, err)
	assert.True(t, out.Strategy.Generated())
	assert.Equal(t, KindXPath, out.Strategy.Kind)
}

func TestResolveContextCancellation(t *testing.T) {
	page := loadResolverPage(t)
	r := New(Config{StrategyTimeout: 5 * time.Second, PollInterval: 10 * time.Millisecond}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Resolve(ctx, page, []Locator{
		{Kind: KindCSS, Value: "#missing", Priority: 1},
	}, Constraints{Purpose: PurposeExtraction})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
