package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInteractionFallbacks(t *testing.T) {
	locs := InteractionFallbacks(Hints{
		Tag:       "BUTTON",
		ID:        "save",
		Name:      "action",
		DataAttrs: map[string]string{"data-test": "save-btn"},
		Text:      "Save changes",
	}, 100)

	require.Len(t, locs, 4)
	assert.Equal(t, Locator{Kind: KindCSS, Value: "#save", Priority: 100, generated: true}, locs[0])
	assert.Equal(t, `button[name="action"]`, locs[1].Value)
	assert.Equal(t, `[data-test="save-btn"]`, locs[2].Value)
	assert.Equal(t, KindXPath, locs[3].Kind)
	assert.Equal(t, `//button[normalize-space(.)='Save changes']`, locs[3].Value)

	for i, l := range locs {
		assert.True(t, l.Generated())
		assert.Equal(t, 100+i, l.Priority)
	}
}

func TestInteractionFallbacksEmptyHints(t *testing.T) {
	assert.Empty(t, InteractionFallbacks(Hints{}, 0))
}

func TestFieldNameFallbacks(t *testing.T) {
	locs := FieldNameFallbacks("publish_date", 50)

	values := make([]string, 0, len(locs))
	for _, l := range locs {
		assert.Equal(t, KindCSS, l.Kind)
		assert.True(t, l.Generated())
		values = append(values, l.Value)
	}

	// Kebab-case variants come first, then the original snake spelling,
	// with duplicates removed.
	assert.Contains(t, values, `[class*="publish-date"]`)
	assert.Contains(t, values, `[id*="publish-date"]`)
	assert.Contains(t, values, `.publish-date`)
	assert.Contains(t, values, `#publish-date`)
	assert.Contains(t, values, `[class*="publish_date"]`)
	assert.Equal(t, `[class*="publish-date"]`, values[0])

	seen := make(map[string]bool)
	for _, v := range values {
		assert.False(t, seen[v], "duplicate fallback %q", v)
		seen[v] = true
	}
}

func TestFieldNameFallbacksSingleWord(t *testing.T) {
	locs := FieldNameFallbacks("title", 0)
	// No underscore means no second spelling pass.
	require.Len(t, locs, 6)
}

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{`plain`, `'plain'`},
		{`it's`, `"it's"`},
		{`say "hi"`, `'say "hi"'`},
		{`both ' and "`, `concat('both ', "'", ' and "')`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, xpathLiteral(tt.in))
	}
}

func TestCSSEscape(t *testing.T) {
	assert.Equal(t, "plain-id_1", cssEscape("plain-id_1"))
	assert.Equal(t, `a\.b\:c`, cssEscape("a.b:c"))
}
