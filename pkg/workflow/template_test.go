package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/replay/pkg/extraction"
)

func TestSubstitute(t *testing.T) {
	vars := map[string]any{
		"query": "lonesome dove",
		"limit": 10,
		"flag":  true,
	}

	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"no placeholders", "plain text", "plain text"},
		{"single", "search for {query}", "search for lonesome dove"},
		{"numeric value", "top {limit} results", "top 10 results"},
		{"bool value", "verbose={flag}", "verbose=true"},
		{"repeated", "{query} and {query}", "lonesome dove and lonesome dove"},
		{"braces without identifier left alone", "css {.foo} stays", "css {.foo} stays"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Substitute(tt.in, vars)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestSubstituteUnresolved(t *testing.T) {
	_, err := Substitute("hello {missing}", map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedPlaceholder)
	assert.Contains(t, err.Error(), "{missing}")
}

func TestSubstituteStep(t *testing.T) {
	vars := map[string]any{"query": "stoner", "url": "https://x.test"}

	t.Run("input step value and selectors", func(t *testing.T) {
		orig := &InputStep{
			Target: Target{CSSSelector: "#search", XPath: `//input[@value='{query}']`},
			Value:  "{query}",
		}
		sub, err := SubstituteStep(orig, vars)
		require.NoError(t, err)

		in, ok := sub.(*InputStep)
		require.True(t, ok)
		assert.Equal(t, "stoner", in.Value)
		assert.Equal(t, `//input[@value='stoner']`, in.XPath)

		// The original step is never mutated.
		assert.Equal(t, "{query}", orig.Value)
	})

	t.Run("navigation url", func(t *testing.T) {
		sub, err := SubstituteStep(&NavigationStep{URL: "{url}/search"}, vars)
		require.NoError(t, err)
		assert.Equal(t, "https://x.test/search", sub.(*NavigationStep).URL)
	})

	t.Run("extraction plan fields", func(t *testing.T) {
		orig := &ExtractDomContentStep{
			Plan: extraction.Plan{
				ContainerXPath: `//div[@data-q='{query}']`,
				Fields: []extraction.Field{
					{Name: "title", Selector: ".title"},
				},
				ExcludeXPaths: []string{`.//div[@data-q='{query}']`},
			},
		}
		sub, err := SubstituteStep(orig, vars)
		require.NoError(t, err)

		ex := sub.(*ExtractDomContentStep)
		assert.Equal(t, `//div[@data-q='stoner']`, ex.ContainerXPath)
		assert.Equal(t, `.//div[@data-q='stoner']`, ex.ExcludeXPaths[0])
		assert.Equal(t, `.//div[@data-q='{query}']`, orig.ExcludeXPaths[0])
	})

	t.Run("unresolved placeholder fails", func(t *testing.T) {
		_, err := SubstituteStep(&ClickStep{
			Target: Target{CSSSelector: "#{nope}"},
		}, vars)
		assert.ErrorIs(t, err, ErrUnresolvedPlaceholder)
	})
}
