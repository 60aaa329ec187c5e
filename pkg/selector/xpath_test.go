package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/replay/pkg/dom/memdom"
)

func TestNormalizeXPath(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		expected string
	}{
		{
			name:     "id shorthand",
			expr:     `id('info')`,
			expected: `//*[@id='info']`,
		},
		{
			name:     "dotted id shorthand",
			expr:     `.id('info')`,
			expected: `//*[@id='info']`,
		},
		{
			name:     "id shorthand with double quotes",
			expr:     `id("info")`,
			expected: `//*[@id='info']`,
		},
		{
			name:     "id shorthand with path suffix",
			expr:     `id('info')/div[2]/a`,
			expected: `//*[@id='info']/div[2]/a`,
		},
		{
			name:     "plain xpath passes through",
			expr:     `//div[@class='row']`,
			expected: `//div[@class='row']`,
		},
		{
			name:     "surrounding whitespace trimmed",
			expr:     `  //div  `,
			expected: `//div`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeXPath(tt.expr))
		})
	}
}

func TestClassifyXPath(t *testing.T) {
	tests := []struct {
		name string
		expr string
		mode XPathMode
	}{
		{"element path", `//div[@id='x']`, ModeElement},
		{"text selection", `//span/a/text()`, ModeText},
		{"following sibling text", `//b/following-sibling::text()`, ModeText},
		{"attribute selection", `//a/@href`, ModeAttribute},
		{"data attribute selection", `//div/@data-item-id`, ModeAttribute},
		{"predicate with at sign is not attribute mode", `//div[@class='x']`, ModeElement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, _, err := ClassifyXPath(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.mode, mode)
		})
	}
}

func TestClassifyXPathInvalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"empty", ``},
		{"unbalanced bracket", `//div[@id='x'`},
		{"unbalanced paren", `//span/text(`},
		{"unterminated quote", `//div[@id='x]`},
		{"stray closing bracket", `//div]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ClassifyXPath(tt.expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidExpression)
		})
	}
}

func TestElementPart(t *testing.T) {
	tests := []struct {
		expr     string
		expected string
	}{
		{`//span/a/text()`, `//span/a`},
		{`//b/following-sibling::text()`, `//b`},
		{`//a/@href`, `//a`},
		{`//div[@id='x']`, `//div[@id='x']`},
		{`id('info')/a/text()`, `//*[@id='info']/a`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ElementPart(tt.expr))
	}
}

func TestScopeRelative(t *testing.T) {
	assert.Equal(t, `.//div`, ScopeRelative(`//div`))
	assert.Equal(t, `.//div`, ScopeRelative(`.//div`))
	assert.Equal(t, `div/a`, ScopeRelative(`div/a`))
}

const xpathDoc = `<html><body>
<div id="info">
  <span><span> 作者</span><a href="/author/123">刘震云</a></span>
  <a class="link" href="/next" data-kind="nav">next</a>
</div>
</body></html>`

func TestEvaluateXPathModes(t *testing.T) {
	page, err := memdom.Load(xpathDoc, "https://example.com/book")
	require.NoError(t, err)

	t.Run("element mode returns matches in document order", func(t *testing.T) {
		v, err := EvaluateXPath(page, `//div[@id='info']`)
		require.NoError(t, err)
		assert.Equal(t, ModeElement, v.Mode)
		require.Len(t, v.Elements, 1)
	})

	t.Run("text mode returns first match trimmed", func(t *testing.T) {
		v, err := EvaluateXPath(page, `//span[span[text()=' 作者']]/a/text()`)
		require.NoError(t, err)
		assert.Equal(t, ModeText, v.Mode)
		assert.True(t, v.Found)
		assert.Equal(t, "刘震云", v.Value)
	})

	t.Run("attribute mode returns attribute value", func(t *testing.T) {
		v, err := EvaluateXPath(page, `//a[@class='link']/@href`)
		require.NoError(t, err)
		assert.Equal(t, ModeAttribute, v.Mode)
		assert.True(t, v.Found)
		assert.Equal(t, "/next", v.Value)
	})

	t.Run("no match is not an error", func(t *testing.T) {
		v, err := EvaluateXPath(page, `//section`)
		require.NoError(t, err)
		assert.False(t, v.Found)
		assert.Empty(t, v.Elements)
	})
}

func TestIDShorthandEquivalence(t *testing.T) {
	page, err := memdom.Load(xpathDoc, "https://example.com/book")
	require.NoError(t, err)

	shorthand, err := EvaluateXPath(page, `id("info")`)
	require.NoError(t, err)
	qualified, err := EvaluateXPath(page, `//*[@id='info']`)
	require.NoError(t, err)

	require.Len(t, shorthand.Elements, len(qualified.Elements))
	for i := range shorthand.Elements {
		sText, err := shorthand.Elements[i].Text()
		require.NoError(t, err)
		qText, err := qualified.Elements[i].Text()
		require.NoError(t, err)
		assert.Equal(t, qText, sText)
	}
}
