package htmlutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noisyDoc = `<html>
<head>
  <title> Catalog | Books </title>
  <meta name="description" content="A catalog of books">
  <style>.hidden { display: none }</style>
  <script>window.tracker = true;</script>
</head>
<body>
  <!-- build marker -->
  <div id="main" class="page" onclick="spy()">
    <a href="/b/1" target="_blank" onmouseover="spy()">Stoner</a>
    <img src="/cover.jpg" alt="cover" width="300">
    <input name="q" type="text" placeholder="Search" tabindex="3">
    <span data-price="12.99">$12.99</span>
  </div>
  <noscript>enable js</noscript>
  <svg><circle r="5"/></svg>
</body>
</html>`

func TestCleanStripsNoise(t *testing.T) {
	cleaned, err := Clean(noisyDoc, 10000)
	require.NoError(t, err)

	assert.NotContains(t, cleaned.HTML, "script")
	assert.NotContains(t, cleaned.HTML, "tracker")
	assert.NotContains(t, cleaned.HTML, "style")
	assert.NotContains(t, cleaned.HTML, "enable js")
	assert.NotContains(t, cleaned.HTML, "circle")
	assert.NotContains(t, cleaned.HTML, "build marker")

	assert.False(t, cleaned.Truncated)
	assert.Equal(t, "Catalog | Books", cleaned.Title)
	assert.Equal(t, "A catalog of books", cleaned.Description)
}

func TestCleanKeepsTargetingAttributes(t *testing.T) {
	cleaned, err := Clean(noisyDoc, 10000)
	require.NoError(t, err)

	assert.Contains(t, cleaned.HTML, `id="main"`)
	assert.Contains(t, cleaned.HTML, `class="page"`)
	assert.Contains(t, cleaned.HTML, `href="/b/1"`)
	assert.Contains(t, cleaned.HTML, `src="/cover.jpg"`)
	assert.Contains(t, cleaned.HTML, `alt="cover"`)
	assert.Contains(t, cleaned.HTML, `name="q"`)
	assert.Contains(t, cleaned.HTML, `placeholder="Search"`)
	assert.Contains(t, cleaned.HTML, `data-price="12.99"`)

	// Event handlers and layout attributes are dropped.
	assert.NotContains(t, cleaned.HTML, "onclick")
	assert.NotContains(t, cleaned.HTML, "onmouseover")
	assert.NotContains(t, cleaned.HTML, `width=`)
	assert.NotContains(t, cleaned.HTML, "tabindex")
}

func TestCleanKeepsContent(t *testing.T) {
	cleaned, err := Clean(noisyDoc, 10000)
	require.NoError(t, err)

	assert.Contains(t, cleaned.HTML, "Stoner")
	assert.Contains(t, cleaned.HTML, "$12.99")
}

func TestCleanTruncates(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 200; i++ {
		sb.WriteString("<p>paragraph of filler text that repeats</p>")
	}
	sb.WriteString("</body></html>")

	cleaned, err := Clean(sb.String(), 500)
	require.NoError(t, err)
	assert.True(t, cleaned.Truncated)
	assert.Less(t, len(cleaned.HTML), 2000)
	assert.Contains(t, cleaned.HTML, "...")
}

func TestCleanInvalidInputStillParses(t *testing.T) {
	// The HTML5 parser recovers from malformed markup rather than failing.
	cleaned, err := Clean("<div><span>unclosed", 1000)
	require.NoError(t, err)
	assert.Contains(t, cleaned.HTML, "unclosed")
}

func TestCleanNoMetadata(t *testing.T) {
	cleaned, err := Clean("<html><body><p>bare</p></body></html>", 1000)
	require.NoError(t, err)
	assert.Empty(t, cleaned.Title)
	assert.Empty(t, cleaned.Description)
}
