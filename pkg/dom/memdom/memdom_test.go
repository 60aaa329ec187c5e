package memdom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDoc = `<html><body>
<div id="wrap" class="outer">
  <a id="link" class="nav primary" href="/about">About us</a>
  <input id="q" name="q" type="text">
  <button id="off" disabled>Off</button>
  <span id="ghost" style="display: none">ghost</span>
  <div hidden><span id="nested-ghost">nested</span></div>
  <select id="pick">
    <option>Red</option>
    <option>Blue</option>
  </select>
</div>
</body></html>`

func loadTestDoc(t *testing.T) *Page {
	t.Helper()
	page, err := Load(testDoc, "https://example.com/home")
	require.NoError(t, err)
	return page
}

func TestQueryAndAttributes(t *testing.T) {
	page := loadTestDoc(t)

	el, err := page.Query("a.nav")
	require.NoError(t, err)
	require.NotNil(t, el)

	tag, err := el.Tag()
	require.NoError(t, err)
	assert.Equal(t, "a", tag)

	text, err := el.Text()
	require.NoError(t, err)
	assert.Equal(t, "About us", text)

	href, ok, err := el.Attribute("href")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/about", href)

	_, ok, err = el.Attribute("target")
	require.NoError(t, err)
	assert.False(t, ok)

	missing, err := page.Query("#nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQueryAllAndXPathAll(t *testing.T) {
	page := loadTestDoc(t)

	opts, err := page.QueryAll("option")
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	same, err := page.XPathAll("//select/option")
	require.NoError(t, err)
	assert.Len(t, same, 2)

	_, err = page.QueryAll("!!!")
	assert.Error(t, err)

	_, err = page.XPathAll("//a[")
	assert.Error(t, err)
}

func TestXPathFirst(t *testing.T) {
	page := loadTestDoc(t)

	val, found, err := page.XPathFirst("//a[@id='link']/text()")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "About us", val)

	val, found, err = page.XPathFirst("//a[@id='link']/@href")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "/about", val)

	_, found, err = page.XPathFirst("//a[@id='link']/@target")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = page.XPathFirst("//missing/text()")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestVisibilityAndState(t *testing.T) {
	page := loadTestDoc(t)

	link, err := page.Query("#link")
	require.NoError(t, err)
	visible, err := link.Visible()
	require.NoError(t, err)
	assert.True(t, visible)
	w, h, err := link.BoundingBox()
	require.NoError(t, err)
	assert.Positive(t, w)
	assert.Positive(t, h)

	ghost, err := page.Query("#ghost")
	require.NoError(t, err)
	visible, err = ghost.Visible()
	require.NoError(t, err)
	assert.False(t, visible)
	w, h, err = ghost.BoundingBox()
	require.NoError(t, err)
	assert.Zero(t, w)
	assert.Zero(t, h)

	// Hidden ancestors hide descendants.
	nested, err := page.Query("#nested-ghost")
	require.NoError(t, err)
	visible, err = nested.Visible()
	require.NoError(t, err)
	assert.False(t, visible)

	off, err := page.Query("#off")
	require.NoError(t, err)
	enabled, err := off.Enabled()
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestContains(t *testing.T) {
	page := loadTestDoc(t)

	wrap, err := page.Query("#wrap")
	require.NoError(t, err)
	link, err := page.Query("#link")
	require.NoError(t, err)

	inside, err := wrap.Contains(link)
	require.NoError(t, err)
	assert.True(t, inside)

	outside, err := link.Contains(wrap)
	require.NoError(t, err)
	assert.False(t, outside)
}

func TestActionsRecordEvents(t *testing.T) {
	page := loadTestDoc(t)

	link, err := page.Query("#link")
	require.NoError(t, err)
	require.NoError(t, link.Click())

	input, err := page.Query("#q")
	require.NoError(t, err)
	require.NoError(t, input.Fill("hello"))
	require.NoError(t, input.Press("Enter"))

	sel, err := page.Query("#pick")
	require.NoError(t, err)
	require.NoError(t, sel.SelectLabel("Blue"))
	assert.Error(t, sel.SelectLabel("Green"))

	require.NoError(t, page.Scroll(context.Background(), 0, 300))

	events := page.Events()
	require.Len(t, events, 5)
	assert.Equal(t, Event{Action: "click", Target: "a#link.nav.primary"}, events[0])
	assert.Equal(t, Event{Action: "fill", Target: "input#q", Value: "hello"}, events[1])
	assert.Equal(t, Event{Action: "press", Target: "input#q", Value: "Enter"}, events[2])
	assert.Equal(t, Event{Action: "select", Target: "select#pick", Value: "Blue"}, events[3])
	assert.Equal(t, Event{Action: "scroll", Value: "0,300"}, events[4])
}

func TestFillUpdatesValueAttribute(t *testing.T) {
	page := loadTestDoc(t)

	input, err := page.Query("#q")
	require.NoError(t, err)
	require.NoError(t, input.Fill("first"))
	require.NoError(t, input.Fill("second"))

	val, ok, err := input.Attribute("value")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", val)
}

func TestNavigate(t *testing.T) {
	page := loadTestDoc(t)
	page.Register("https://example.com/next", `<html><body><h1 id="dest">Arrived</h1></body></html>`)

	err := page.Navigate(context.Background(), "https://example.com/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
	assert.Equal(t, "https://example.com/home", page.URL())

	require.NoError(t, page.Navigate(context.Background(), "https://example.com/next"))
	assert.Equal(t, "https://example.com/next", page.URL())

	h1, err := page.Query("#dest")
	require.NoError(t, err)
	require.NotNil(t, h1)
	gone, err := page.Query("#link")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestContentRoundTrips(t *testing.T) {
	page := loadTestDoc(t)
	content, err := page.Content()
	require.NoError(t, err)
	assert.Contains(t, content, `id="link"`)
	assert.Contains(t, content, "About us")
}
