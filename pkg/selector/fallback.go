package selector

import (
	"fmt"
	"sort"
	"strings"
)

// Hints carries the stable element properties captured at recording time.
// When every recorded locator fails, fallback selectors are generated from
// these, in order of decreasing stability: id, name, data-* attributes, then
// normalized text content.
type Hints struct {
	Tag       string
	ID        string
	Name      string
	DataAttrs map[string]string
	Text      string
}

// fieldNamePatterns are the generic shapes tried when deriving a selector
// from an extraction field name. Kept free of domain assumptions.
var fieldNamePatterns = []string{
	`[class*="%s"]`,
	`[id*="%s"]`,
	`span[class*="%s"]`,
	`div[class*="%s"]`,
	`.%s`,
	`#%s`,
}

// InteractionFallbacks generates locators for an interaction target from its
// recorded hints. The returned locators are marked generated and numbered
// from basePriority.
func InteractionFallbacks(h Hints, basePriority int) []Locator {
	var out []Locator
	add := func(kind LocatorKind, value string) {
		out = append(out, Locator{
			Kind:      kind,
			Value:     value,
			Priority:  basePriority + len(out),
			generated: true,
		})
	}

	tag := strings.ToLower(strings.TrimSpace(h.Tag))
	if h.ID != "" {
		add(KindCSS, fmt.Sprintf("#%s", cssEscape(h.ID)))
	}
	if h.Name != "" {
		add(KindCSS, fmt.Sprintf(`%s[name=%q]`, tag, h.Name))
	}
	for _, key := range sortedKeys(h.DataAttrs) {
		add(KindCSS, fmt.Sprintf(`[%s=%q]`, key, h.DataAttrs[key]))
	}
	if text := strings.TrimSpace(h.Text); text != "" {
		t := tag
		if t == "" {
			t = "*"
		}
		add(KindXPath, fmt.Sprintf(`//%s[normalize-space(.)=%s]`, t, xpathLiteral(text)))
	}
	return out
}

// FieldNameFallbacks derives CSS selectors from an extraction field name,
// trying both kebab-case and the original snake_case spelling.
func FieldNameFallbacks(fieldName string, basePriority int) []Locator {
	var out []Locator
	add := func(value string) {
		for _, l := range out {
			if l.Value == value {
				return
			}
		}
		out = append(out, Locator{
			Kind:      KindCSS,
			Value:     value,
			Priority:  basePriority + len(out),
			generated: true,
		})
	}

	kebab := strings.ReplaceAll(strings.ToLower(fieldName), "_", "-")
	for _, p := range fieldNamePatterns {
		add(fmt.Sprintf(p, kebab))
	}
	if strings.Contains(fieldName, "_") {
		snake := strings.ToLower(fieldName)
		for _, p := range fieldNamePatterns {
			add(fmt.Sprintf(p, snake))
		}
	}
	return out
}

// xpathLiteral quotes text for use inside an XPath expression. Text holding
// both quote characters is split with concat().
func xpathLiteral(s string) string {
	switch {
	case !strings.Contains(s, "'"):
		return "'" + s + "'"
	case !strings.Contains(s, `"`):
		return `"` + s + `"`
	default:
		parts := strings.Split(s, "'")
		quoted := make([]string, 0, len(parts)*2)
		for i, p := range parts {
			if i > 0 {
				quoted = append(quoted, `"'"`)
			}
			if p != "" {
				quoted = append(quoted, "'"+p+"'")
			}
		}
		return "concat(" + strings.Join(quoted, ", ") + ")"
	}
}

// cssEscape escapes the characters in an identifier that would otherwise
// terminate or alter a CSS selector.
func cssEscape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r > 127:
			sb.WriteRune(r)
		default:
			sb.WriteString("\\")
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
