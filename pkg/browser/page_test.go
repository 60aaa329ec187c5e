package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitAttrTail(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		wantBase string
		wantAttr string
		wantOK   bool
	}{
		{
			name:     "href tail",
			expr:     `//div[@id='info']/a/@href`,
			wantBase: `//div[@id='info']/a`,
			wantAttr: "href",
			wantOK:   true,
		},
		{
			name:     "data attribute tail",
			expr:     `.//li/@data-price`,
			wantBase: `.//li`,
			wantAttr: "data-price",
			wantOK:   true,
		},
		{
			name:   "element expression passes through",
			expr:   `//div[@id='info']/a`,
			wantOK: false,
		},
		{
			name:   "text expression passes through",
			expr:   `//div/a/text()`,
			wantOK: false,
		},
		{
			name:   "attribute inside a predicate is not a tail",
			expr:   `//a[@href='/x']`,
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, attr, ok := splitAttrTail(tt.expr)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantBase, base)
				assert.Equal(t, tt.wantAttr, attr)
			}
		})
	}
}
