package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLocators(t *testing.T) {
	tests := []struct {
		name    string
		locs    []Locator
		wantErr string
	}{
		{
			name:    "empty list",
			locs:    nil,
			wantErr: "at least one locator",
		},
		{
			name: "valid pair",
			locs: []Locator{
				{Kind: KindCSS, Value: "#a", Priority: 1},
				{Kind: KindXPath, Value: "//a", Priority: 2},
			},
		},
		{
			name: "duplicate priority",
			locs: []Locator{
				{Kind: KindCSS, Value: "#a", Priority: 1},
				{Kind: KindXPath, Value: "//a", Priority: 1},
			},
			wantErr: "duplicate locator priority",
		},
		{
			name:    "unknown kind",
			locs:    []Locator{{Kind: "regex", Value: "x", Priority: 1}},
			wantErr: "unknown locator kind",
		},
		{
			name:    "empty value",
			locs:    []Locator{{Kind: KindCSS, Value: "", Priority: 1}},
			wantErr: "empty css locator",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLocators(tt.locs)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOrderLocators(t *testing.T) {
	in := []Locator{
		{Kind: KindCSS, Value: "c", Priority: 30},
		{Kind: KindCSS, Value: "a", Priority: 10},
		{Kind: KindCSS, Value: "b", Priority: 20},
	}
	out := orderLocators(in)

	assert.Equal(t, []string{"a", "b", "c"}, []string{out[0].Value, out[1].Value, out[2].Value})
	// Input order is preserved.
	assert.Equal(t, "c", in[0].Value)
}
