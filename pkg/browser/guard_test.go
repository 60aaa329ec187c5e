package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigationGuardAllowList(t *testing.T) {
	guard, err := NewNavigationGuard([]string{"example.com", "*.example.com"}, nil)
	require.NoError(t, err)

	assert.NoError(t, guard.Allow("https://example.com/search"))
	assert.NoError(t, guard.Allow("https://shop.example.com/"))
	assert.Error(t, guard.Allow("https://other.com/"))

	// The separator keeps the wildcard from swallowing lookalike hosts.
	assert.Error(t, guard.Allow("https://evilexample.com/"))
	assert.Error(t, guard.Allow("https://deep.shop.example.com/"))
}

func TestNavigationGuardDenyWins(t *testing.T) {
	guard, err := NewNavigationGuard([]string{"*.example.com"}, []string{"admin.example.com"})
	require.NoError(t, err)

	assert.NoError(t, guard.Allow("https://shop.example.com/"))
	assert.Error(t, guard.Allow("https://admin.example.com/"))
}

func TestNavigationGuardEmptyAllowPermits(t *testing.T) {
	guard, err := NewNavigationGuard(nil, []string{"blocked.com"})
	require.NoError(t, err)

	assert.NoError(t, guard.Allow("https://anything.org/"))
	assert.Error(t, guard.Allow("https://blocked.com/path"))
}

func TestNavigationGuardNilPermitsEverything(t *testing.T) {
	var guard *NavigationGuard
	assert.NoError(t, guard.Allow("https://example.com/"))
}

func TestNavigationGuardInvalidPattern(t *testing.T) {
	_, err := NewNavigationGuard([]string{"[unterminated"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid host pattern")
}
