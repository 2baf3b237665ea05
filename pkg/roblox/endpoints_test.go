package roblox

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupMembersURL(t *testing.T) {
	tests := []struct {
		name     string
		baseURL  string
		cursor   string
		expected string
	}{
		{
			name:     "first page",
			baseURL:  BaseURL,
			expected: "https://groups.roblox.com/v1/groups/12345/users?limit=100&sortOrder=Asc",
		},
		{
			name:     "with cursor",
			baseURL:  BaseURL,
			cursor:   "abc123",
			expected: "https://groups.roblox.com/v1/groups/12345/users?cursor=abc123&limit=100&sortOrder=Asc",
		},
		{
			name:     "trailing slash on base",
			baseURL:  "http://127.0.0.1:8080/",
			expected: "http://127.0.0.1:8080/v1/groups/12345/users?limit=100&sortOrder=Asc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GroupMembersURL(tt.baseURL, "12345", tt.cursor))
		})
	}
}

func TestGroupMembersURLEncodesCursor(t *testing.T) {
	raw := GroupMembersURL(BaseURL, "1", "a+b/c==")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "a+b/c==", parsed.Query().Get("cursor"))
}

func TestIsValidGroupID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{"12345", true},
		{"0", true},
		{"", false},
		{"12a45", false},
		{"-1", false},
		{" 123", false},
		{"١٢٣", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidGroupID(tt.id))
		})
	}
}

func TestGroupURL(t *testing.T) {
	assert.Equal(t, "https://www.roblox.com/groups/7", GroupURL("7"))
	assert.Empty(t, GroupURL(""))
}
