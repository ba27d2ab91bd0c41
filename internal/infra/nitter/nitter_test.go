package nitter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirrorURLs_NonTwitter(t *testing.T) {
	tests := []string{
		"https://example.com",
		"https://x.com/user",
		"https://twitter.com/home",
		"https://x.com/user/likes/123",
		"ftp://x.com/user/status/123",
		"not a url at all %%%",
	}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			got := MirrorURLs(raw)
			assert.NotNil(t, got)
			assert.Empty(t, got)
			assert.False(t, IsStatusURL(raw))
		})
	}
}

func TestMirrorURLs_StableRotation(t *testing.T) {
	raw := "https://x.com/user/status/123"

	first := MirrorURLs(raw)
	second := MirrorURLs(raw)

	assert.Equal(t, first, second)
	require.Greater(t, len(first), 1)

	hosts := map[string]struct{}{}
	for _, item := range first {
		u, err := url.Parse(item)
		require.NoError(t, err)
		hosts[u.Host] = struct{}{}
		assert.Equal(t, "/user/status/123", u.Path)
		assert.Equal(t, "https", u.Scheme)
	}
	assert.Len(t, hosts, len(first))
	assert.Len(t, first, len(DefaultHosts))
}

func TestMirrorURLs_PreservesQuery(t *testing.T) {
	got := MirrorURLs("https://twitter.com/someone/status/42?s=20")
	require.NotEmpty(t, got)

	for _, item := range got {
		u, err := url.Parse(item)
		require.NoError(t, err)
		assert.Equal(t, "/someone/status/42", u.Path)
		assert.Equal(t, "s=20", u.RawQuery)
	}
}

func TestMirrorURLs_RotationIsARotation(t *testing.T) {
	r := NewRotation([]string{"a.example", "b.example", "c.example"})
	got := r.MirrorURLs("https://x.com/user/status/7")
	require.Len(t, got, 3)

	hosts := make([]string, 0, len(got))
	for _, item := range got {
		u, err := url.Parse(item)
		require.NoError(t, err)
		hosts = append(hosts, u.Host)
	}

	order := []string{"a.example", "b.example", "c.example"}
	start := -1
	for i, h := range order {
		if h == hosts[0] {
			start = i
		}
	}
	require.NotEqual(t, -1, start)
	for i := range hosts {
		assert.Equal(t, order[(start+i)%3], hosts[i])
	}
}

func TestNewRotation(t *testing.T) {
	r := NewRotation([]string{" Nitter.Example ", "", "nitter.example", "other.example"})
	assert.Equal(t, []string{"nitter.example", "other.example"}, r.Hosts())

	assert.Equal(t, DefaultHosts, NewRotation(nil).Hosts())
	assert.Equal(t, DefaultHosts, NewRotation([]string{"  "}).Hosts())
}

func TestIsStatusURL(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"https://x.com/steipete/status/1", true},
		{"https://twitter.com/steipete/status/1", true},
		{"https://mobile.twitter.com/a_b/status/99/photo/1", true},
		{"http://www.x.com/user/statuses/5", true},
		{"https://x.com/a", false},
		{"https://example.com/user/status/1", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStatusURL(tt.raw))
		})
	}
}
