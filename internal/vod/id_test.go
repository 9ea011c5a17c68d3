package vod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEpisodeID_RoundTrip(t *testing.T) {
	id := EpisodeID("https://www.mako.co.il/mako-vod-showx", "abc123")
	assert.Equal(t, "https://www.mako.co.il/mako-vod-showx:ep:abc123", id)

	show, guid, err := ParseEpisodeID(id)
	require.NoError(t, err)
	assert.Equal(t, "https://www.mako.co.il/mako-vod-showx", show)
	assert.Equal(t, "abc123", guid)
}

func TestParseEpisodeID_GuidWithColonsInShowURL(t *testing.T) {
	// The show URL itself contains "://"; the last separator wins.
	show, guid, err := ParseEpisodeID("https://host/show:ep:VOD-1")
	require.NoError(t, err)
	assert.Equal(t, "https://host/show", show)
	assert.Equal(t, "VOD-1", guid)
}

func TestParseEpisodeID_Malformed(t *testing.T) {
	for _, id := range []string{"", "no-separator", ":ep:guid", "https://show:ep:"} {
		_, _, err := ParseEpisodeID(id)
		assert.Error(t, err, "id %q", id)
	}
}
