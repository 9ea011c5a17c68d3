package vod

import (
	"fmt"
	"strings"
)

// Episode ids compose the show URL and guid so the stream endpoint can
// find its way back without extra state.
const episodeIDSep = ":ep:"

// EpisodeID builds the composite id for one episode.
func EpisodeID(showURL, guid string) string {
	return showURL + episodeIDSep + guid
}

// ParseEpisodeID splits a composite episode id back into show URL and
// guid.
func ParseEpisodeID(id string) (showURL, guid string, err error) {
	idx := strings.LastIndex(id, episodeIDSep)
	if idx < 0 || idx == 0 || idx+len(episodeIDSep) >= len(id) {
		return "", "", fmt.Errorf("malformed episode id %q", id)
	}
	return id[:idx], id[idx+len(episodeIDSep):], nil
}
