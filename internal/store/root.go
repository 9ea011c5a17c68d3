package store

import (
	"time"

	"github.com/zetlaw/mako-vod/internal/extract"
)

// ShowRecord is the cached descriptive record for one show, keyed by its
// source URL.
type ShowRecord struct {
	URL         string             `json:"url"`
	Name        string             `json:"name"`
	Poster      string             `json:"poster"`
	Background  string             `json:"background"`
	Description string             `json:"description"`
	SeasonCount int                `json:"season_count"`
	NameSource  extract.NameSource `json:"name_source"`
	LastUpdated time.Time          `json:"last_updated"`
}

// EpisodeRecord is one playable episode. GUID is unique within a show.
type EpisodeRecord struct {
	GUID    string `json:"guid"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

// EpisodeEntry wraps a cached episode list with its refresh time.
type EpisodeEntry struct {
	Episodes    []EpisodeRecord `json:"episodes"`
	LastUpdated time.Time       `json:"last_updated"`
}

// CacheRoot is the whole cache: shows by URL and episode lists by show or
// season key. It is replaced wholesale on every write; readers hold a
// snapshot and entries are never mutated in place.
type CacheRoot struct {
	Timestamp time.Time               `json:"timestamp"`
	Shows     map[string]ShowRecord   `json:"shows"`
	Seasons   map[string]EpisodeEntry `json:"seasons"`
}

func newCacheRoot() *CacheRoot {
	return &CacheRoot{
		Timestamp: time.Now(),
		Shows:     make(map[string]ShowRecord),
		Seasons:   make(map[string]EpisodeEntry),
	}
}

// clone copies the root's maps. Entry values are treated as immutable,
// so the episode slices themselves are shared.
func (r *CacheRoot) clone() *CacheRoot {
	c := &CacheRoot{
		Timestamp: r.Timestamp,
		Shows:     make(map[string]ShowRecord, len(r.Shows)),
		Seasons:   make(map[string]EpisodeEntry, len(r.Seasons)),
	}
	for k, v := range r.Shows {
		c.Shows[k] = v
	}
	for k, v := range r.Seasons {
		c.Seasons[k] = v
	}
	return c
}
