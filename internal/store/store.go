// Package store implements the tiered metadata cache: an in-process
// copy-on-write cache root backed by a durable versioned blob namespace.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zetlaw/mako-vod/internal/extract"
)

// CacheTTL is how long a cached record stays fresh. Portal metadata
// changes rarely; staleness only delays name/artwork updates.
const CacheTTL = 30 * 24 * time.Hour

const (
	blobPrefix       = "shows-"
	keptVersions     = 3
	seasonKeyPrefix  = "season:"
	seasonFetchLimit = 4
)

// Refresh priorities handed to the queue. A cache miss outranks an
// opportunistic staleness refresh.
const (
	PriorityLow  = 1
	PriorityHigh = 10
)

// Fetcher supplies raw portal markup.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// Enqueuer schedules background refreshes.
type Enqueuer interface {
	Enqueue(url string, priority int)
}

// Store owns the cache root. All writes clone the root and swap the
// pointer, so a reader never observes a partially updated structure.
type Store struct {
	mu   sync.RWMutex
	root *CacheRoot

	blobs   BlobStore
	fetcher Fetcher
	queue   Enqueuer
	ttl     time.Duration
	kept    int
	log     *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides the cache TTL (for testing).
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithKeptVersions overrides how many blob versions prune keeps.
func WithKeptVersions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.kept = n
		}
	}
}

// New creates a metadata store. Call Load to hydrate it from the blob
// store and SetQueue before serving traffic.
func New(blobs BlobStore, fetcher Fetcher, log *slog.Logger, opts ...Option) *Store {
	s := &Store{
		root:    newCacheRoot(),
		blobs:   blobs,
		fetcher: fetcher,
		ttl:     CacheTTL,
		kept:    keptVersions,
		log:     log.With("component", "store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetQueue wires the background refresh queue. Set once during startup;
// a nil queue disables background refresh.
func (s *Store) SetQueue(q Enqueuer) {
	s.queue = q
}

// Load hydrates the cache from the most recent durable blob. A missing
// or unreadable blob is repaired to an empty root, never an error: the
// cache is re-derivable from the portal.
func (s *Store) Load(ctx context.Context) error {
	infos, err := s.blobs.List(ctx, blobPrefix)
	if err != nil {
		return fmt.Errorf("list cache blobs: %w", err)
	}
	if len(infos) == 0 {
		s.log.Info("no cache blob found, starting empty")
		return nil
	}

	data, err := s.blobs.Read(ctx, infos[0].Location)
	if err != nil {
		s.log.Warn("cache blob unreadable, starting empty", "location", infos[0].Location, "error", err)
		return nil
	}

	var root CacheRoot
	if err := json.Unmarshal(data, &root); err != nil {
		s.log.Warn("cache blob corrupt, starting empty", "location", infos[0].Location, "error", err)
		return nil
	}
	if root.Shows == nil {
		root.Shows = make(map[string]ShowRecord)
	}
	if root.Seasons == nil {
		root.Seasons = make(map[string]EpisodeEntry)
	}

	s.mu.Lock()
	s.root = &root
	s.mu.Unlock()

	s.log.Info("cache loaded", "shows", len(root.Shows), "episode_lists", len(root.Seasons), "timestamp", root.Timestamp)
	return nil
}

// Save persists the whole root as a new uniquely-named blob and prunes
// old versions. Last write wins across processes; scraped data is
// re-derivable, so conflicting writers are not reconciled.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	root := s.root
	s.mu.RUnlock()

	data, err := json.Marshal(root)
	if err != nil {
		return fmt.Errorf("marshal cache root: %w", err)
	}

	key := blobPrefix + strconv.FormatInt(time.Now().UnixNano(), 10) + ".json"
	if _, err := s.blobs.Write(ctx, key, data); err != nil {
		return fmt.Errorf("write cache blob: %w", err)
	}

	s.prune(ctx)
	return nil
}

func (s *Store) prune(ctx context.Context) {
	infos, err := s.blobs.List(ctx, blobPrefix)
	if err != nil {
		s.log.Warn("prune: list failed", "error", err)
		return
	}
	for _, info := range infos[min(s.kept, len(infos)):] {
		if err := s.blobs.Delete(ctx, info.Location); err != nil {
			s.log.Warn("prune: delete failed", "location", info.Location, "error", err)
		}
	}
}

// GetShow returns the show record for url. A fresh entry is returned as
// is; a stale one is returned immediately with a low-priority background
// refresh queued; a missing (or never-refreshed) one is fetched
// synchronously, with a high-priority queue entry covering retries.
func (s *Store) GetShow(ctx context.Context, showURL string, maxAge time.Duration) (ShowRecord, error) {
	s.mu.RLock()
	rec, ok := s.root.Shows[showURL]
	s.mu.RUnlock()

	if ok && !rec.LastUpdated.IsZero() {
		if time.Since(rec.LastUpdated) < maxAge {
			cacheHits.Inc()
			return rec, nil
		}
		cacheStale.Inc()
		s.enqueue(showURL, PriorityLow)
		return rec, nil
	}

	cacheMisses.Inc()
	s.enqueue(showURL, PriorityHigh)

	if err := s.RefreshShow(ctx, showURL); err != nil {
		if ok {
			// Best available data: the seeded card from the catalog page.
			return rec, nil
		}
		return ShowRecord{}, err
	}

	s.mu.RLock()
	rec = s.root.Shows[showURL]
	s.mu.RUnlock()
	return rec, nil
}

// RefreshShow fetches a show page and rewrites its cached record. Used
// by the synchronous miss path and by the background queue worker.
func (s *Store) RefreshShow(ctx context.Context, showURL string) error {
	markup, err := s.fetcher.Get(ctx, showURL)
	if err != nil {
		return fmt.Errorf("fetch show page: %w", err)
	}

	d := extract.ShowDetails(markup)

	s.mu.RLock()
	existing := s.root.Shows[showURL]
	s.mu.RUnlock()

	rec := existing
	rec.URL = showURL
	rec.NameSource = d.NameSource

	if d.NameSource == extract.NameError {
		// Record the failed provenance but keep the entry stale so the
		// queue retries it.
		s.putShow(ctx, rec)
		return fmt.Errorf("show %s: no usable name in page", showURL)
	}

	rec.Name = d.Name
	rec.LastUpdated = time.Now()
	if d.Description != "" {
		rec.Description = d.Description
	}
	if d.SeasonCount > 0 {
		rec.SeasonCount = d.SeasonCount
	}
	if d.Poster != "" {
		rec.Poster = extract.NormalizeImageURL(d.Poster, originOf(showURL))
		if rec.Background == "" {
			rec.Background = rec.Poster
		}
	}

	s.putShow(ctx, rec)
	s.log.Debug("show refreshed", "url", showURL, "name", rec.Name, "source", rec.NameSource)
	return nil
}

// SeedShows merges catalog-page show cards into the cache and returns
// the resulting catalog view in input order. Entries that have never
// been refreshed, or have gone stale, are queued for background refresh.
func (s *Store) SeedShows(ctx context.Context, items []extract.Item) []ShowRecord {
	var refresh []string

	s.mu.Lock()
	next := s.root.clone()
	changed := false
	out := make([]ShowRecord, 0, len(items))

	for _, item := range items {
		rec, ok := next.Shows[item.URL]
		if !ok {
			rec = ShowRecord{
				URL:        item.URL,
				Name:       item.Name,
				Poster:     item.Poster,
				Background: item.Background,
				NameSource: extract.NameHTMLFallback,
			}
			next.Shows[item.URL] = rec
			changed = true
		} else if rec.Poster == "" || rec.Poster == extract.DefaultImage {
			rec.Poster = item.Poster
			rec.Background = item.Background
			next.Shows[item.URL] = rec
			changed = true
		}

		if rec.LastUpdated.IsZero() || time.Since(rec.LastUpdated) >= s.ttl {
			refresh = append(refresh, item.URL)
		}

		out = append(out, rec)
	}

	if changed {
		next.Timestamp = time.Now()
		s.root = next
	}
	s.mu.Unlock()

	for _, url := range refresh {
		s.enqueue(url, PriorityLow)
	}

	if changed {
		if err := s.Save(ctx); err != nil {
			s.log.Warn("cache save failed", "error", err)
		}
	}

	return out
}

// GetEpisodes returns a show's full episode list, merged across seasons
// and sorted by (season, episode). Single-season shows list episodes on
// the show page itself and are cached under the show URL; multi-season
// shows are fetched per season as a bounded concurrent batch.
func (s *Store) GetEpisodes(ctx context.Context, showURL string) ([]EpisodeRecord, error) {
	markup, err := s.fetcher.Get(ctx, showURL)
	if err != nil {
		return nil, fmt.Errorf("fetch show page: %w", err)
	}

	seasons := extract.Extract(markup, showURL, extract.Seasons)
	if len(seasons) == 0 {
		if cached, ok := s.freshEpisodes(showURL); ok {
			return cached, nil
		}
		eps := numberEpisodes(extract.Extract(markup, showURL, extract.Episodes), 1)
		s.putEpisodes(ctx, map[string][]EpisodeRecord{showURL: eps})
		return eps, nil
	}

	results := make([][]EpisodeRecord, len(seasons))
	writes := make(map[string][]EpisodeRecord)
	var writesMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seasonFetchLimit)

	for i, season := range seasons {
		g.Go(func() error {
			num := seasonNumber(season.Name, i)
			key := seasonKeyPrefix + season.URL

			if cached, ok := s.freshEpisodes(key); ok {
				results[i] = cached
				return nil
			}

			seasonMarkup, err := s.fetcher.Get(gctx, season.URL)
			if err != nil {
				return fmt.Errorf("fetch season %q: %w", season.Name, err)
			}

			eps := numberEpisodes(extract.Extract(seasonMarkup, season.URL, extract.Episodes), num)
			results[i] = eps

			writesMu.Lock()
			writes[key] = eps
			writesMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(writes) > 0 {
		s.putEpisodes(ctx, writes)
	}

	var merged []EpisodeRecord
	for _, eps := range results {
		merged = append(merged, eps...)
	}
	sort.Slice(merged, func(a, b int) bool {
		if merged[a].Season != merged[b].Season {
			return merged[a].Season < merged[b].Season
		}
		return merged[a].Episode < merged[b].Episode
	})
	return merged, nil
}

// freshEpisodes returns a cached episode list if it is still within TTL.
func (s *Store) freshEpisodes(key string) ([]EpisodeRecord, bool) {
	s.mu.RLock()
	entry, ok := s.root.Seasons[key]
	s.mu.RUnlock()

	if !ok || time.Since(entry.LastUpdated) >= s.ttl {
		return nil, false
	}
	return entry.Episodes, true
}

// putShow and putEpisodes clone, mutate, and swap under the write lock.
// A clone taken under a read lock races with concurrent writers: both
// would clone the same base and the second swap would drop the first
// writer's record.
func (s *Store) putShow(ctx context.Context, rec ShowRecord) {
	s.mu.Lock()
	next := s.root.clone()
	next.Shows[rec.URL] = rec
	next.Timestamp = time.Now()
	s.root = next
	s.mu.Unlock()

	if err := s.Save(ctx); err != nil {
		s.log.Warn("cache save failed", "error", err)
	}
}

func (s *Store) putEpisodes(ctx context.Context, entries map[string][]EpisodeRecord) {
	now := time.Now()

	s.mu.Lock()
	next := s.root.clone()
	for key, eps := range entries {
		next.Seasons[key] = EpisodeEntry{Episodes: eps, LastUpdated: now}
	}
	next.Timestamp = now
	s.root = next
	s.mu.Unlock()

	if err := s.Save(ctx); err != nil {
		s.log.Warn("cache save failed", "error", err)
	}
}

func (s *Store) enqueue(url string, priority int) {
	if s.queue != nil {
		s.queue.Enqueue(url, priority)
	}
}

var firstIntPattern = regexp.MustCompile(`\d+`)

// seasonNumber derives a season's number from the first integer in its
// label, or its 1-based position when the label carries none.
func seasonNumber(label string, position int) int {
	if m := firstIntPattern.FindString(label); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			return n
		}
	}
	return position + 1
}

// numberEpisodes assigns season/episode numbers by position.
func numberEpisodes(items []extract.Item, season int) []EpisodeRecord {
	eps := make([]EpisodeRecord, 0, len(items))
	for i, item := range items {
		eps = append(eps, EpisodeRecord{
			GUID:    item.GUID,
			Name:    item.Name,
			URL:     item.URL,
			Season:  season,
			Episode: i + 1,
		})
	}
	return eps
}

func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
