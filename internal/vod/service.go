// Package vod exposes the catalog, show, and stream operations over the
// cached portal data.
package vod

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/zetlaw/mako-vod/internal/extract"
	"github.com/zetlaw/mako-vod/internal/mako"
	"github.com/zetlaw/mako-vod/internal/resolver"
	"github.com/zetlaw/mako-vod/internal/store"
)

// searchThreshold is the minimum JaroWinkler similarity for a fuzzy
// catalog match. Substring matches always pass.
const searchThreshold = 0.75

// Fetcher supplies portal markup for the catalog index page.
type Fetcher interface {
	Get(ctx context.Context, url string) (string, error)
}

// Resolver turns an episode page URL into a playable stream URL.
type Resolver interface {
	Resolve(ctx context.Context, episodeURL string) (resolver.Result, error)
}

// Service wires the metadata store, extractor, and resolver into the
// three operations the addon surface exposes.
type Service struct {
	store    *store.Store
	resolver Resolver
	fetcher  Fetcher
	baseURL  string
	log      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithBaseURL overrides the portal base URL (for testing).
func WithBaseURL(u string) Option {
	return func(s *Service) {
		s.baseURL = u
	}
}

// New creates a Service.
func New(st *store.Store, res Resolver, fetcher Fetcher, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    st,
		resolver: res,
		fetcher:  fetcher,
		baseURL:  mako.BaseURL,
		log:      log.With("component", "vod"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog extracts the portal's show index, merges it with cached
// metadata, and optionally filters by a search query.
func (s *Service) Catalog(ctx context.Context, search string) ([]store.ShowRecord, error) {
	markup, err := s.fetcher.Get(ctx, s.baseURL+mako.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog index: %w", err)
	}

	items := extract.Extract(markup, s.baseURL+mako.IndexPath, extract.Shows)
	shows := s.store.SeedShows(ctx, items)

	if search = strings.TrimSpace(search); search != "" {
		shows = rankSearch(shows, search)
	}

	s.log.Debug("catalog resolved", "shows", len(shows), "search", search)
	return shows, nil
}

// Show returns a show's descriptive record and full episode list. The
// show id is its absolute source URL.
func (s *Service) Show(ctx context.Context, showID string) (store.ShowRecord, []store.EpisodeRecord, error) {
	rec, err := s.store.GetShow(ctx, showID, store.CacheTTL)
	if err != nil {
		return store.ShowRecord{}, nil, fmt.Errorf("show %s: %w", showID, err)
	}

	episodes, err := s.store.GetEpisodes(ctx, showID)
	if err != nil {
		// The descriptive record is still best available data.
		s.log.Warn("episode list unavailable", "show", showID, "error", err)
		return rec, nil, nil
	}

	return rec, episodes, nil
}

// Stream resolves the playable URL for one episode, identified by its
// show URL and guid.
func (s *Service) Stream(ctx context.Context, showID, guid string) (string, error) {
	episodes, err := s.store.GetEpisodes(ctx, showID)
	if err != nil {
		return "", fmt.Errorf("stream %s: %w", guid, err)
	}

	for _, ep := range episodes {
		if ep.GUID == guid {
			res, err := s.resolver.Resolve(ctx, ep.URL)
			if err != nil {
				return "", fmt.Errorf("resolve %s: %w", guid, err)
			}
			if !res.Ticketed {
				s.log.Info("serving unticketed stream", "guid", guid)
			}
			return res.URL, nil
		}
	}

	return "", fmt.Errorf("episode %s in %s: %w", guid, showID, store.ErrNotFound)
}

// Refresh re-fetches a show's metadata immediately, bypassing cache
// freshness entirely.
func (s *Service) Refresh(ctx context.Context, showID string) error {
	if err := s.store.RefreshShow(ctx, showID); err != nil {
		return fmt.Errorf("refresh %s: %w", showID, err)
	}
	return nil
}

type scoredShow struct {
	show  store.ShowRecord
	score float64
}

// rankSearch filters shows by similarity to the query and orders best
// match first.
func rankSearch(shows []store.ShowRecord, query string) []store.ShowRecord {
	q := strings.ToLower(query)

	var scored []scoredShow
	for _, show := range shows {
		name := strings.ToLower(show.Name)
		if name == "" {
			continue
		}

		score := float64(edlib.JaroWinklerSimilarity(name, q))
		if strings.Contains(name, q) && score < searchThreshold {
			score = searchThreshold
		}
		if score < searchThreshold {
			continue
		}
		scored = append(scored, scoredShow{show: show, score: score})
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].score > scored[b].score
	})

	out := make([]store.ShowRecord, 0, len(scored))
	for _, sc := range scored {
		out = append(out, sc.show)
	}
	return out
}
