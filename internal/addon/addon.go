// Package addon implements the catalog/meta/stream HTTP surface a
// catalog-style media client consumes.
package addon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zetlaw/mako-vod/internal/store"
	"github.com/zetlaw/mako-vod/internal/vod"
)

// Service is the core surface the addon exposes over HTTP.
type Service interface {
	Catalog(ctx context.Context, search string) ([]store.ShowRecord, error)
	Show(ctx context.Context, showID string) (store.ShowRecord, []store.EpisodeRecord, error)
	Stream(ctx context.Context, showID, guid string) (string, error)
	Refresh(ctx context.Context, showID string) error
}

// Server serves the addon endpoints.
type Server struct {
	svc Service
	log *slog.Logger
}

// New creates an addon server.
func New(svc Service, log *slog.Logger) *Server {
	return &Server{svc: svc, log: log.With("component", "addon")}
}

// RegisterRoutes registers the addon routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /manifest.json", s.getManifest)
	mux.HandleFunc("GET /catalog.json", s.getCatalog)
	mux.HandleFunc("GET /meta/{id}", s.getMeta)
	mux.HandleFunc("GET /stream/{id}", s.getStream)
	mux.HandleFunc("POST /refresh/{id}", s.postRefresh)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("GET /metrics", promhttp.Handler())
}

type metaResponse struct {
	Meta     showMeta      `json:"meta"`
	Episodes []episodeMeta `json:"episodes"`
}

type showMeta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Poster      string `json:"poster,omitempty"`
	Background  string `json:"background,omitempty"`
	Description string `json:"description,omitempty"`
	Seasons     int    `json:"seasons,omitempty"`
}

type episodeMeta struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}

type streamResponse struct {
	URL string `json:"url"`
}

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	shows, err := s.svc.Catalog(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.log.Error("catalog failed", "error", err)
		writeError(w, http.StatusBadGateway, "catalog_unavailable", "could not resolve catalog")
		return
	}

	metas := make([]showMeta, 0, len(shows))
	for _, show := range shows {
		metas = append(metas, toShowMeta(show))
	}
	writeJSON(w, http.StatusOK, map[string][]showMeta{"metas": metas})
}

func (s *Server) getMeta(w http.ResponseWriter, r *http.Request) {
	showID, err := url.PathUnescape(r.PathValue("id"))
	if err != nil || showID == "" {
		writeError(w, http.StatusBadRequest, "bad_id", "malformed show id")
		return
	}

	rec, episodes, err := s.svc.Show(r.Context(), showID)
	if err != nil {
		s.log.Error("meta failed", "show", showID, "error", err)
		writeError(w, http.StatusBadGateway, "meta_unavailable", "could not resolve show")
		return
	}

	resp := metaResponse{Meta: toShowMeta(rec), Episodes: make([]episodeMeta, 0, len(episodes))}
	for _, ep := range episodes {
		resp.Episodes = append(resp.Episodes, episodeMeta{
			ID:      vod.EpisodeID(showID, ep.GUID),
			Name:    ep.Name,
			Season:  ep.Season,
			Episode: ep.Episode,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getStream(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_id", "malformed episode id")
		return
	}

	showID, guid, err := vod.ParseEpisodeID(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_id", err.Error())
		return
	}

	streamURL, err := s.svc.Stream(r.Context(), showID, guid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "unknown episode")
			return
		}
		s.log.Error("stream failed", "show", showID, "guid", guid, "error", err)
		writeError(w, http.StatusBadGateway, "no_stream", "no stream available")
		return
	}

	writeJSON(w, http.StatusOK, streamResponse{URL: streamURL})
}

func (s *Server) postRefresh(w http.ResponseWriter, r *http.Request) {
	showID, err := url.PathUnescape(r.PathValue("id"))
	if err != nil || showID == "" {
		writeError(w, http.StatusBadRequest, "bad_id", "malformed show id")
		return
	}

	if err := s.svc.Refresh(r.Context(), showID); err != nil {
		s.log.Error("refresh failed", "show", showID, "error", err)
		writeError(w, http.StatusBadGateway, "refresh_failed", "could not refresh show")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func toShowMeta(rec store.ShowRecord) showMeta {
	return showMeta{
		ID:          rec.URL,
		Name:        rec.Name,
		Poster:      rec.Poster,
		Background:  rec.Background,
		Description: rec.Description,
		Seasons:     rec.SeasonCount,
	}
}

// Error response

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

// LogRequests wraps a handler with request logging.
func LogRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
