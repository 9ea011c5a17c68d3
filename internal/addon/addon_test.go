package addon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zetlaw/mako-vod/internal/store"
	"github.com/zetlaw/mako-vod/internal/vod"
)

type fakeService struct {
	catalog func(ctx context.Context, search string) ([]store.ShowRecord, error)
	show    func(ctx context.Context, showID string) (store.ShowRecord, []store.EpisodeRecord, error)
	stream  func(ctx context.Context, showID, guid string) (string, error)
	refresh func(ctx context.Context, showID string) error
}

func (f *fakeService) Catalog(ctx context.Context, search string) ([]store.ShowRecord, error) {
	return f.catalog(ctx, search)
}

func (f *fakeService) Show(ctx context.Context, showID string) (store.ShowRecord, []store.EpisodeRecord, error) {
	return f.show(ctx, showID)
}

func (f *fakeService) Stream(ctx context.Context, showID, guid string) (string, error) {
	return f.stream(ctx, showID, guid)
}

func (f *fakeService) Refresh(ctx context.Context, showID string) error {
	return f.refresh(ctx, showID)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMux(svc Service) *http.ServeMux {
	srv := New(svc, testLogger())
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return mux
}

func TestGetManifest(t *testing.T) {
	mux := newTestMux(&fakeService{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manifest.json", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var m Manifest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, "il.co.mako.vod", m.ID)
	assert.Contains(t, m.Resources, "stream")
	require.Len(t, m.Catalogs, 1)
	assert.Equal(t, "series", m.Catalogs[0].Type)
}

func TestGetCatalog(t *testing.T) {
	var gotSearch string
	svc := &fakeService{
		catalog: func(_ context.Context, search string) ([]store.ShowRecord, error) {
			gotSearch = search
			return []store.ShowRecord{
				{URL: "https://www.mako.co.il/mako-vod-alpha", Name: "Alpha", Poster: "https://img/alpha.jpg"},
			}, nil
		},
	}
	mux := newTestMux(svc)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalog.json?search=alp", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alp", gotSearch)

	var resp struct {
		Metas []showMeta `json:"metas"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Metas, 1)
	assert.Equal(t, "https://www.mako.co.il/mako-vod-alpha", resp.Metas[0].ID)
	assert.Equal(t, "Alpha", resp.Metas[0].Name)
}

func TestGetCatalog_UpstreamFailure(t *testing.T) {
	svc := &fakeService{
		catalog: func(context.Context, string) ([]store.ShowRecord, error) {
			return nil, errors.New("portal down")
		},
	}
	mux := newTestMux(svc)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalog.json", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "catalog_unavailable", resp.Code)
}

func TestGetMeta(t *testing.T) {
	showURL := "https://www.mako.co.il/mako-vod-alpha"
	svc := &fakeService{
		show: func(_ context.Context, id string) (store.ShowRecord, []store.EpisodeRecord, error) {
			require.Equal(t, showURL, id)
			rec := store.ShowRecord{URL: showURL, Name: "Alpha", SeasonCount: 2}
			eps := []store.EpisodeRecord{
				{GUID: "g1", Name: "Pilot", Season: 1, Episode: 1},
				{GUID: "g2", Name: "Two", Season: 1, Episode: 2},
			}
			return rec, eps, nil
		},
	}
	mux := newTestMux(svc)

	target := "/meta/" + url.PathEscape(showURL)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp metaResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, showURL, resp.Meta.ID)
	assert.Equal(t, 2, resp.Meta.Seasons)
	require.Len(t, resp.Episodes, 2)
	assert.Equal(t, vod.EpisodeID(showURL, "g1"), resp.Episodes[0].ID)
	assert.Equal(t, 1, resp.Episodes[0].Season)
}

func TestGetStream(t *testing.T) {
	showURL := "https://www.mako.co.il/mako-vod-alpha"
	svc := &fakeService{
		stream: func(_ context.Context, showID, guid string) (string, error) {
			assert.Equal(t, showURL, showID)
			assert.Equal(t, "g1", guid)
			return "https://cdn/video.m3u8?ticket=abc", nil
		},
	}
	mux := newTestMux(svc)

	target := "/stream/" + url.PathEscape(vod.EpisodeID(showURL, "g1"))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp streamResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://cdn/video.m3u8?ticket=abc", resp.URL)
}

func TestGetStream_Errors(t *testing.T) {
	showURL := "https://www.mako.co.il/mako-vod-alpha"
	tests := []struct {
		name     string
		id       string
		err      error
		wantCode int
		wantErr  string
	}{
		{
			name:     "malformed id",
			id:       url.PathEscape("no-separator-here"),
			wantCode: http.StatusBadRequest,
			wantErr:  "bad_id",
		},
		{
			name:     "unknown episode",
			id:       url.PathEscape(vod.EpisodeID(showURL, "nope")),
			err:      fmt.Errorf("lookup: %w", store.ErrNotFound),
			wantCode: http.StatusNotFound,
			wantErr:  "not_found",
		},
		{
			name:     "resolver failure",
			id:       url.PathEscape(vod.EpisodeID(showURL, "g1")),
			err:      errors.New("no playable stream"),
			wantCode: http.StatusBadGateway,
			wantErr:  "no_stream",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{
				stream: func(context.Context, string, string) (string, error) {
					return "", tt.err
				},
			}
			mux := newTestMux(svc)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stream/"+tt.id, nil))

			assert.Equal(t, tt.wantCode, w.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Code)
		})
	}
}

func TestPostRefresh(t *testing.T) {
	showURL := "https://www.mako.co.il/mako-vod-alpha"
	called := false
	svc := &fakeService{
		refresh: func(_ context.Context, id string) error {
			called = true
			assert.Equal(t, showURL, id)
			return nil
		},
	}
	mux := newTestMux(svc)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/refresh/"+url.PathEscape(showURL), nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, called)
}

func TestPostRefresh_UpstreamFailure(t *testing.T) {
	svc := &fakeService{
		refresh: func(context.Context, string) error {
			return errors.New("portal down")
		},
	}
	mux := newTestMux(svc)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/refresh/show", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "refresh_failed", resp.Code)
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(&fakeService{})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestLogRequests_RecordsStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	LogRequests(handler, testLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
}
