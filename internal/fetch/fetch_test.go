package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testClient() *Client {
	return New(WithLimiter(rate.NewLimiter(rate.Inf, 0)))
}

func TestGet_SendsBrowserHeaders(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	body, err := testClient().Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", body)
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Contains(t, gotLang, "he")
}

func TestGet_UserAgentOverride(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(WithLimiter(rate.NewLimiter(rate.Inf, 0)), WithUserAgent("custom/1.0"))
	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "custom/1.0", gotUA)
	// The rest of the browser profile stays intact.
	assert.Contains(t, gotLang, "he")
}

func TestGetBytes_PreservesRawBody(t *testing.T) {
	raw := []byte{0x00, 0xff, 0xfe, 'a', 'b'}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	got, err := testClient().GetBytes(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestPost_SetsContentType(t *testing.T) {
	var gotCT, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCT = r.Header.Get("Content-Type")
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		_, _ = w.Write([]byte("ticket"))
	}))
	defer srv.Close()

	resp, err := testClient().Post(context.Background(), srv.URL, "text/plain;charset=UTF-8", "payload")
	require.NoError(t, err)
	assert.Equal(t, "ticket", resp)
	assert.Equal(t, "text/plain;charset=UTF-8", gotCT)
	assert.Equal(t, "payload", gotBody)
}

func TestGet_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient().Get(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestGet_Throttles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// Burst of one: the second request must wait for the limiter.
	c := New(WithLimiter(rate.NewLimiter(rate.Every(100*time.Millisecond), 1)))

	start := time.Now()
	_, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}
