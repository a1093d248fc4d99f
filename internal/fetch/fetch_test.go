package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longPage() string {
	return "<html><body><p>" + strings.Repeat("Licensed electricians serving the Front Range. ", 20) + "</p></body></html>"
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><h1>Acme</h1></body></html>"))
	}))
	defer server.Close()

	page, err := New(nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL, page.URL)
	assert.Contains(t, page.HTML, "<h1>Acme</h1>")
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, "text/html", page.ContentType)
	assert.False(t, page.Rendered)
}

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"X-Trace": "abc"}
	_, err := New(opts).Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Contains(t, got.Get("User-Agent"), "Mozilla/5.0")
	assert.Contains(t, got.Get("Accept"), "text/html")
	assert.NotEmpty(t, got.Get("Accept-Language"))
	assert.Equal(t, "abc", got.Get("X-Trace"))
}

func TestFetch_InvalidURL(t *testing.T) {
	for _, raw := range []string{"not-a-valid-url", "ftp://example.com/file", "https://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := New(nil).Fetch(context.Background(), raw)
			require.Error(t, err)

			var fetchErr *Error
			require.ErrorAs(t, err, &fetchErr)
			assert.Contains(t, err.Error(), "invalid URL")
		})
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError, http.StatusNotModified} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			defer server.Close()

			page, err := New(nil).Fetch(context.Background(), server.URL)
			require.Error(t, err)
			require.NotNil(t, page)
			assert.Equal(t, status, page.StatusCode)

			var fetchErr *Error
			require.ErrorAs(t, err, &fetchErr)
			assert.Equal(t, status, fetchErr.StatusCode)
		})
	}
}

func TestFetch_AcceptsAny2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNonAuthoritativeInfo)
		_, _ = w.Write([]byte("<p>hi</p>"))
	}))
	defer server.Close()

	_, err := New(nil).Fetch(context.Background(), server.URL)
	assert.NoError(t, err)
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil).Fetch(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetch_BrowserFallbackOnThinPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="root"></div><script src="app.js"></script></body></html>`))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.UseBrowser = true
	f := New(opts)
	var rendered []string
	f.Render = func(_ context.Context, rawURL string) (string, error) {
		rendered = append(rendered, rawURL)
		return longPage(), nil
	}

	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, page.Rendered)
	assert.Equal(t, longPage(), page.HTML)
	assert.Equal(t, []string{server.URL}, rendered)
}

func TestFetch_NoBrowserForRichPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(longPage()))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.UseBrowser = true
	f := New(opts)
	f.Render = func(context.Context, string) (string, error) {
		t.Fatal("render should not be called")
		return "", nil
	}

	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, page.Rendered)
}

func TestFetch_BrowserFailureKeepsHTTPBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<p>short</p>"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.UseBrowser = true
	f := New(opts)
	f.Render = func(context.Context, string) (string, error) {
		return "", errors.New("chrome not installed")
	}

	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.False(t, page.Rendered)
	assert.Equal(t, "<p>short</p>", page.HTML)
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser(`<div id="app"></div>`))
	assert.True(t, ShouldUseBrowser(`<script>` + strings.Repeat("x", 2000) + `</script>`))
	assert.False(t, ShouldUseBrowser(longPage()))
}

func TestFetch_DenyPrivateRefusesLoopback(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(longPage()))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.DenyPrivate = true
	opts.UseBrowser = true
	f := New(opts)
	f.Render = func(context.Context, string) (string, error) {
		t.Fatal("browser must not run while private addresses are denied")
		return "", nil
	}

	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPrivateAddress)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "HTTP request failed", fetchErr.Message)
	assert.Zero(t, hits.Load())
}

func TestDenyPrivate(t *testing.T) {
	tests := []struct {
		address string
		denied  bool
	}{
		{address: "127.0.0.1:80", denied: true},
		{address: "[::1]:443", denied: true},
		{address: "10.1.2.3:80", denied: true},
		{address: "172.16.0.9:80", denied: true},
		{address: "192.168.1.1:80", denied: true},
		{address: "169.254.169.254:80", denied: true},
		{address: "100.64.0.1:80", denied: true},
		{address: "0.0.0.0:80", denied: true},
		{address: "[fe80::1]:80", denied: true},
		{address: "[fd00::1]:80", denied: true},
		{address: "[::ffff:127.0.0.1]:80", denied: true},
		{address: "93.184.216.34:443", denied: false},
		{address: "[2606:4700::1111]:443", denied: false},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			err := denyPrivate("tcp", tt.address, nil)
			if tt.denied {
				assert.ErrorIs(t, err, ErrPrivateAddress)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsPublic_Invalid(t *testing.T) {
	assert.False(t, isPublic(netip.Addr{}))
	assert.Error(t, denyPrivate("tcp", "not-an-address", nil))
}
