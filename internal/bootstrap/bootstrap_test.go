package bootstrap

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/jobfeed/internal/config"
	"github.com/maauso/jobfeed/internal/server"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte(`{"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":7,"title":"Delivery Partner"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func baseConfig(feedURL string) *config.Config {
	return &config.Config{
		Port:                     8080,
		FeedBaseURL:              feedURL,
		FeedTimeout:              5 * time.Second,
		StoreBackend:             config.BackendMemory,
		BookmarksKey:             "@lokalapp_bookmarks",
		BookmarkCheckConcurrency: 2,
	}
}

func TestNewDependencies_Memory(t *testing.T) {
	upstream := newUpstream(t)
	ctx := context.Background()

	deps, err := NewDependencies(ctx, baseConfig(upstream.URL), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	raw, err := deps.Store.Get(ctx, "@lokalapp_bookmarks")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	require.NoError(t, deps.Controller.Initialize(ctx))

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	rec := httptest.NewRecorder()
	deps.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.FeedResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, "7", resp.Jobs[0].Job.ID)
	assert.Equal(t, "Delivery Partner", resp.Jobs[0].Job.Title)
}

func TestNewDependencies_FilePersistsBookmarks(t *testing.T) {
	upstream := newUpstream(t)
	ctx := context.Background()

	cfg := baseConfig(upstream.URL)
	cfg.StoreBackend = config.BackendFile
	cfg.StoreDir = filepath.Join(t.TempDir(), "store")

	deps, err := NewDependencies(ctx, cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, deps.Controller.Initialize(ctx))

	bookmarked, err := deps.Controller.ToggleBookmark(ctx, "7")
	require.NoError(t, err)
	assert.True(t, bookmarked)
	require.NoError(t, deps.Close())

	// A second process over the same directory sees the bookmark.
	deps, err = NewDependencies(ctx, cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	list, err := deps.Bookmarks.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "7", list[0].ID)

	require.NoError(t, deps.Controller.Initialize(ctx))
	assert.True(t, deps.Controller.IsBookmarked("7"))
}

func TestNewDependencies_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	upstream := newUpstream(t)
	ctx := context.Background()

	cfg := baseConfig(upstream.URL)
	cfg.StoreBackend = config.BackendRedis
	cfg.RedisURL = "redis://" + mr.Addr()

	deps, err := NewDependencies(ctx, cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	got, err := mr.Get("@lokalapp_bookmarks")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestNewDependencies_StorageErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{
			name: "unreachable redis",
			modify: func(c *config.Config) {
				c.StoreBackend = config.BackendRedis
				c.RedisURL = "redis://127.0.0.1:1"
			},
		},
		{
			name: "s3 without bucket",
			modify: func(c *config.Config) {
				c.StoreBackend = config.BackendS3
				c.S3Region = "us-east-1"
			},
		},
		{
			name:   "unknown backend",
			modify: func(c *config.Config) { c.StoreBackend = "tape" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig("http://127.0.0.1:1")
			tt.modify(cfg)

			deps, err := NewDependencies(context.Background(), cfg, testLogger())
			assert.Error(t, err)
			assert.Nil(t, deps)
		})
	}
}
