package mainconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/wolfman30/schedule-availability/internal/config"
	"github.com/wolfman30/schedule-availability/pkg/logging"
)

const payload = `{"days":[{"id":1,"date":"2025-02-15","start":"09:00","end":"21:00"}],"timeslots":[]}`

func sourceServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewFetcherWithoutRedis(t *testing.T) {
	var hits atomic.Int32
	srv := sourceServer(t, &hits)
	cfg := &appconfig.Config{FetchTimeout: time.Second}

	f, err := NewFetcher(context.Background(), cfg, logging.New("error"), nil)
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, f.Cached())

	for range 2 {
		snap, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Len(t, snap.Days, 1)
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestNewFetcherWithRedis(t *testing.T) {
	var hits atomic.Int32
	srv := sourceServer(t, &hits)
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{FetchTimeout: time.Second, RedisAddr: mr.Addr(), CacheTTL: time.Minute}

	f, err := NewFetcher(context.Background(), cfg, logging.New("error"), nil)
	require.NoError(t, err)
	defer f.Close()
	assert.True(t, f.Cached())

	for range 3 {
		_, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestNewFetcherRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	cfg := &appconfig.Config{FetchTimeout: time.Second, RedisAddr: addr}

	_, err := NewFetcher(context.Background(), cfg, logging.New("error"), nil)
	assert.ErrorContains(t, err, "ping redis")
}
