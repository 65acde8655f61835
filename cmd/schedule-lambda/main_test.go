package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(method, path, query string, headers map[string]string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath:        path,
		RawQueryString: query,
		Headers:        headers,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RequestID: "apigw-req-1",
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   method,
				Path:     path,
				SourceIP: "198.51.100.7",
			},
		},
	}
}

func testConfig(baseURL string) config {
	return config{upstreamBaseURL: baseURL, upstreamTimeout: time.Second}
}

func TestHandleHealth(t *testing.T) {
	resp, err := handle(context.Background(), testConfig("http://example.com"), http.DefaultClient,
		request(http.MethodGet, "/health", "", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body)
}

func TestHandleRejectsNonGet(t *testing.T) {
	resp, err := handle(context.Background(), testConfig("http://example.com"), http.DefaultClient,
		request(http.MethodPost, "/schedule/free", "", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleRejectsUnknownPath(t *testing.T) {
	resp, err := handle(context.Background(), testConfig("http://example.com"), http.DefaultClient,
		request(http.MethodGet, "/metrics", "", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleForwardsScheduleQuery(t *testing.T) {
	var got *http.Request
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"available":true}`))
	}))
	defer upstream.Close()

	resp, err := handle(context.Background(), testConfig(upstream.URL), upstream.Client(),
		request(http.MethodGet, "/schedule/availability/", "date=2025-02-15&start=12:00&end=17:30", map[string]string{
			"X-Request-Id": "req-42",
		}))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/schedule/availability", got.URL.Path)
	assert.Equal(t, "date=2025-02-15&start=12:00&end=17:30", got.URL.RawQuery)
	assert.Equal(t, "req-42", got.Header.Get("X-Request-ID"))
	assert.Equal(t, "198.51.100.7", got.Header.Get("X-Real-Ip"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"available":true}`, resp.Body)
	assert.Equal(t, "application/json", resp.Headers["content-type"])
	assert.Equal(t, "req-42", resp.Headers["x-request-id"])
}

func TestHandleUsesGatewayRequestID(t *testing.T) {
	var requestID string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = r.Header.Get("X-Request-ID")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"fetch schedule: boom"}`))
	}))
	defer upstream.Close()

	resp, err := handle(context.Background(), testConfig(upstream.URL), upstream.Client(),
		request(http.MethodGet, "/schedule/free", "", nil))
	require.NoError(t, err)
	assert.Equal(t, "apigw-req-1", requestID)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "upstream status passes through")
}

func TestHandleUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	base := upstream.URL
	upstream.Close()

	resp, err := handle(context.Background(), testConfig(base), &http.Client{Timeout: time.Second},
		request(http.MethodGet, "/schedule/slot", "duration=60", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("UPSTREAM_BASE_URL", "")
	_, err := loadConfig()
	assert.Error(t, err)

	t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com/")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.upstreamBaseURL)
	assert.Equal(t, 3*time.Second, cfg.upstreamTimeout)

	t.Setenv("UPSTREAM_TIMEOUT", "soon")
	_, err = loadConfig()
	assert.Error(t, err)
}
