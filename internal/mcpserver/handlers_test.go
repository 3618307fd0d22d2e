package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripplanner/itinerary-service/internal/client"
)

func newBackend(t *testing.T, h http.HandlerFunc) *client.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := client.New(ts.URL, client.WithRetry(0, time.Millisecond))
	require.NoError(t, err)
	return c
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", res.Content[0])
	return tc.Text
}

func TestPlanTripTool(t *testing.T) {
	var got map[string]interface{}
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/u1/itineraries", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"itinerary":[{"day":1,"title":"Arrival","activities":[],"estimated_cost":10,"tips":[]}],"total_estimated_cost":10,"provider":"mock","requestId":"r1"}`))
	})
	h := NewTripHandler(c)

	res, err := h.handlePlanTrip(context.Background(), callRequest(map[string]any{
		"user_id":          "u1",
		"destination":      "Lisbon",
		"travel_days":      2,
		"budget":           800.0,
		"travel_style":     "moderate",
		"interests":        "food, history,,",
		"enable_retrieval": false,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, "mock", payload["provider"])
	assert.Equal(t, "r1", payload["requestId"])

	assert.Equal(t, "Lisbon", got["destination"])
	assert.Equal(t, float64(2), got["travel_days"])
	assert.Equal(t, []interface{}{"food", "history"}, got["interests"])
	assert.Equal(t, false, got["enable_retrieval"])
}

func TestPlanTripTool_MissingArgs(t *testing.T) {
	h := NewTripHandler(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called")
	}))
	res, err := h.handlePlanTrip(context.Background(), callRequest(map[string]any{
		"user_id":      "u1",
		"destination":  "Lisbon",
		"travel_style": "budget",
		"budget":       100.0,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "travel_days")
}

func TestPlanTripTool_DaysOutOfRange(t *testing.T) {
	h := NewTripHandler(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called")
	}))
	for _, days := range []any{0, 31, 2.5, 1e9} {
		res, err := h.handlePlanTrip(context.Background(), callRequest(map[string]any{
			"user_id": "u1", "destination": "Lisbon", "travel_days": days, "budget": 100.0, "travel_style": "budget",
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError, "travel_days=%v", days)
		assert.Contains(t, resultText(t, res), "between 1 and 30")
	}
}

func TestPlanTripTool_BackendError(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"success":false,"error":"Too many requests. Please try again later.","code":"RATE_LIMIT"}`))
	})
	res, err := NewTripHandler(c).handlePlanTrip(context.Background(), callRequest(map[string]any{
		"user_id": "u1", "destination": "Rome", "travel_days": 1.0, "budget": 100.0, "travel_style": "budget",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "RATE_LIMIT")
}

func TestTokenUsageTool(t *testing.T) {
	c := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/u2/usage", r.URL.Path)
		assert.Equal(t, "1h0m0s", r.URL.Query().Get("window"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"userId":"u2","since":"2026-01-01T00:00:00Z","totalTokens":1234,"dailyQuota":100000}`))
	})
	res, err := NewTripHandler(c).handleTokenUsage(context.Background(), callRequest(map[string]any{
		"user_id": "u2", "window": "1h",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var u client.Usage
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &u))
	assert.Equal(t, int64(1234), u.TotalTokens)
	assert.Equal(t, int64(100000), u.DailyQuota)
}

func TestTokenUsageTool_BadWindow(t *testing.T) {
	h := NewTripHandler(newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called")
	}))
	res, err := h.handleTokenUsage(context.Background(), callRequest(map[string]any{"user_id": "u2", "window": "soon"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNewServerRegistersTools(t *testing.T) {
	s, err := NewServer("itinerary-test", "0.0.0", nil)
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestSplitInterests(t *testing.T) {
	assert.Equal(t, []string{}, splitInterests(nil))
	assert.Equal(t, []string{"a", "b"}, splitInterests(" a ,b"))
	assert.Equal(t, []string{"x"}, splitInterests([]interface{}{"x", 3, " "}))
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("ITINERARY_SERVICE_URL", "http://env:1")
	t.Setenv("LOG_LEVEL", "warn")
	cfg, err := loadConfig([]string{"--service-url", "http://flag:2", "--log-level", "debug"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag:2", cfg.ServiceURL)
	assert.Equal(t, "debug", cfg.LogLevel.String())

	cfg, err = loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "http://env:1", cfg.ServiceURL)
	assert.Equal(t, "warn", cfg.LogLevel.String())
}
