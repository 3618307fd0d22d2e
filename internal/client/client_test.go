package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripplanner/itinerary-service/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, WithRetry(2, time.Millisecond), WithHTTPTimeout(5*time.Second))
	require.NoError(t, err)
	return c, srv
}

func trip() model.TripRequest {
	return model.TripRequest{Destination: "Rome", TravelDays: 2, Budget: 500, TravelStyle: model.StyleBudget, Interests: []string{"art"}}
}

func TestNew_Validation(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
	_, err = New("http://x", WithHTTPTimeout(0))
	assert.Error(t, err)
	_, err = New("http://x", WithRetry(1, 0))
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/users/bob/itineraries", r.URL.Path)
		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Rome", body["destination"])
		assert.Equal(t, "r-1", body["request_id"])
		assert.Equal(t, true, body["enable_retrieval"])
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success":true,"itinerary":[{"day":1,"title":"t","activities":[],"estimated_cost":0,"tips":[]}],"total_estimated_cost":50,"provider":"openai","requestId":"r-1"}`)
	})
	on := true
	res, err := c.Generate(context.Background(), "bob", GenerateRequest{TripRequest: trip(), EnableRetrieval: &on, RequestID: "r-1"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, "r-1", res.RequestID)
	assert.Len(t, res.Itinerary, 1)
	assert.Equal(t, 50.0, res.TotalEstimatedCost)
}

func TestGenerate_RateLimitedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"success":false,"error":"Rate limit exceeded. Try again later.","code":"RATE_LIMIT"}`)
	})
	_, err := c.Generate(context.Background(), "bob", GenerateRequest{TripRequest: trip()})
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	ae, ok := asAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "RATE_LIMIT", ae.Code)
	assert.Equal(t, 2*time.Minute, ae.RetryAfter)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenerate_BadGatewayIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"success":false,"error":"Failed to generate a valid itinerary. Please try again.","code":"VALIDATION"}`)
	})
	_, err := c.Generate(context.Background(), "bob", GenerateRequest{TripRequest: trip()})
	assert.True(t, IsGenerationFailed(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "oops")
			return
		}
		fmt.Fprint(w, `{"userId":"bob","since":"2025-01-01T00:00:00Z","totalTokens":42,"dailyQuota":500000}`)
	})
	u, err := c.Usage(context.Background(), "bob", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.TotalTokens)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "down")
	})
	err := c.Health(context.Background())
	require.Error(t, err)
	ae, ok := asAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, ae.StatusCode)
	assert.Equal(t, "down", ae.Message)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientErrorsAreFinal(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"success":false,"error":"content is required","code":"BAD_REQUEST"}`)
	})
	_, err := c.IndexChunk(context.Background(), Chunk{ContentType: model.ContentCity})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content is required")
	assert.Equal(t, int32(1), calls.Load())
}

func TestUsageWindowAndIndexChunk(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/users/bob/usage":
			assert.Equal(t, "1h0m0s", r.URL.Query().Get("window"))
			fmt.Fprint(w, `{"userId":"bob","totalTokens":7}`)
		case "/api/knowledge":
			var ch Chunk
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&ch))
			assert.Equal(t, model.ContentVisaRule, ch.ContentType)
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{"success":true,"id":"chunk-1"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	u, err := c.Usage(context.Background(), "bob", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.TotalTokens)

	id, err := c.IndexChunk(context.Background(), Chunk{ContentType: model.ContentVisaRule, Content: "Schengen: 90 days"})
	require.NoError(t, err)
	assert.Equal(t, "chunk-1", id)
}

func TestContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		cancel()
		w.WriteHeader(http.StatusInternalServerError)
	})
	err := c.Health(ctx)
	require.Error(t, err)
}
