// Package client is a Go SDK for the itinerary service HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/tripplanner/itinerary-service/internal/model"
)

type Client struct {
	http        *resty.Client
	maxRetries  uint64
	baseBackoff time.Duration
}

// New constructs a Client for baseURL such as http://localhost:8080.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json").
			SetTimeout(5 * time.Minute),
		maxRetries:  3,
		baseBackoff: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type GenerateRequest struct {
	model.TripRequest
	EnableRetrieval *bool  `json:"enable_retrieval,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
}

type GenerateResponse struct {
	Success            bool                 `json:"success"`
	Itinerary          []model.DayItinerary `json:"itinerary"`
	TotalEstimatedCost float64              `json:"total_estimated_cost"`
	Provider           string               `json:"provider"`
	RequestID          string               `json:"requestId"`
}

type Usage struct {
	UserID      string    `json:"userId"`
	Since       time.Time `json:"since"`
	TotalTokens int64     `json:"totalTokens"`
	DailyQuota  int64     `json:"dailyQuota"`
}

type Chunk struct {
	ID          string                 `json:"id,omitempty"`
	ContentType model.ContentType      `json:"content_type"`
	Content     string                 `json:"content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Generate asks the service for an itinerary for userID.
func (c *Client) Generate(ctx context.Context, userID string, req GenerateRequest) (*GenerateResponse, error) {
	var out GenerateResponse
	path := "/api/users/" + url.PathEscape(userID) + "/itineraries"
	if err := c.do(ctx, http.MethodPost, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Usage returns the tokens userID consumed within window; zero uses the server default.
func (c *Client) Usage(ctx context.Context, userID string, window time.Duration) (*Usage, error) {
	q := url.Values{}
	if window > 0 {
		q.Set("window", window.String())
	}
	var out Usage
	if err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID)+"/usage", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IndexChunk stores a knowledge chunk and returns its id.
func (c *Client) IndexChunk(ctx context.Context, chunk Chunk) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/knowledge", nil, chunk, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

// Health returns nil when the service reports healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.baseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = 5 * time.Second
	exp.Reset()
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, c.maxRetries), ctx)

	return backoff.Retry(func() error {
		r := c.http.R().SetContext(ctx)
		if query != nil {
			r.SetQueryParamsFromValues(query)
		}
		if body != nil {
			r.SetBody(body)
		}
		resp, err := r.Execute(method, path)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		if resp.IsError() {
			ae := decodeError(resp)
			if ae.retryable() {
				return ae
			}
			return backoff.Permanent(ae)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s response: %w", path, err))
		}
		return nil
	}, policy)
}

func decodeError(resp *resty.Response) *APIError {
	ae := &APIError{StatusCode: resp.StatusCode()}
	var eb errorBody
	if err := json.Unmarshal(resp.Body(), &eb); err == nil && eb.Error != "" {
		ae.Code, ae.Message = eb.Code, eb.Error
	} else {
		ae.Message = strings.TrimSpace(resp.String())
	}
	if v := resp.Header().Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			ae.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return ae
}
