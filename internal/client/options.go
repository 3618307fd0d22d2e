package client

import (
	"fmt"
	"time"
)

// Option configures a Client during construction in New.
type Option func(*Client) error

// WithHTTPTimeout bounds a single HTTP request. Generation can take minutes.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.SetTimeout(d)
		return nil
	}
}

// WithRetry sets how many times a transient failure is retried and the first backoff interval.
func WithRetry(maxRetries uint64, base time.Duration) Option {
	return func(c *Client) error {
		if base <= 0 {
			return fmt.Errorf("backoff base must be > 0")
		}
		c.maxRetries = maxRetries
		c.baseBackoff = base
		return nil
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) error {
		c.http.SetHeader(key, value)
		return nil
	}
}
