package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ErrExhausted is returned once every retry attempt against an airline
// endpoint has failed. Callers must treat it as "could not determine state"
// and fall back to an empty payload rather than surfacing a fault.
var ErrExhausted = errors.New("remote: retries exhausted")

// Policy is the single retry/backoff configuration shared by every outbound
// airline call. Call sites never carry their own constants.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultPolicy matches the observed behaviour of the airline endpoints:
// five attempts, 10ms initial delay doubling up to a 60s cap.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  5,
		InitialDelay: 10 * time.Millisecond,
		Multiplier:   2,
		MaxDelay:     60 * time.Second,
	}
}

// Client performs idempotent GET/PUT calls against external airline endpoints
// with bounded exponential-backoff retry.
type Client struct {
	http    *http.Client
	policy  Policy
	log     *zap.SugaredLogger
	retries prometheus.Counter
}

type ClientOption func(*Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

func WithRetryCounter(counter prometheus.Counter) ClientOption {
	return func(c *Client) { c.retries = counter }
}

func NewClient(policy Policy, log *zap.SugaredLogger, opts ...ClientOption) *Client {
	if policy.MaxAttempts <= 0 {
		policy = DefaultPolicy()
	}
	c := &Client{
		http:   &http.Client{Timeout: 10 * time.Second},
		policy: policy,
		log:    log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url and returns the response body. Transport errors and non-2xx
// responses are retried per the policy; after exhaustion it returns
// ErrExhausted and the caller degrades to an empty payload.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return body, nil
}

// Put issues an idempotent PUT with an empty body, retried like Get.
func (c *Client) Put(ctx context.Context, url string) error {
	err := c.do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("PUT %s: %w", url, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, attempt func() error) error {
	delay := c.policy.InitialDelay
	var lastErr error

	for i := 0; i < c.policy.MaxAttempts; i++ {
		if i > 0 {
			if c.retries != nil {
				c.retries.Inc()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.policy.Multiplier)
			if delay > c.policy.MaxDelay {
				delay = c.policy.MaxDelay
			}
		}

		lastErr = attempt()
		if lastErr == nil {
			return nil
		}
		c.log.Debugw("remote call failed", "attempt", i+1, "error", lastErr)
	}

	c.log.Warnw("remote call exhausted retries, falling back to empty response",
		"attempts", c.policy.MaxAttempts, "error", lastErr)
	return ErrExhausted
}
