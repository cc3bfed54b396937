package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

const (
	rpcPath         = "rpc"
	jsonRPCVersion  = "2.0"
	contentType     = "Content-Type"
	applicationJson = "application/json"

	defaultTimeout      = time.Minute
	defaultMaxBodySize  = 8 * 1024 * 1024
	defaultMaxRetries   = 3
	defaultInitialDelay = 250 * time.Millisecond
	defaultMaxDelay     = 5 * time.Second
)

type (
	// Client talks JSON-RPC 2.0 to a node. Calls are independent blocking
	// round-trips; the client keeps no cross-call state beyond the request id
	// counter and is safe for concurrent use.
	Client struct {
		rpcURL     *url.URL
		httpClient http.Client
		log        *slog.Logger

		maxBodySize  int64
		maxRetries   int
		initialDelay time.Duration
		maxDelay     time.Duration

		nextID atomic.Uint64
	}

	Option func(*Client)

	request struct {
		Version string `json:"jsonrpc"`
		ID      uint64 `json:"id"`
		Method  string `json:"method"`
		Params  any    `json:"params,omitempty"`
	}

	response struct {
		Version string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  json.RawMessage `json:"result"`
		Error   *NodeError      `json:"error"`
	}
)

// WithTimeout caps the duration of each HTTP round-trip.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// WithMaxBodySize caps the accepted response body size.
func WithMaxBodySize(size int64) Option {
	return func(c *Client) { c.maxBodySize = size }
}

// WithRetry configures the transport retry budget. maxRetries is the number
// of attempts after the first.
func WithRetry(maxRetries int, initialDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.initialDelay = initialDelay
		c.maxDelay = maxDelay
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New builds a client for the node at nodeAddress, e.g.
// "http://localhost:7777". A missing scheme defaults to http.
func New(nodeAddress string, opts ...Option) (*Client, error) {
	if !strings.HasPrefix(nodeAddress, "http://") && !strings.HasPrefix(nodeAddress, "https://") {
		nodeAddress = "http://" + nodeAddress
	}
	u, err := url.Parse(nodeAddress)
	if err != nil {
		return nil, fmt.Errorf("parsing node address %q: %w", nodeAddress, err)
	}
	c := &Client{
		rpcURL:       u.JoinPath(rpcPath),
		httpClient:   http.Client{Timeout: defaultTimeout},
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxBodySize:  defaultMaxBodySize,
		maxRetries:   defaultMaxRetries,
		initialDelay: defaultInitialDelay,
		maxDelay:     defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// call performs one JSON-RPC call. The request id stays the same across
// transport retries so the exchange can be correlated in logs. Node errors
// are returned verbatim and never retried; transport failures are retried
// with exponential backoff until the budget is exhausted, then reported as
// ErrUnreachable.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	id := c.nextID.Add(1)
	body, err := json.Marshal(request{
		Version: jsonRPCVersion,
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	var lastErr error
	delay := c.initialDelay
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("rpc call failed, retrying",
				"method", method, "id", id, "attempt", attempt,
				"delay", delay, "err", lastErr)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %s id=%d: %v", ErrUnreachable, method, id, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		err := c.roundTrip(ctx, id, method, body, result)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %s id=%d after %d attempts: %v",
		ErrUnreachable, method, id, c.maxRetries+1, lastErr)
}

// retryable reports whether an error is a transport failure. Node errors, id
// mismatches and truncated bodies are terminal.
func retryable(err error) bool {
	var nodeErr *NodeError
	if errors.As(err, &nodeErr) {
		return false
	}
	return !errors.Is(err, ErrIDMismatch) && !errors.Is(err, ErrTruncated) &&
		!errors.Is(err, context.Canceled)
}

func (c *Client) roundTrip(ctx context.Context, id uint64, method string, body []byte, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set(contentType, applicationJson)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s failed: %w", method, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBodySize+1))
	if err != nil {
		return fmt.Errorf("reading %s response: %w", method, err)
	}
	if int64(len(data)) > c.maxBodySize {
		return fmt.Errorf("%w: %s response exceeds %d bytes", ErrTruncated, method, c.maxBodySize)
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected response status code: %d", method, httpResp.StatusCode)
	}

	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s: %w", method, resp.Error)
	}
	var respID uint64
	if err := json.Unmarshal(resp.ID, &respID); err != nil || respID != id {
		return fmt.Errorf("%w: %s sent id %d, got %s", ErrIDMismatch, method, id, resp.ID)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}
	return nil
}
