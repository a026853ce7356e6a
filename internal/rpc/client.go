package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/LeJamon/goPriceOracle/internal/auth"
	"github.com/LeJamon/goPriceOracle/internal/rpc/rpc_types"
)

// Client calls an oracled RPC endpoint. Requests are signed when the client
// holds a key.
type Client struct {
	url  string
	http *http.Client
	key  *auth.KeyPair
	now  func() time.Time
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithKey signs every request with key
func WithKey(key *auth.KeyPair) ClientOption {
	return func(c *Client) {
		c.key = key
	}
}

// WithClientClock replaces time.Now for request timestamps
func WithClientClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client for baseURL, e.g. http://127.0.0.1:5005
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		url:  strings.TrimRight(baseURL, "/") + "/rpc",
		http: http.DefaultClient,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call invokes method with params and decodes the result object into out.
// An error response is returned as *rpc_types.RpcError.
func (c *Client) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	request := rpc_types.Request{Method: method}

	var raw []byte
	if params != nil {
		var err error
		if raw, err = json.Marshal(params); err != nil {
			return fmt.Errorf("encode params: %w", err)
		}
		request.Params = []json.RawMessage{raw}
	}
	if c.key != nil {
		cred := c.key.Sign(method, c.now().UnixMilli(), raw)
		request.Auth = &cred
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("rpc %s: unexpected response (HTTP %d): %w", method, resp.StatusCode, err)
	}

	var status struct {
		Status string `json:"status"`
		rpc_types.RpcError
	}
	if err := json.Unmarshal(envelope.Result, &status); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	if status.Status != "success" {
		rpcErr := status.RpcError
		return &rpcErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
