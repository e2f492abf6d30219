// Package transport executes connector wire requests over HTTP. It is
// deliberately dumb: builders own the request shape, parsers own the
// reply, transport owns timeouts, limits, and network failure mapping.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payments/core"
)

const defaultClientTimeout = 30 * time.Second
const defaultResponseBodyLimit int64 = 10 << 20 // 10 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client sends a WireRequest to a connector's API and hands the raw
// reply back. Non-2xx statuses are returned as responses, not errors;
// only network and protocol faults error out.
type Client struct {
	HTTP                 HTTPDoer
	DefaultHeaders       map[string]string
	MaxResponseBodyBytes int64
}

func NewClient(httpClient HTTPDoer) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultClientTimeout}
	}
	return &Client{
		HTTP:                 httpClient,
		DefaultHeaders:       map[string]string{},
		MaxResponseBodyBytes: defaultResponseBodyLimit,
	}
}

func (c *Client) Execute(ctx context.Context, baseURL string, req core.WireRequest) (core.WireResponse, error) {
	if c == nil || c.HTTP == nil {
		return core.WireResponse{}, transportError(
			"transport: client requires an http doer",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target, err := joinURL(baseURL, req.Path)
	if err != nil {
		return core.WireResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(req.Body))
	if err != nil {
		return core.WireResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			http.StatusBadRequest,
			map[string]any{"method": method, "url": target},
		)
	}
	for key, value := range c.DefaultHeaders {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	for key, value := range req.Headers {
		if strings.TrimSpace(key) == "" {
			continue
		}
		httpReq.Header.Set(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	httpRes, err := c.HTTP.Do(httpReq)
	if err != nil {
		// Context cancellation surfaces as-is so callers can tell a
		// caller-side abort from a gateway fault.
		if ctx.Err() != nil {
			return core.WireResponse{}, ctx.Err()
		}
		return core.WireResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			http.StatusBadGateway,
			map[string]any{"method": method, "url": target},
		)
	}
	defer httpRes.Body.Close()

	limit := c.MaxResponseBodyBytes
	if limit <= 0 {
		limit = defaultResponseBodyLimit
	}
	body, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		return core.WireResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			http.StatusBadGateway,
			map[string]any{"status_code": httpRes.StatusCode},
		)
	}
	if int64(len(body)) > limit {
		return core.WireResponse{}, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"status_code": httpRes.StatusCode, "response_limit_b": limit},
		)
	}

	headers := make(map[string]string, len(httpRes.Header))
	for key := range httpRes.Header {
		headers[key] = httpRes.Header.Get(key)
	}

	return core.WireResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    headers,
		Body:       body,
	}, nil
}

func joinURL(baseURL string, path string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", transportError(
			"transport: connector base url is invalid",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"base_url": strings.TrimSpace(baseURL)},
		)
	}
	return strings.TrimRight(parsed.String(), "/") + "/" + strings.TrimLeft(path, "/"), nil
}
