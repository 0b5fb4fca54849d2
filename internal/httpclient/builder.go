package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/loadwave-dev/loadwave/internal/config"
	"github.com/loadwave-dev/loadwave/internal/session"
)

// RequestBuilder assembles one fully-specified HTTP request per task from the
// run configuration and a session-token snapshot. It performs pure data
// assembly: no network access and no shared-state mutation.
type RequestBuilder struct {
	method      string
	target      string
	headers     http.Header
	body        []byte
	sendParams  bool
	params      url.Values
	sendBearer  bool
	bearerToken string
	sendSession bool
	sendOrigin  bool
	originURL   string
}

// NewRequestBuilder validates the request-shaping parts of cfg and returns a
// builder. The JSON body is marshalled once here and reused for every task.
func NewRequestBuilder(cfg *config.Config) (*RequestBuilder, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	target := strings.TrimSpace(cfg.APIURL)
	if target == "" {
		return nil, errors.New("target URL is required")
	}

	method := strings.ToUpper(strings.TrimSpace(cfg.Method))
	if method == "" {
		method = http.MethodGet
	}

	headers := http.Header{}
	for key, value := range cfg.Headers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" || strings.ContainsAny(trimmedKey, "\r\n") {
			return nil, fmt.Errorf("invalid header key %q", key)
		}
		canonicalKey := http.CanonicalHeaderKey(trimmedKey)
		if strings.ContainsAny(value, "\r\n") {
			return nil, fmt.Errorf("invalid header value for %s", canonicalKey)
		}
		headers.Set(canonicalKey, value)
	}

	var body []byte
	if cfg.SendBody && cfg.Body != nil {
		encoded, err := json.Marshal(cfg.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		body = encoded
	}

	params := url.Values{}
	for key, value := range cfg.Params {
		params.Set(key, value)
	}

	return &RequestBuilder{
		method:      method,
		target:      target,
		headers:     headers,
		body:        body,
		sendParams:  cfg.SendParams,
		params:      params,
		sendBearer:  cfg.SendBearer,
		bearerToken: cfg.BearerToken,
		sendSession: cfg.SendSessionToken,
		sendOrigin:  cfg.SendOrigin,
		originURL:   cfg.OriginURL,
	}, nil
}

// Build produces the request for one task. tokenSnapshot is the session token
// read at call time; an empty snapshot means no token exists yet and the
// session header is omitted. Query parameters are attached only for GET —
// a non-GET method with params configured silently omits them.
func (b *RequestBuilder) Build(ctx context.Context, tokenSnapshot string) (*http.Request, error) {
	if b == nil {
		return nil, errors.New("builder cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	target := b.target
	if b.sendParams && b.method == http.MethodGet && len(b.params) > 0 {
		parsed, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("parse target: %w", err)
		}
		query := parsed.Query()
		for key, values := range b.params {
			for _, value := range values {
				query.Set(key, value)
			}
		}
		parsed.RawQuery = query.Encode()
		target = parsed.String()
	}

	var reader io.Reader
	if len(b.body) > 0 {
		reader = bytes.NewReader(b.body)
	}

	req, err := http.NewRequestWithContext(ctx, b.method, target, reader)
	if err != nil {
		return nil, err
	}

	req.Header = make(http.Header, len(b.headers)+3)
	for key, values := range b.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if b.sendBearer && b.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.bearerToken)
	}
	if b.sendSession && tokenSnapshot != "" {
		req.Header.Set(session.TokenHeader, tokenSnapshot)
	}
	if b.sendOrigin && b.originURL != "" {
		req.Header.Set("Origin", b.originURL)
	}

	if len(b.body) > 0 {
		req.ContentLength = int64(len(b.body))
		body := b.body
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	return req, nil
}
