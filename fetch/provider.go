package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
)

// Method is an HTTP verb
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
	MethodPatch  Method = http.MethodPatch
)

// Request describes one REST call relative to the provider's base URL
type Request struct {
	Path    string
	Module  string
	Method  Method
	Body    map[string]any
	Headers map[string]string
}

// Provider issues Requests against a configured base URL
type Provider struct {
	settings

	mu      sync.RWMutex
	baseURL string
}

// NewProvider creates an unconfigured provider
func NewProvider(opts ...Option) *Provider {
	return &Provider{settings: buildSettings(opts)}
}

// ConfigureBaseURL sets the base URL. It must be absolute.
func (p *Provider) ConfigureBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		p.logger.Warn("could not configure base url", "url", raw)
		return &APIError{Kind: BadURL, Reason: raw, Err: err}
	}

	p.mu.Lock()
	p.baseURL = raw
	p.mu.Unlock()
	return nil
}

// BaseURL returns the configured base URL
func (p *Provider) BaseURL() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.baseURL
}

// Do sends r and decodes the JSON response into out (nil to discard)
func (p *Provider) Do(ctx context.Context, r Request, out any) error {
	base := p.BaseURL()
	if base == "" {
		return &APIError{Kind: BadURL, Reason: "base url not configured"}
	}

	full := base + r.Module + r.Path
	if _, err := url.Parse(full); err != nil {
		return &APIError{Kind: BadURL, Reason: full, Err: err}
	}

	method := r.Method
	if method == "" {
		method = MethodGet
	}

	var body io.Reader
	if r.Body != nil && method != MethodGet && method != MethodDelete {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return &APIError{Kind: MappingError, Reason: err.Error(), Err: err}
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, string(method), full, body)
	if err != nil {
		return &APIError{Kind: BadURL, Reason: full, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	return send(p.client, p.logger, req, out)
}
