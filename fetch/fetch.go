// Package fetch is a thin JSON-over-HTTP client: a plain fetch capability and
// a REST provider that composes URLs from a configured base. Requests are
// passed straight to net/http without retries.
package fetch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	sdkcommon "github.com/sdkcommon/sdkcommon-go"
)

// Fetcher loads a resource and decodes its JSON body into out
type Fetcher interface {
	Fetch(ctx context.Context, url string, out any) error
}

// Option configures HTTPFetcher and Provider
type Option func(*settings)

type settings struct {
	client *http.Client
	logger *slog.Logger
}

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		s.client = client
	}
}

// WithLogger sets the request logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func buildSettings(opts []Option) settings {
	s := settings{
		client: http.DefaultClient,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// HTTPFetcher implements Fetcher with GET requests
type HTTPFetcher struct {
	settings
}

// NewHTTPFetcher creates a fetcher
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	return &HTTPFetcher{settings: buildSettings(opts)}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &APIError{Kind: BadURL, Reason: url, Err: err}
	}
	return send(f.client, f.logger, req, out)
}

// Get fetches url and decodes it as T
func Get[T any](ctx context.Context, f Fetcher, url string) (T, error) {
	var out T
	err := f.Fetch(ctx, url, &out)
	return out, err
}

func send(client *http.Client, logger *slog.Logger, req *http.Request, out any) error {
	logger.DebugContext(req.Context(), "http request", "method", req.Method, "url", req.URL.String())

	resp, err := client.Do(req)
	if err != nil {
		return &APIError{Kind: RequestFailed, StatusCode: -1, Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: RequestFailed, StatusCode: resp.StatusCode, Reason: err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.WarnContext(req.Context(), "http request rejected", "url", req.URL.String(), "status", resp.StatusCode)
		return &APIError{Kind: RequestFailed, StatusCode: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Kind: MappingError, StatusCode: resp.StatusCode, Reason: err.Error(), Err: err}
	}
	return nil
}

// Assembly registers a Fetcher and a *Provider configured with baseURL.
// An empty baseURL leaves the provider unconfigured.
func Assembly(baseURL string, opts ...Option) sdkcommon.Assembly {
	return sdkcommon.AssemblyFunc(func(c *sdkcommon.Container) error {
		err := sdkcommon.Register(c, func(*sdkcommon.ResolveCtx) (Fetcher, error) {
			return NewHTTPFetcher(opts...), nil
		})
		if err != nil {
			return err
		}

		return sdkcommon.Register(c, func(*sdkcommon.ResolveCtx) (*Provider, error) {
			p := NewProvider(opts...)
			if baseURL == "" {
				return p, nil
			}
			return p, p.ConfigureBaseURL(baseURL)
		}, sdkcommon.As(sdkcommon.Singleton))
	})
}
