package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	sdkcommon "github.com/sdkcommon/sdkcommon-go"
)

type movie struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	r := mux.NewRouter()
	r.HandleFunc("/v1/movies/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		if id == "missing" {
			http.NotFound(w, req)
			return
		}
		json.NewEncoder(w).Encode(movie{ID: id, Title: "Movie " + id})
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/movies", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "expected json", http.StatusUnsupportedMediaType)
			return
		}
		if req.Header.Get("X-Token") != "secret" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(movie{ID: "new", Title: body["title"].(string)})
	}).Methods(http.MethodPost)

	r.HandleFunc("/v1/garbage", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("not json"))
	})

	r.HandleFunc("/v1/movies/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func quiet() Option {
	return WithLogger(slog.New(slog.DiscardHandler))
}

func TestHTTPFetcher_Get(t *testing.T) {
	srv := newTestServer(t)
	f := NewHTTPFetcher(quiet(), WithHTTPClient(srv.Client()))

	m, err := Get[movie](context.Background(), f, srv.URL+"/v1/movies/42")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if m.ID != "42" || m.Title != "Movie 42" {
		t.Errorf("unexpected movie %+v", m)
	}
}

func TestHTTPFetcher_NotFound(t *testing.T) {
	srv := newTestServer(t)
	f := NewHTTPFetcher(quiet())

	_, err := Get[movie](context.Background(), f, srv.URL+"/v1/movies/missing")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Kind != RequestFailed || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected error %+v", apiErr)
	}
}

func TestHTTPFetcher_MappingError(t *testing.T) {
	srv := newTestServer(t)
	f := NewHTTPFetcher(quiet())

	_, err := Get[movie](context.Background(), f, srv.URL+"/v1/garbage")
	if !errors.Is(err, &APIError{Kind: MappingError}) {
		t.Errorf("expected mapping error, got %v", err)
	}
}

func TestHTTPFetcher_TransportError(t *testing.T) {
	srv := newTestServer(t)
	url := srv.URL
	srv.Close()

	_, err := Get[movie](context.Background(), NewHTTPFetcher(quiet()), url+"/v1/movies/1")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != RequestFailed || apiErr.StatusCode != -1 {
		t.Errorf("expected transport failure, got %v", err)
	}
}

func TestProvider_ConfigureBaseURL(t *testing.T) {
	p := NewProvider(quiet())

	for _, bad := range []string{"", "not a url", "/relative", "://missing"} {
		if err := p.ConfigureBaseURL(bad); !errors.Is(err, &APIError{Kind: BadURL}) {
			t.Errorf("%q: expected bad url, got %v", bad, err)
		}
	}
	if p.BaseURL() != "" {
		t.Errorf("expected base url to stay empty, got %q", p.BaseURL())
	}

	if err := p.ConfigureBaseURL("https://api.example.com"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.BaseURL() != "https://api.example.com" {
		t.Errorf("unexpected base url %q", p.BaseURL())
	}
}

func TestProvider_Unconfigured(t *testing.T) {
	p := NewProvider(quiet())

	err := p.Do(context.Background(), Request{Path: "/movies"}, nil)
	if !errors.Is(err, &APIError{Kind: BadURL}) {
		t.Errorf("expected bad url, got %v", err)
	}
}

func TestProvider_Do(t *testing.T) {
	srv := newTestServer(t)
	p := NewProvider(quiet())
	if err := p.ConfigureBaseURL(srv.URL); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var got movie
	err := p.Do(context.Background(), Request{
		Module: "/v1",
		Path:   "/movies/7",
	}, &got)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.ID != "7" {
		t.Errorf("unexpected movie %+v", got)
	}

	var created movie
	err = p.Do(context.Background(), Request{
		Module:  "/v1",
		Path:    "/movies",
		Method:  MethodPost,
		Body:    map[string]any{"title": "Arrival"},
		Headers: map[string]string{"X-Token": "secret"},
	}, &created)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Title != "Arrival" {
		t.Errorf("unexpected created movie %+v", created)
	}

	err = p.Do(context.Background(), Request{
		Module: "/v1",
		Path:   "/movies/7",
		Method: MethodDelete,
	}, nil)
	if err != nil {
		t.Errorf("expected empty 204 to succeed, got %v", err)
	}
}

func TestProvider_HeadersForwarded(t *testing.T) {
	srv := newTestServer(t)
	p := NewProvider(quiet())
	p.ConfigureBaseURL(srv.URL)

	err := p.Do(context.Background(), Request{
		Module: "/v1",
		Path:   "/movies",
		Method: MethodPost,
		Body:   map[string]any{"title": "x"},
	}, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 without token header, got %v", err)
	}
}

func TestProvider_UnencodableBody(t *testing.T) {
	p := NewProvider(quiet())
	p.ConfigureBaseURL("https://api.example.com")

	err := p.Do(context.Background(), Request{
		Path:   "/x",
		Method: MethodPost,
		Body:   map[string]any{"ch": make(chan int)},
	}, nil)
	if !errors.Is(err, &APIError{Kind: MappingError}) {
		t.Errorf("expected mapping error, got %v", err)
	}
}

func TestAssembly(t *testing.T) {
	srv := newTestServer(t)
	c := sdkcommon.NewContainer()

	if err := c.Apply(Assembly(srv.URL, quiet())); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	p := sdkcommon.MustResolve[*Provider](c, sdkcommon.As(sdkcommon.Singleton))
	if p.BaseURL() != srv.URL {
		t.Errorf("expected configured provider, got %q", p.BaseURL())
	}

	f := sdkcommon.MustResolve[Fetcher](c)
	m, err := Get[movie](context.Background(), f, srv.URL+"/v1/movies/1")
	if err != nil || m.ID != "1" {
		t.Errorf("unexpected fetch result %+v, %v", m, err)
	}
}

func TestAssembly_BadBaseURL(t *testing.T) {
	c := sdkcommon.NewContainer()

	err := c.Apply(Assembly("nope", quiet()))
	if !errors.Is(err, &APIError{Kind: BadURL}) {
		t.Errorf("expected bad url from singleton registration, got %v", err)
	}
}
