package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient() *Client {
	return NewClient(ClientConfig{Timeout: 5 * time.Second})
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(ClientConfig{})
	defer c.Close()
	if c.http.Timeout != 30*time.Second {
		t.Errorf("timeout: got %v, want 30s", c.http.Timeout)
	}
	if c.userAgent != DefaultUserAgent {
		t.Errorf("user agent: got %q, want %q", c.userAgent, DefaultUserAgent)
	}
	if c.limiter.Burst() != 1 {
		t.Errorf("burst: got %d, want 1", c.limiter.Burst())
	}
}

func TestGetJSONSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent: got %q, want %q", got, "test-agent")
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("X-Api-Key: got %q, want %q", got, "secret")
		}
		w.Write([]byte(`{"value": 42}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{UserAgent: "test-agent", RequestsPerSecond: 100, Burst: 5})
	defer c.Close()

	var out struct {
		Value int `json:"value"`
	}
	if err := c.getJSON(context.Background(), srv.URL, map[string]string{"X-Api-Key": "secret"}, &out); err != nil {
		t.Fatalf("getJSON: %v", err)
	}
	if out.Value != 42 {
		t.Errorf("value: got %d, want 42", out.Value)
	}
}

func TestGetErrors(t *testing.T) {
	long := strings.Repeat("x", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(long))
		case "/garbage":
			w.Write([]byte("not json"))
		}
	}))
	defer srv.Close()

	c := newTestClient()
	defer c.Close()
	ctx := context.Background()

	var v any
	if err := c.getJSON(ctx, srv.URL+"/limited", nil, &v); !errors.Is(err, ErrRateLimited) {
		t.Errorf("429: got %v, want ErrRateLimited", err)
	}

	err := c.getJSON(ctx, srv.URL+"/broken", nil, &v)
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("500: got %v, want *ErrHTTP", err)
	}
	if httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", httpErr.StatusCode)
	}
	if len(httpErr.Body) != 1024 {
		t.Errorf("body snippet: got %d bytes, want 1024", len(httpErr.Body))
	}

	if err := c.getJSON(ctx, srv.URL+"/garbage", nil, &v); err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Errorf("garbage: got %v, want decode error", err)
	}
}

func TestGetCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient()
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var v any
	if err := c.getJSON(ctx, srv.URL, nil, &v); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
