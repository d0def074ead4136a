package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/stacks/internal/shared"
	tu "github.com/desertthunder/stacks/internal/testing"
	"golang.org/x/time/rate"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := shared.APIConfig{BaseURL: server.URL, TimeoutSeconds: 5}
	return NewClient(cfg, WithLogger(shared.NewLogger(io.Discard)))
}

func writeEnvelope(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": true, "message": "ok", "data": data})
}

func TestNewClient(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := NewClient(shared.APIConfig{})
		if c.BaseURL() != defaultBaseURL {
			t.Errorf("expected default base url, got %s", c.BaseURL())
		}
		if c.limiter != nil {
			t.Error("expected no limiter without a rate")
		}
		if c.Authenticated() {
			t.Error("expected unauthenticated client")
		}
	})

	t.Run("trailing slash and asset url", func(t *testing.T) {
		c := NewClient(shared.APIConfig{BaseURL: "https://api.example.com/"})
		if c.BaseURL() != "https://api.example.com" {
			t.Errorf("expected trimmed base url, got %s", c.BaseURL())
		}
		if c.AssetURL() != "https://api.example.com" {
			t.Errorf("expected asset url to default to base, got %s", c.AssetURL())
		}

		c = NewClient(shared.APIConfig{BaseURL: "https://api.example.com", AssetURL: "https://cdn.example.com/"})
		if c.AssetURL() != "https://cdn.example.com" {
			t.Errorf("expected configured asset url, got %s", c.AssetURL())
		}
	})

	t.Run("rate limit config builds a limiter", func(t *testing.T) {
		c := NewClient(shared.APIConfig{RateLimit: 2, Burst: 0})
		if c.limiter == nil {
			t.Fatal("expected limiter")
		}
		if c.limiter.Burst() != 1 {
			t.Errorf("expected burst of at least 1, got %d", c.limiter.Burst())
		}
	})
}

func TestDoRequest(t *testing.T) {
	ctx := context.Background()

	t.Run("unwraps the data envelope", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, []map[string]any{{"id": 1, "title": "Dune"}})
		})

		items, err := c.WithToken("tok").Books(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(items) != 1 || items[0].Title != "Dune" || items[0].ID != "1" {
			t.Errorf("unexpected items %+v", items)
		}
	})

	t.Run("decodes bare payloads", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id": "x", "name": "Fiction"}]`))
		})

		cats, err := c.Categories(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(cats) != 1 || cats[0].Name != "Fiction" {
			t.Errorf("unexpected categories %+v", cats)
		}
	})

	t.Run("sets request headers", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Request-ID") == "" {
				t.Error("expected X-Request-ID header")
			}
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("expected Accept application/json, got %s", r.Header.Get("Accept"))
			}
			if r.Method == http.MethodPost && r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
			}
			writeEnvelope(w, http.StatusOK, nil)
		})

		if err := c.ForgotPassword(ctx, "a@example.com"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("bearer token comes from the token transport", func(t *testing.T) {
		var got string
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			got = r.Header.Get("Authorization")
			writeEnvelope(w, http.StatusOK, map[string]any{"id": 7, "name": "Ada"})
		})

		user, err := c.WithToken("secret").User(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "Bearer secret" {
			t.Errorf("expected bearer header, got %q", got)
		}
		if user.Name != "Ada" {
			t.Errorf("expected user Ada, got %s", user.Name)
		}
	})

	t.Run("unauthenticated copy sends no credentials", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Error("expected no authorization header")
			}
			writeEnvelope(w, http.StatusOK, []any{})
		})

		if _, err := c.WithToken("tok").WithToken("").Categories(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("authenticated endpoints fail fast without a token", func(t *testing.T) {
		called := false
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

		_, err := c.Home(ctx)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if called {
			t.Error("expected no request to be sent")
		}
	})

	t.Run("non-2xx returns a status error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status": false, "message": "token expired"}`))
		})

		_, err := c.WithToken("old").User(ctx)
		var se *StatusError
		if !errors.As(err, &se) {
			t.Fatalf("expected *StatusError, got %T: %v", err, err)
		}
		if se.Code != http.StatusUnauthorized || se.Message != "token expired" {
			t.Errorf("unexpected status error %+v", se)
		}
		if !errors.Is(err, shared.ErrServer) || !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrServer and ErrNotAuthenticated in chain, got %v", err)
		}
	})

	t.Run("404 maps to item not found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})

		_, err := c.WithToken("tok").Book(ctx, "99")
		if !errors.Is(err, shared.ErrItemNotFound) {
			t.Errorf("expected ErrItemNotFound, got %v", err)
		}
	})

	t.Run("failed envelope on 200 is a status error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status": "error", "error": "plan unavailable"}`))
		})

		err := c.WithToken("tok").Subscribe(ctx, "3")
		var se *StatusError
		if !errors.As(err, &se) || se.Message != "plan unavailable" {
			t.Errorf("expected status error with message, got %v", err)
		}
	})

	t.Run("transport failure wraps the network sentinel", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		c := NewClient(shared.APIConfig{BaseURL: "http://example.com"}, WithHTTPClient(client),
			WithLogger(shared.NewLogger(io.Discard)))

		_, err := c.Categories(ctx)
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("transport failure through the token transport", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		c := NewClient(shared.APIConfig{BaseURL: "http://example.com"}, WithHTTPClient(client),
			WithLogger(shared.NewLogger(io.Discard)))

		_, err := c.WithToken("tok").Books(ctx)
		if !errors.Is(err, shared.ErrNetwork) {
			t.Errorf("expected ErrNetwork, got %v", err)
		}
	})

	t.Run("failed response body read", func(t *testing.T) {
		client := &http.Client{
			Transport: tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil),
		}
		c := NewClient(shared.APIConfig{BaseURL: "http://example.com"}, WithHTTPClient(client),
			WithLogger(shared.NewLogger(io.Discard)))

		_, err := c.Categories(ctx)
		if err == nil || !strings.Contains(err.Error(), "failed to read response") {
			t.Errorf("expected 'failed to read response' error, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id": {"nested": true}}]`))
		})

		_, err := c.Categories(ctx)
		if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
			t.Errorf("expected decode error, got %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, nil)
		})

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := c.Categories(cctx); err == nil {
			t.Error("expected error for canceled context")
		}
	})

	t.Run("limiter wait respects the context", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, http.StatusOK, []any{})
		})
		c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

		if _, err := c.Categories(ctx); err != nil {
			t.Fatalf("expected first request within burst, got %v", err)
		}

		cctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		defer cancel()
		_, err := c.Categories(cctx)
		if err == nil || !strings.Contains(err.Error(), "rate limiter") {
			t.Errorf("expected rate limiter error, got %v", err)
		}
	})
}
