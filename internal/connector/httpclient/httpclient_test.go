package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func noDelay(int) time.Duration { return 0 }

func TestGetJSON_DecodesServices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/services" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"svc-1","name":"checkout"}]`))
	}))
	defer srv.Close()

	var dest []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := New(srv.URL+"/", "tok").GetJSON(context.Background(), "/api/services", nil, &dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dest) != 1 || dest[0].Name != "checkout" {
		t.Fatalf("unexpected result: %+v", dest)
	}
}

func TestGetJSON_Credentials(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		opts       []Option
		wantAuth   string
		wantCookie string
	}{
		{"bearer", "jwt-123", nil, "Bearer jwt-123", ""},
		{"cookie only", "", []Option{WithCookie("better-auth.session_token", "sess")}, "", "sess"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth, gotCookie string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				if ck, err := r.Cookie("better-auth.session_token"); err == nil {
					gotCookie = ck.Value
				}
				w.Write([]byte(`{}`))
			}))
			defer srv.Close()

			if err := New(srv.URL, tt.token, tt.opts...).GetJSON(context.Background(), "/", nil, &struct{}{}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotAuth != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", gotAuth, tt.wantAuth)
			}
			if gotCookie != tt.wantCookie {
				t.Errorf("cookie = %q, want %q", gotCookie, tt.wantCookie)
			}
		})
	}
}

func TestGetJSON_QueryParams(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	q := url.Values{"owner": {"me"}, "active": {"true"}}
	if err := New(srv.URL, "tok").GetJSON(context.Background(), "/api/services", q, &struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "active=true&owner=me" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
}

func TestGetJSON_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer srv.Close()

	err := New(srv.URL, "tok").GetJSON(context.Background(), "/api/services", nil, &struct{}{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", apiErr.StatusCode)
	}
	if apiErr.Body != `{"error":"unauthorized"}` {
		t.Fatalf("unexpected body: %q", apiErr.Body)
	}
}

func TestGetJSON_RetriesTransientFailures(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway} {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(status)
				return
			}
			w.Write([]byte(`{"token":"ok"}`))
		}))

		var dest struct {
			Token string `json:"token"`
		}
		err := New(srv.URL, "", WithBackoff(noDelay)).GetJSON(context.Background(), "/", nil, &dest)
		srv.Close()
		if err != nil {
			t.Fatalf("status %d: unexpected error: %v", status, err)
		}
		if dest.Token != "ok" || calls.Load() != 2 {
			t.Fatalf("status %d: token=%q calls=%d", status, dest.Token, calls.Load())
		}
	}
}

func TestGetJSON_MaxRetriesExceeded(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := New(srv.URL, "tok", WithBackoff(noDelay)).GetJSON(context.Background(), "/", nil, &struct{}{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 APIError, got %v", err)
	}
	// 1 initial + 3 retries
	if calls.Load() != 4 {
		t.Fatalf("expected 4 calls, got %d", calls.Load())
	}
}

func TestGetJSON_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(srv.URL, "tok").GetJSON(ctx, "/", nil, &struct{}{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGetJSON_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	if err := New(srv.URL, "").GetJSON(context.Background(), "/", nil, &struct{}{}); err == nil {
		t.Fatal("expected decode error")
	}
}
