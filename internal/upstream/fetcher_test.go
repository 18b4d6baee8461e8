package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

type payload struct {
	Name string `json:"name"`
}

func TestGetJSON_DecodesAndForwardsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-test-key"); got != "secret" {
			t.Errorf("x-test-key = %q, want secret", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer srv.Close()

	f := NewFetcher("test-decode", time.Second)
	var out payload
	err := f.GetJSON(context.Background(), "test call", srv.URL, http.Header{"X-Test-Key": {"secret"}}, &out)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.Name != "ok" {
		t.Errorf("Name = %q, want ok", out.Name)
	}
}

func TestGetJSON_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
	}{
		{
			name: "non-2xx status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"Error":"Invalid API key!"}`))
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"name":`))
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
				_, _ = w.Write([]byte(`{}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			f := NewFetcher("test-failures", 100*time.Millisecond)
			var out payload
			err := f.GetJSON(context.Background(), "metadata lookup by id", srv.URL+"/?apikey=topsecret", nil, &out)

			var uerr *Error
			if !errors.As(err, &uerr) {
				t.Fatalf("GetJSON() error = %v, want *Error", err)
			}
			if uerr.Purpose != "metadata lookup by id" {
				t.Errorf("Purpose = %q", uerr.Purpose)
			}
			if uerr.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", uerr.Status, tt.wantStatus)
			}
			if strings.Contains(err.Error(), "topsecret") {
				t.Errorf("error leaks the API key: %v", err)
			}
		})
	}
}

func TestGetJSON_TransportErrorHidesURL(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := NewFetcher("test-transport", time.Second)
	err := f.GetJSON(context.Background(), "streaming availability lookup", addr+"/?apikey=topsecret", nil, &payload{})
	if !IsError(err) {
		t.Fatalf("GetJSON() error = %v, want *Error", err)
	}
	if strings.Contains(err.Error(), "topsecret") {
		t.Errorf("error leaks the API key: %v", err)
	}
}

func TestGetJSON_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewFetcher("test-breaker", time.Second)
	for i := 0; i < 11; i++ {
		_ = f.GetJSON(context.Background(), "test call", srv.URL, nil, &payload{})
	}

	if f.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", f.State())
	}

	before := calls.Load()
	err := f.GetJSON(context.Background(), "test call", srv.URL, nil, &payload{})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("GetJSON() error = %v, want ErrOpenState", err)
	}
	if !IsError(err) {
		t.Error("rejected call should still surface as *Error")
	}
	if calls.Load() != before {
		t.Errorf("open circuit still reached the provider (%d calls)", calls.Load()-before)
	}
}
