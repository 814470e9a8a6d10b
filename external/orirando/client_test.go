package orirando

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/rando-league/internal/domain/seed"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/riskibarqy/rando-league/internal/platform/resilience"
	"github.com/riskibarqy/rando-league/internal/usecase"
)

const sampleSeed = "Standard,Clues,ForceTrees|42\nline two\n"

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		Logger:     logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
		},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, srv
}

func TestClient_GenerateSeed(t *testing.T) {
	t.Parallel()

	var gotQuery string
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generator/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = r.URL.RawQuery
		w.Header().Set("content-type", "application/json")
		_, _ = w.Write([]byte(`{"players":[{"seed":"Standard,Clues,ForceTrees|42\nline two\n","spoiler_url":"/spoiler?seed=42"}],"map_url":"/map?seed=42","history_url":"https://cdn.example/history/42"}`))
	})

	artifact, err := client.GenerateSeed(context.Background(), seed.Options{SeedName: "42"}.WithDefaults())
	if err != nil {
		t.Fatalf("generate seed: %v", err)
	}

	if artifact.SeedName != "42" {
		t.Fatalf("seed name = %q", artifact.SeedName)
	}
	if artifact.Header != "Standard,Clues,ForceTrees|42" {
		t.Fatalf("header = %q", artifact.Header)
	}
	if artifact.SpoilerURL != srv.URL+"/spoiler?seed=42" {
		t.Fatalf("spoiler url = %q", artifact.SpoilerURL)
	}
	if artifact.MapURL != srv.URL+"/map?seed=42" {
		t.Fatalf("map url = %q", artifact.MapURL)
	}
	if artifact.HistoryURL != "https://cdn.example/history/42" {
		t.Fatalf("history url = %q", artifact.HistoryURL)
	}
	if string(artifact.File) != sampleSeed {
		t.Fatalf("file = %q", artifact.File)
	}
	if gotQuery == "" {
		t.Fatalf("expected query to be sent")
	}
}

func TestClient_GenerateSeed_RejectedDoesNotTripBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "bad params", http.StatusBadRequest)
	})

	opts := seed.Options{SeedName: "1"}.WithDefaults()
	for i := 0; i < 2; i++ {
		_, err := client.GenerateSeed(context.Background(), opts)
		if !crerr.Is(err, ErrSeedRequestRejected) {
			t.Fatalf("attempt %d: expected rejected error, got %v", i+1, err)
		}
	}
	if calls.Load() != 2 {
		t.Fatalf("expected both requests to reach the server, got %d", calls.Load())
	}
}

func TestClient_GenerateSeed_ServerFailureOpensBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	})

	opts := seed.Options{SeedName: "1"}.WithDefaults()
	_, err := client.GenerateSeed(context.Background(), opts)
	if !crerr.Is(err, ErrSeedServerFailure) {
		t.Fatalf("expected server failure, got %v", err)
	}

	_, err = client.GenerateSeed(context.Background(), opts)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected dependency unavailable from open breaker, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("open breaker must short-circuit, calls=%d", calls.Load())
	}
}

func TestClient_GenerateSeed_MalformedResponse(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"players":[]}`))
	})

	if _, err := client.GenerateSeed(context.Background(), seed.Options{SeedName: "1"}.WithDefaults()); err == nil {
		t.Fatalf("expected error for empty players")
	}
}

func TestNewClient_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{BaseURL: "not a url"}); err == nil {
		t.Fatalf("expected invalid base url error")
	}
}
