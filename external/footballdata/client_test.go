package footballdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/predictions-league/internal/platform/logging"
	"github.com/riskibarqy/predictions-league/internal/platform/resilience"
	"github.com/riskibarqy/predictions-league/internal/usecase"
)

func TestClientFetchResults_MapsFinishedRows(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gameweeks/12/results" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("api_token"); got != "secret-token" {
			t.Fatalf("unexpected api_token: %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"home_team":" Arsenal ","away_team":"Chelsea","home_score":2,"away_score":1,"status":"FINISHED"},
			{"home_team":"Leeds","away_team":"Derby","home_score":1,"away_score":0,"status":"LIVE"},
			{"home_team":"Villa","away_team":"Spurs","home_score":3,"status":"FT"},
			{"home_team":"Everton","away_team":"Fulham","home_score":0,"away_score":0,"status":"full_time"},
			{"home_team":"","away_team":"Wolves","home_score":1,"away_score":1,"status":"FINISHED"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		Token:          "secret-token",
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	results, err := client.FetchResults(context.Background(), 12)
	if err != nil {
		t.Fatalf("fetch results failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected two settled results, got=%d", len(results))
	}

	if results[0].HomeTeam != "Arsenal" || results[0].AwayTeam != "Chelsea" {
		t.Fatalf("unexpected first pairing: %s vs %s", results[0].HomeTeam, results[0].AwayTeam)
	}
	if results[0].Score.Home != 2 || results[0].Score.Away != 1 {
		t.Fatalf("unexpected first score: %+v", results[0].Score)
	}
	if results[1].HomeTeam != "Everton" || results[1].AwayTeam != "Fulham" {
		t.Fatalf("unexpected second pairing: %s vs %s", results[1].HomeTeam, results[1].AwayTeam)
	}
	if results[1].Score.Home != 0 || results[1].Score.Away != 0 {
		t.Fatalf("unexpected second score: %+v", results[1].Score)
	}
}

func TestClientFetchResults_RejectsNonPositiveGameweek(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{
		BaseURL:        "http://127.0.0.1:0",
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	if _, err := client.FetchResults(context.Background(), 0); err == nil {
		t.Fatal("expected error for gameweek zero")
	}
}

func TestClientFetchResults_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"home_team":"Brentford","away_team":"Luton","home_score":4,"away_score":2,"status":"FINISHED"}]}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		Token:          "secret-token",
		MaxRetries:     1,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	results, err := client.FetchResults(context.Background(), 3)
	if err != nil {
		t.Fatalf("fetch results failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got=%d", len(results))
	}
	if calls.Load() != 2 {
		t.Fatalf("expected retry after server error, got calls=%d", calls.Load())
	}
}

func TestClientFetchResults_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"unknown gameweek"}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		Token:          "secret-token",
		MaxRetries:     3,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	if _, err := client.FetchResults(context.Background(), 99); err == nil {
		t.Fatal("expected error for not-found gameweek")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retry on client error, got calls=%d", calls.Load())
	}
}

func TestClientFetchResults_CircuitBreaksAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		Token:      "secret-token",
		Logger:     logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 1,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		},
	})

	if _, err := client.FetchResults(context.Background(), 5); err == nil {
		t.Fatal("expected error from failing provider")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call before breaker opened, got=%d", calls.Load())
	}

	_, err := client.FetchResults(context.Background(), 5)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable from open breaker, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected open breaker to skip the provider, got calls=%d", calls.Load())
	}
}

func TestClientFetchResults_DeduplicatesConcurrentFetches(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"home_team":"Brighton","away_team":"Palace","home_score":1,"away_score":1,"status":"FINISHED"}]}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{
		HTTPClient:     srv.Client(),
		BaseURL:        srv.URL,
		Token:          "secret-token",
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results, err := client.FetchResults(context.Background(), 7)
			if err != nil {
				t.Errorf("fetch results failed: %v", err)
				return
			}
			if len(results) != 1 {
				t.Errorf("expected one result, got=%d", len(results))
			}
		}()
	}
	close(start)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected concurrent fetches to share one upstream call, got=%d", calls.Load())
	}
}

func TestRedactAPIURL_MasksToken(t *testing.T) {
	t.Parallel()

	redacted := redactAPIURL("https://provider.test/v1/gameweeks/1/results?api_token=secret&foo=bar")
	if redacted != "https://provider.test/v1/gameweeks/1/results?api_token=REDACTED&foo=bar" {
		t.Fatalf("unexpected redacted url: %s", redacted)
	}
}

func TestSanitizeSensitiveText_ReplacesTokenOccurrences(t *testing.T) {
	t.Parallel()

	got := sanitizeSensitiveText(`dial failed: https://provider.test?api_token=secret token secret`, "secret")
	if got != `dial failed: https://provider.test?api_token=REDACTED token REDACTED` {
		t.Fatalf("unexpected sanitized text: %s", got)
	}
}
