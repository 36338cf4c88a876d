package odds

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchUpcomingRequestShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sports/soccer_epl/odds" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("apiKey") != "test-key" {
			t.Errorf("expected apiKey 'test-key', got %q", q.Get("apiKey"))
		}
		if q.Get("regions") != "uk" {
			t.Errorf("expected regions 'uk', got %q", q.Get("regions"))
		}
		if q.Get("markets") != "h2h" {
			t.Errorf("market must be fixed to h2h, got %q", q.Get("markets"))
		}
		w.Write([]byte(`[{"id":"m1","sport_key":"soccer_epl","commence_time":"2026-09-01T15:00:00Z","home_team":"Arsenal","away_team":"Chelsea","bookmakers":[]}]`))
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.baseURL = server.URL

	events, err := client.FetchUpcoming(context.Background(), "soccer_epl", "uk")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].HomeTeam != "Arsenal" {
		t.Errorf("expected home team 'Arsenal', got %q", events[0].HomeTeam)
	}
}

func TestFetchUpcomingMissingKey(t *testing.T) {
	client := NewClient("")
	_, err := client.FetchUpcoming(context.Background(), "soccer_epl", "us")
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestFetchUpcomingServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"internal"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.baseURL = server.URL

	_, err := client.FetchUpcoming(context.Background(), "soccer_epl", "us")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestFetchUpcomingBadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.baseURL = server.URL

	_, err := client.FetchUpcoming(context.Background(), "soccer_epl", "us")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestFetchUpcomingDeadline(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := NewClient("test-key")
	client.baseURL = server.URL

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.FetchUpcoming(ctx, "soccer_epl", "us")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	// Cancellation must abort the connection, not wait out the server.
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("request was not aborted promptly: %v", elapsed)
	}
}
