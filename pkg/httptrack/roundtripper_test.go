package httptrack

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestTrackerCountsInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tracker := NewTracker(prometheus.NewRegistry())
	client := &http.Client{Transport: tracker.Wrap(nil)}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := client.Get(server.URL)
		if err != nil {
			t.Errorf("request failed: %v", err)
			return
		}
		resp.Body.Close()
	}()

	<-started
	if !tracker.Busy() {
		t.Fatalf("expected tracker busy while request in flight")
	}
	if tracker.InFlight() != 1 {
		t.Fatalf("expected 1 in flight, got %d", tracker.InFlight())
	}

	close(release)
	wg.Wait()

	if tracker.InFlight() != 0 {
		t.Fatalf("expected 0 in flight after completion, got %d", tracker.InFlight())
	}
}

func TestNilTrackerPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var tracker *Tracker
	client := &http.Client{Transport: tracker.Wrap(nil)}
	resp, err := client.Get(server.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
}
