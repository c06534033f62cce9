package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestMemoryBridge_PostsObservationDocument(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"chunks": 3})
	}))
	defer srv.Close()

	bridge := NewMemoryBridge(srv.URL)
	ev := ObservationEvent{
		ID:        "obs-abc123",
		CreatedAt: time.Now().UTC(),
		Summary:   "robot is idle",
		Source:    "reachy_observer",
	}

	chunks, err := bridge.StoreObservation(ev)
	if err != nil {
		t.Fatalf("StoreObservation: %v", err)
	}
	if chunks != 3 {
		t.Errorf("chunks: got %d, want 3", chunks)
	}
	if received["id"] != "obs-abc123" {
		t.Errorf("id: got %v", received["id"])
	}
	if received["text"] != "robot is idle" {
		t.Errorf("text: got %v", received["text"])
	}
	if received["source_type"] != "reachy_observation" {
		t.Errorf("source_type: got %v", received["source_type"])
	}
}

func TestMemoryBridge_MissingChunkCountIsNotAFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	bridge := NewMemoryBridge(srv.URL)
	chunks, err := bridge.StoreObservation(NewObservationEvent("hello"))
	if err != nil {
		t.Fatalf("StoreObservation: %v", err)
	}
	if chunks != 1 {
		t.Errorf("chunks: got %d, want 1", chunks)
	}
}

func TestMemoryBridge_ServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	bridge := NewMemoryBridge(srv.URL)
	if _, err := bridge.StoreObservation(NewObservationEvent("hello")); err == nil {
		t.Error("expected an error on 503")
	}
}
