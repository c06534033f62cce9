package observer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/grumpylabs/reachy-runtime/internal/httpc"
)

// MemoryStore receives accepted observations.
type MemoryStore interface {
	// StoreObservation indexes one observation and returns the number of
	// chunks written.
	StoreObservation(event ObservationEvent) (int, error)
}

// MemoryBridge delivers observations to an external memory index over HTTP.
type MemoryBridge struct {
	url    string
	client *http.Client
}

// NewMemoryBridge creates a bridge posting to the given index endpoint.
func NewMemoryBridge(url string) *MemoryBridge {
	return &MemoryBridge{
		url:    url,
		client: httpc.NewClient(10 * time.Second),
	}
}

// StoreObservation posts one observation document to the index.
func (b *MemoryBridge) StoreObservation(event ObservationEvent) (int, error) {
	doc := map[string]any{
		"id":          event.ID,
		"title":       fmt.Sprintf("Reachy observation %s", event.CreatedAt.Format(time.RFC3339)),
		"text":        event.Summary,
		"source_type": "reachy_observation",
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("marshal observation: %w", err)
	}

	resp, err := b.client.Post(b.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("post observation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("memory index returned %d: %s", resp.StatusCode, raw)
	}

	var out struct {
		Chunks int `json:"chunks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Index accepted the document; a missing count is not a failure.
		return 1, nil
	}
	return out.Chunks, nil
}

// NopMemory discards observations. Used when no index is configured.
type NopMemory struct{}

// StoreObservation discards the event.
func (NopMemory) StoreObservation(ObservationEvent) (int, error) { return 0, nil }
