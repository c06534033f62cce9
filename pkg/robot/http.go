package robot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/grumpylabs/reachy-runtime/internal/httpc"
)

// Commands must not block the 100Hz control loop for long; keep the
// hardware client timeout short.
const hardwareTimeout = 2 * time.Second

// HTTPMini implements Mini over the Reachy Mini daemon's HTTP API.
type HTTPMini struct {
	BaseURL string
	client  *http.Client
}

// NewHTTPMini creates a hardware handle for the daemon at baseURL,
// e.g. "http://192.168.68.80:8000".
func NewHTTPMini(baseURL string) *HTTPMini {
	return &HTTPMini{
		BaseURL: baseURL,
		client:  httpc.NewClient(hardwareTimeout),
	}
}

// LookAtWorld points the head at a world-space target.
func (m *HTTPMini) LookAtWorld(x, y, z, duration float64) error {
	payload := map[string]any{
		"target":   []float64{x, y, z},
		"duration": duration,
	}
	return m.post("/api/move/look_at", payload)
}

// SetTargetAntennaJointPositions sets antenna joint targets.
func (m *HTTPMini) SetTargetAntennaJointPositions(positions [2]float64) error {
	payload := map[string]any{
		"positions": []float64{positions[0], positions[1]},
	}
	return m.post("/api/move/antennas", payload)
}

// ListMoves returns the daemon's recorded-motion catalogs.
func (m *HTTPMini) ListMoves() (map[string][]string, error) {
	resp, err := m.client.Get(m.BaseURL + "/api/moves")
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("list moves: daemon returned %d: %s", resp.StatusCode, body)
	}

	var out struct {
		Moves map[string][]string `json:"moves"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("list moves: decode: %w", err)
	}
	return out.Moves, nil
}

// PlayMove plays a recorded motion from a catalog.
func (m *HTTPMini) PlayMove(catalog, name string, initialGotoDuration float64) error {
	payload := map[string]any{
		"catalog":               catalog,
		"name":                  name,
		"initial_goto_duration": initialGotoDuration,
	}
	return m.post("/api/moves/play", payload)
}

// post sends a JSON command to the daemon.
func (m *HTTPMini) post(path string, payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", path, err)
	}

	resp, err := m.client.Post(m.BaseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: daemon returned %d: %s", path, resp.StatusCode, body)
	}
	return nil
}

// Ensure HTTPMini implements Mini.
var _ Mini = (*HTTPMini)(nil)
