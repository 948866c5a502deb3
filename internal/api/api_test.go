package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/fleetglass/fleetglass/internal/api"
	"github.com/fleetglass/fleetglass/internal/store"
	"github.com/fleetglass/fleetglass/internal/telemetry"
)

// --- helpers ----------------------------------------------------------------

func newServer(t *testing.T, st *store.Store, path string, clock clockwork.Clock) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(api.New(st, path, clock))
	t.Cleanup(srv.Close)
	return srv
}

func populate(t *testing.T, st *store.Store, raw string) {
	t.Helper()
	snap, frame, err := telemetry.Decode([]byte(raw), time.Unix(1714000000, 0))
	if err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
	st.Update(snap, frame)
}

func getJSON(t *testing.T, url string, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

// --- tests ------------------------------------------------------------------

func TestTelemetry_FullSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClock()
	st := store.New(clock)
	populate(t, st, `{"vehicles":[1,2],"lines":[],"timestamp":5}`)
	srv := newServer(t, st, "telemetry.json", clock)

	var snap map[string]any
	getJSON(t, srv.URL+"/api/telemetry", &snap)

	if got, ok := snap["vehicles"].([]any); !ok || len(got) != 2 {
		t.Errorf("vehicles: got %v, want 2 entries", snap["vehicles"])
	}
}

func TestTelemetry_EmptyStore(t *testing.T) {
	clock := clockwork.NewFakeClock()
	srv := newServer(t, store.New(clock), "telemetry.json", clock)

	var snap map[string]any
	getJSON(t, srv.URL+"/api/telemetry", &snap)

	if len(snap) != 0 {
		t.Errorf("empty store: got %v, want {}", snap)
	}
}

func TestListEndpoints(t *testing.T) {
	clock := clockwork.NewFakeClock()
	st := store.New(clock)
	populate(t, st, `{"vehicles":[1,2],"stations":[{"id":1}],"timestamp":5}`)
	srv := newServer(t, st, "telemetry.json", clock)

	cases := []struct {
		path string
		want int
	}{
		{"/api/vehicles", 2},
		{"/api/lines", 0}, // absent field serves an empty array
		{"/api/stations", 1},
	}
	for _, c := range cases {
		t.Run(c.path, func(t *testing.T) {
			var list []any
			getJSON(t, srv.URL+c.path, &list)
			if len(list) != c.want {
				t.Errorf("%s: got %d entries, want %d", c.path, len(list), c.want)
			}
		})
	}
}

func TestStats(t *testing.T) {
	clock := clockwork.NewFakeClock()
	st := store.New(clock)
	populate(t, st, `{"stats":{"money":1000},"game_time":"year 1905","timestamp":7}`)
	srv := newServer(t, st, "telemetry.json", clock)

	var resp struct {
		Stats      map[string]any `json:"stats"`
		LastUpdate float64        `json:"last_update"`
		GameTime   any            `json:"game_time"`
		Timestamp  any            `json:"timestamp"`
	}
	getJSON(t, srv.URL+"/api/stats", &resp)

	if resp.Stats["money"] != 1000.0 {
		t.Errorf("stats.money: got %v, want 1000", resp.Stats["money"])
	}
	if resp.GameTime != "year 1905" {
		t.Errorf("game_time: got %v, want year 1905", resp.GameTime)
	}
	if resp.Timestamp != 7.0 {
		t.Errorf("timestamp: got %v, want 7", resp.Timestamp)
	}
	if resp.LastUpdate == 0 {
		t.Error("last_update: got 0 after an update")
	}
}

func TestStats_EmptyStore(t *testing.T) {
	clock := clockwork.NewFakeClock()
	srv := newServer(t, store.New(clock), "telemetry.json", clock)

	var resp struct {
		Stats      map[string]any `json:"stats"`
		LastUpdate float64        `json:"last_update"`
	}
	getJSON(t, srv.URL+"/api/stats", &resp)

	if resp.Stats == nil || len(resp.Stats) != 0 {
		t.Errorf("stats: got %v, want {}", resp.Stats)
	}
	if resp.LastUpdate != 0 {
		t.Errorf("last_update: got %v, want 0", resp.LastUpdate)
	}
}

func TestHealth(t *testing.T) {
	clock := clockwork.NewFakeClock()
	st := store.New(clock)
	populate(t, st, `{"timestamp":1}`)
	clock.Advance(90 * time.Second)

	path := filepath.Join(t.TempDir(), "telemetry.json")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	srv := newServer(t, st, path, clock)

	var resp struct {
		Status               string   `json:"status"`
		TelemetryPath        string   `json:"telemetry_path"`
		FileExists           bool     `json:"file_exists"`
		LastUpdateAgeSeconds *float64 `json:"last_update_age_seconds"`
	}
	getJSON(t, srv.URL+"/api/health", &resp)

	if resp.Status != "ok" {
		t.Errorf("status: got %q, want ok", resp.Status)
	}
	if resp.TelemetryPath != path {
		t.Errorf("telemetry_path: got %q, want %q", resp.TelemetryPath, path)
	}
	if !resp.FileExists {
		t.Error("file_exists: got false, want true")
	}
	if resp.LastUpdateAgeSeconds == nil || *resp.LastUpdateAgeSeconds != 90 {
		t.Errorf("last_update_age_seconds: got %v, want 90", resp.LastUpdateAgeSeconds)
	}
}

func TestHealth_NoFileNoUpdate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	srv := newServer(t, store.New(clock), "/nonexistent/telemetry.json", clock)

	var resp struct {
		FileExists           bool     `json:"file_exists"`
		LastUpdateAgeSeconds *float64 `json:"last_update_age_seconds"`
	}
	getJSON(t, srv.URL+"/api/health", &resp)

	if resp.FileExists {
		t.Error("file_exists: got true for missing file")
	}
	if resp.LastUpdateAgeSeconds != nil {
		t.Errorf("last_update_age_seconds: got %v, want null", *resp.LastUpdateAgeSeconds)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	clock := clockwork.NewFakeClock()
	srv := newServer(t, store.New(clock), "telemetry.json", clock)

	resp, err := http.Post(srv.URL+"/api/telemetry", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}
