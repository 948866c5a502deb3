package api

import (
	"encoding/json"
	"math"
	"net/http"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/fleetglass/fleetglass/internal/store"
	"github.com/fleetglass/fleetglass/internal/telemetry"
)

// Handler is the HTTP handler for all /api/* endpoints.
type Handler struct {
	store *store.Store
	path  string // telemetry file path, reported by /api/health
	clock clockwork.Clock
	mux   *http.ServeMux
}

// New creates a Handler over st and registers all routes. telemetryPath is
// only reported, never read — all file access goes through the watcher.
func New(st *store.Store, telemetryPath string, clock clockwork.Clock) http.Handler {
	h := &Handler{store: st, path: telemetryPath, clock: clock, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/telemetry", h.telemetry)
	h.mux.HandleFunc("/api/vehicles", h.vehicles)
	h.mux.HandleFunc("/api/lines", h.lines)
	h.mux.HandleFunc("/api/stations", h.stations)
	h.mux.HandleFunc("/api/stats", h.stats)
	h.mux.HandleFunc("/api/health", h.health)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// telemetry returns GET /api/telemetry — the full current snapshot.
func (h *Handler) telemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	snap := h.store.Get()
	if snap == nil {
		snap = telemetry.Snapshot{}
	}
	jsonResp(w, http.StatusOK, snap)
}

// vehicles returns GET /api/vehicles — only the vehicles sequence.
func (h *Handler) vehicles(w http.ResponseWriter, r *http.Request) {
	h.listField(w, r, telemetry.Snapshot.Vehicles)
}

// lines returns GET /api/lines — only the lines sequence.
func (h *Handler) lines(w http.ResponseWriter, r *http.Request) {
	h.listField(w, r, telemetry.Snapshot.Lines)
}

// stations returns GET /api/stations — only the stations sequence.
func (h *Handler) stations(w http.ResponseWriter, r *http.Request) {
	h.listField(w, r, telemetry.Snapshot.Stations)
}

func (h *Handler) listField(w http.ResponseWriter, r *http.Request, field func(telemetry.Snapshot) []any) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	list := field(h.store.Get())
	if list == nil {
		list = []any{}
	}
	jsonResp(w, http.StatusOK, list)
}

// stats returns GET /api/stats — summary statistics and update metadata.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap := h.store.Get()
	resp := StatsResponse{
		Stats:     snap.Stats(),
		GameTime:  snap.GameTime(),
		Timestamp: snap.Timestamp(),
	}
	if resp.Stats == nil {
		resp.Stats = map[string]any{}
	}
	if lu := h.store.LastUpdate(); !lu.IsZero() {
		resp.LastUpdate = float64(lu.UnixMilli()) / 1000
	}
	jsonResp(w, http.StatusOK, resp)
}

// health returns GET /api/health — process and telemetry file status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	_, statErr := os.Stat(h.path)
	resp := HealthResponse{
		Status:        "ok",
		TelemetryPath: h.path,
		FileExists:    statErr == nil,
		Subscribers:   h.store.SubscriberCount(),
	}
	if lu := h.store.LastUpdate(); !lu.IsZero() {
		age := math.Round(h.clock.Since(lu).Seconds()*10) / 10
		resp.LastUpdateAgeSeconds = &age
	}
	jsonResp(w, http.StatusOK, resp)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
