package api

// StatsResponse is the payload for GET /api/stats.
type StatsResponse struct {
	Stats      map[string]any `json:"stats"`
	LastUpdate float64        `json:"last_update"` // epoch seconds, 0 if never
	GameTime   any            `json:"game_time"`
	Timestamp  any            `json:"timestamp"`
}

// HealthResponse is the payload for GET /api/health.
type HealthResponse struct {
	Status               string   `json:"status"`
	TelemetryPath        string   `json:"telemetry_path"`
	FileExists           bool     `json:"file_exists"`
	LastUpdateAgeSeconds *float64 `json:"last_update_age_seconds"` // null before first update
	Subscribers          int      `json:"subscribers"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
