// Package api implements the pull-style HTTP accessors over the snapshot
// store.
//
// Endpoints (all GET):
//   - /api/telemetry — the full current snapshot
//   - /api/vehicles  — the vehicles sequence only
//   - /api/lines     — the lines sequence only
//   - /api/stations  — the stations sequence only
//   - /api/stats     — summary stats plus update/game-time metadata
//   - /api/health    — process health and telemetry file status
//
// Every handler reads a copy of the store state; none of them can observe a
// partially applied update.
package api
