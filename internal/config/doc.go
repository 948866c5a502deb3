// Package config loads the server configuration from the `server:` section
// of an optional YAML file, then applies environment overrides.
//
// Config fields:
//   - Host           — bind address (default 127.0.0.1)
//   - Port           — HTTP port for API, push endpoint and metrics (default 8765)
//   - TelemetryPath  — path of the telemetry file to watch (default telemetry.json)
//   - Log.Level      — debug | info | warn | error (default info)
//   - Log.Format     — json | text (default json)
//
// Environment overrides, matching the export mod's launcher scripts:
// FLEETGLASS_HOST, FLEETGLASS_PORT, FLEETGLASS_TELEMETRY_PATH,
// FLEETGLASS_LOG_LEVEL.
//
// Load("") is valid and returns defaults plus environment.
package config
