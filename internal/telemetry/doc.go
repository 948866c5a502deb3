// Package telemetry defines the Snapshot document produced by the simulation
// export mod and the decoder that turns raw file contents into one.
//
// A Snapshot is an opaque JSON object. The server recognizes a handful of
// top-level keys (vehicles, lines, stations, stats, game_time, timestamp) but
// otherwise passes the document through untouched, so newer export mods can
// add fields without a server change.
//
// Decode parses, validates and enriches in one step: a document without a
// truthy timestamp gets the current wall-clock time injected, because the
// export mod runs inside the game sandbox and cannot always read a real
// clock. The returned frame is the single canonical serialization of the
// enriched document — it is stored and broadcast as-is, never re-encoded per
// subscriber.
package telemetry
