// Package watcher detects changes to the telemetry file and publishes the
// result into the store.
//
// The watcher observes the file's containing directory (the export mod
// replaces the file, which would detach a watch on the file itself). On a
// write or create event for the target file it coalesces duplicate OS
// notifications by modification time, pauses briefly so an in-progress write
// can finish, re-reads the file and publishes the decoded snapshot. Empty
// content, read errors and malformed JSON all leave the store untouched.
//
// Run supervises the watch loop for the process lifetime: when the underlying
// fsnotify watcher dies, Run restarts it with bounded exponential backoff.
package watcher
