// Package ws serves the push protocol over WebSocket.
//
// Each connection runs one session goroutine. On connect the session
// subscribes to the store and immediately sends the current snapshot frame if
// one exists, so a new client is never behind clients that connected earlier.
// It then relays every broadcast frame; after 30 seconds without one it sends
// an application-level keepalive instead:
//
//	{"type": "ping", "ts": <wall-clock-seconds>}
//
// The protocol is server-to-client only. The session ends on peer disconnect
// or write failure, which always unsubscribes its channel from the store.
package ws
