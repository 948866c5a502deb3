package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/fleetglass/fleetglass/internal/store"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// keepaliveInterval is how long a session sits idle before sending an
	// application-level ping so intermediaries keep the connection open.
	keepaliveInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Allow all origins — callers should apply CORS at the reverse-proxy level.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// keepalive is the message sent after keepaliveInterval without an update.
type keepalive struct {
	Type string `json:"type"`
	TS   int64  `json:"ts"`
}

// Handler serves the push protocol endpoint. One session goroutine per
// connection; all state lives in the store.
type Handler struct {
	store *store.Store
	clock clockwork.Clock
}

// New creates a Handler reading frames from st.
func New(st *store.Store, clock clockwork.Clock) *Handler {
	return &Handler{store: st, clock: clock}
}

// ServeHTTP upgrades the connection to WebSocket and runs the session until
// the peer disconnects or a write fails. Blocks for the connection lifetime.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}
	defer conn.Close()

	id := uuid.New()
	slog.Info("ws: subscriber connected", "id", id, "remote", conn.RemoteAddr().String())
	h.serve(conn)
	slog.Info("ws: subscriber disconnected", "id", id)
}

// serve relays broadcast frames to conn, synthesizing a keepalive on idle
// timeout. Returning always unsubscribes the session's channel.
func (h *Handler) serve(conn *websocket.Conn) {
	ch := h.store.Subscribe()
	defer h.store.Unsubscribe(ch)

	// The read side only detects the peer going away; no client-initiated
	// messages are interpreted.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Cold-start delivery: a fresh session gets the current snapshot before
	// waiting on its channel.
	if frame := h.store.Frame(); frame != nil {
		if err := write(conn, frame); err != nil {
			return
		}
	}

	idle := h.clock.NewTimer(keepaliveInterval)
	defer idle.Stop()

	for {
		select {
		case <-closed:
			return

		case frame := <-ch:
			if err := write(conn, frame); err != nil {
				return
			}

		case <-idle.Chan():
			ping, err := json.Marshal(keepalive{Type: "ping", TS: h.clock.Now().Unix()})
			if err != nil {
				return
			}
			if err := write(conn, ping); err != nil {
				return
			}
		}

		if !idle.Stop() {
			select {
			case <-idle.Chan():
			default:
			}
		}
		idle.Reset(keepaliveInterval)
	}
}

func write(conn *websocket.Conn, msg []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, msg)
}
