package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"rutago/pkg/model"
	"rutago/pkg/recorder"
)

// LiveHandler streams session snapshots over a websocket. Every state change
// published by the recorder is pushed to each connected client.
type LiveHandler struct {
	rec      *recorder.Recorder
	upgrader websocket.Upgrader
}

// NewLiveHandler creates a websocket handler for the session stream.
func NewLiveHandler(rec *recorder.Recorder) *LiveHandler {
	return &LiveHandler{
		rec: rec,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The daemon is local-only; cross-origin pages may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Buffered so a slow client never blocks the recorder's notify path.
	// When the buffer is full the update is dropped; the next one carries
	// the complete state anyway.
	updates := make(chan model.SessionSnapshot, 16)
	remove := h.rec.Observe(func(snap model.SessionSnapshot) {
		select {
		case updates <- snap:
		default:
		}
	})
	defer remove()

	// Reader goroutine: we never expect client messages, but reading is
	// required to notice the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	slog.Debug("Live session client connected", "remote", r.RemoteAddr)

	// Initial state so the client renders immediately.
	if err := h.write(conn, h.rec.Snapshot()); err != nil {
		return
	}

	for {
		select {
		case snap := <-updates:
			if err := h.write(conn, snap); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func (h *LiveHandler) write(conn *websocket.Conn, snap model.SessionSnapshot) error {
	if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	return conn.WriteJSON(snap)
}
