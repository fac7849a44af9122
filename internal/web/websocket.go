package web

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/cjeanneret/PanAxis/internal/debug"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWebsocket handles GET /ws. Clients send CommandRequest messages
// and receive a CommandResponse for each, interleaved with the status
// events every transport produces.
func (h *Handlers) HandleWebsocket(w http.ResponseWriter, r *http.Request) {
	if h.Axis == nil {
		http.Error(w, "axis not configured", http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Error(err)
		return
	}
	defer conn.Close()

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// A websocket connection supports one concurrent writer.
	var writeMu sync.Mutex
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			var msg CommandRequest
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			resp, _ := h.response(h.Axis.Execute(r.Context(), "ws", msg.Command))
			writeMu.Lock()
			err := conn.WriteJSON(resp)
			writeMu.Unlock()
			if err != nil {
				debug.Error(err)
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			writeMu.Lock()
			err := conn.WriteMessage(websocket.TextMessage, []byte(msg))
			writeMu.Unlock()
			if err != nil {
				debug.Error(err)
				return
			}
		case <-done:
			return
		}
	}
}
