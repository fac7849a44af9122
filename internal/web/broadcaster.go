package web

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/cjeanneret/PanAxis/internal/logic/motion"
	"github.com/cjeanneret/PanAxis/internal/logic/session"
)

// StatusEvent represents a single status message for SSE and websocket clients.
type StatusEvent struct {
	Time     string   `json:"t"`
	Level    string   `json:"l,omitempty"`
	Msg      string   `json:"msg"`
	ID       string   `json:"id,omitempty"`
	Source   string   `json:"source,omitempty"`
	Status   string   `json:"status,omitempty"`
	Position *float64 `json:"position,omitempty"`
}

// StatusBroadcaster distributes status messages to multiple clients.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
	now     func() time.Time
}

// NewStatusBroadcaster creates a new broadcaster.
func NewStatusBroadcaster() *StatusBroadcaster {
	return &StatusBroadcaster{
		clients: make(map[chan string]struct{}),
		now:     time.Now,
	}
}

// Subscribe returns a channel that receives broadcast messages and a cleanup function.
// The caller must call the returned cleanup when done (e.g. on client disconnect).
func (b *StatusBroadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 64)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	unsub := func() {
		b.mu.Lock()
		delete(b.clients, ch)
		b.mu.Unlock()
		close(ch)
	}
	return ch, unsub
}

// Broadcast sends a message to all subscribed clients.
// Messages are sent as JSON: {"t":"...","l":"info","msg":"..."}
// Slow clients may miss messages (non-blocking, buffered).
func (b *StatusBroadcaster) Broadcast(level, msg string) {
	b.send(StatusEvent{Level: level, Msg: msg})
}

// BroadcastMsg is a convenience for level "info".
func (b *StatusBroadcaster) BroadcastMsg(msg string) {
	b.Broadcast("info", msg)
}

// Observe implements session.Observer: every command cycle is pushed to
// clients with its resulting position.
func (b *StatusBroadcaster) Observe(e session.Event) {
	evt := StatusEvent{
		Level:  "info",
		ID:     e.ID,
		Source: e.Source,
		Status: e.Outcome.Status.String(),
	}
	pos := e.Outcome.Position
	evt.Position = &pos
	switch {
	case e.Err != nil:
		evt.Level = "error"
		evt.Status = "error"
		evt.Msg = e.Err.Error()
	case e.Outcome.Status == motion.Ignored:
		evt.Msg = "Move ignored: already at limit"
	default:
		evt.Msg = "Moved"
	}
	b.send(evt)
}

func (b *StatusBroadcaster) send(evt StatusEvent) {
	evt.Time = b.now().Format(time.RFC3339)
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	payload := string(data)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			// channel full, skip
		}
	}
}

// BroadcastWriter implements io.Writer; each Write broadcasts the content to clients.
func BroadcastWriter(b *StatusBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

// broadcastWriter wraps StatusBroadcaster as io.Writer for use with debug.SetOutput.
type broadcastWriter struct {
	b *StatusBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		w.b.Broadcast("log", msg)
	}
	return len(p), nil
}
