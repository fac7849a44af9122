package web

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/cjeanneret/PanAxis/internal/debug"
	"github.com/cjeanneret/PanAxis/internal/logic/motion"
	"github.com/cjeanneret/PanAxis/internal/logic/session"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Axis is the command surface the handlers drive. *session.Session
// implements it.
type Axis interface {
	Execute(ctx context.Context, source, line string) (session.Report, error)
	MoveTo(ctx context.Context, source string, req motion.Request) (session.Report, error)
	Position() float64
	Config() motion.Config
}

// CommandRequest is the body of POST /api/command and of websocket messages.
type CommandRequest struct {
	Command string `json:"command"`
}

// MoveRequest is the body of POST /api/move.
type MoveRequest struct {
	Angle *float64    `json:"angle"`
	Mode  motion.Mode `json:"mode"` // absolute (default) | relative
}

// CommandResponse reports one command cycle.
type CommandResponse struct {
	ID       string   `json:"id,omitempty"`
	Lines    []string `json:"lines"`
	Status   string   `json:"status"` // moved | ignored | rejected | error
	Position float64  `json:"position"`
	Target   float64  `json:"target"`
	Steps    int      `json:"steps"`
	Error    string   `json:"error,omitempty"`
}

// ConfigResponse exposes the axis parameters.
type ConfigResponse struct {
	Mode            motion.Mode `json:"mode"`
	StepsPerRev     int         `json:"steps_per_rev"`
	TravelDegrees   float64     `json:"travel_degrees"`
	AngleLimit      float64     `json:"angle_limit"`
	InvertDirection bool        `json:"invert_direction"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Axis        Axis
	staticFS    fs.FS
}

// NewHandlers creates handlers with the given dependencies.
// If axis is nil, command routes return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, axis Axis, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Axis:        axis,
		staticFS:    staticFS,
	}
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleConfig returns the axis parameters as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if h.Axis == nil {
		http.Error(w, "axis not configured", http.StatusServiceUnavailable)
		return
	}
	c := h.Axis.Config()
	writeJSON(w, http.StatusOK, ConfigResponse{
		Mode:            c.Mode,
		StepsPerRev:     c.StepsPerRev,
		TravelDegrees:   c.TravelDegrees,
		AngleLimit:      c.AngleLimit,
		InvertDirection: c.InvertDirection,
	})
}

// HandlePosition returns the current absolute angle.
func (h *Handlers) HandlePosition(w http.ResponseWriter, r *http.Request) {
	if h.Axis == nil {
		http.Error(w, "axis not configured", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"position": h.Axis.Position()})
}

// HandleCommand handles POST /api/command: one line of operator text,
// interpreted in the configured addressing mode.
func (h *Handlers) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if h.Axis == nil {
		http.Error(w, "axis not configured", http.StatusServiceUnavailable)
		return
	}
	rep, err := h.Axis.Execute(r.Context(), "http", req.Command)
	h.writeReport(w, rep, err)
}

// HandleMove handles POST /api/move with a structured request.
func (h *Handlers) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Angle == nil {
		http.Error(w, "angle is required", http.StatusBadRequest)
		return
	}
	if h.Axis == nil {
		http.Error(w, "axis not configured", http.StatusServiceUnavailable)
		return
	}
	rep, err := h.Axis.MoveTo(r.Context(), "http", motion.Request{Mode: req.Mode, Value: *req.Angle})
	h.writeReport(w, rep, err)
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// response converts a session report into the wire form and its HTTP status.
func (h *Handlers) response(rep session.Report, err error) (CommandResponse, int) {
	resp := CommandResponse{
		ID:       rep.ID,
		Lines:    rep.Lines,
		Status:   rep.Outcome.Status.String(),
		Position: h.Axis.Position(),
		Target:   rep.Outcome.Target,
		Steps:    rep.Outcome.Steps,
	}
	code := http.StatusOK
	switch {
	case err == nil:
	case session.IsCommandError(err), errors.Is(err, motion.ErrInvalidTarget):
		resp.Status = "rejected"
		resp.Error = err.Error()
		code = http.StatusBadRequest
	default:
		resp.Status = "error"
		resp.Error = err.Error()
		code = http.StatusInternalServerError
	}
	return resp, code
}

func (h *Handlers) writeReport(w http.ResponseWriter, rep session.Report, err error) {
	resp, code := h.response(rep, err)
	writeJSON(w, code, resp)
}

// decodeJSON reads a bounded JSON body into v. It writes the error
// response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Error(err)
	}
}
