// Package session runs command cycles against the axis controller.
//
// Every transport (serial console, websocket, HTTP, follower) goes through
// a Session, which serializes cycles: one command is normalized, moved and
// reported before the next one starts.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/cjeanneret/PanAxis/internal/debug"
	"github.com/cjeanneret/PanAxis/internal/logic/command"
	"github.com/cjeanneret/PanAxis/internal/logic/motion"
)

// Event is published to observers after every command cycle.
type Event struct {
	ID      string
	Source  string
	Input   string // raw command text, empty for structured requests
	Outcome motion.Outcome
	Err     error
	Time    time.Time
}

// Observer receives events. Observe is called with the session lock held,
// so implementations must not block or call back into the session.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Report is what an operator sees for one command.
type Report struct {
	ID      string
	Lines   []string
	Outcome motion.Outcome
}

// Session owns the controller and serializes access to it.
type Session struct {
	mu        sync.Mutex
	ctrl      *motion.Controller
	observers []Observer
	now       func() time.Time
}

// New wraps ctrl. The parser mode follows the controller configuration.
func New(ctrl *motion.Controller) *Session {
	return &Session{
		ctrl: ctrl,
		now:  time.Now,
	}
}

// Subscribe adds an observer.
func (s *Session) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Position returns the current absolute angle.
func (s *Session) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Position()
}

// Config returns the axis parameters.
func (s *Session) Config() motion.Config {
	return s.ctrl.Config()
}

// IsCommandError reports whether err came from bad operator input
// (malformed command or unparseable angle) rather than from the hardware.
func IsCommandError(err error) bool {
	var perr *command.ParseError
	return errors.Is(err, command.ErrMalformedCommand) || errors.As(err, &perr)
}

// Execute parses one line of operator input and runs it.
func (s *Session) Execute(ctx context.Context, source, line string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := xid.New().String()
	debug.Command(id, source, line)

	cmd, err := command.Parse(line, s.ctrl.Config().Mode)
	if err != nil {
		rep := Report{ID: id, Lines: []string{rejectLine(err)}}
		s.publish(Event{ID: id, Source: source, Input: line, Err: err})
		return rep, err
	}
	return s.run(id, source, line, cmd.Request)
}

// MoveTo runs a structured request.
func (s *Session) MoveTo(ctx context.Context, source string, req motion.Request) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := xid.New().String()
	debug.Command(id, source, fmt.Sprintf("%s %g", req.Mode, req.Value))
	return s.run(id, source, "", req)
}

// run must be called with s.mu held.
func (s *Session) run(id, source, input string, req motion.Request) (Report, error) {
	rep := Report{ID: id, Lines: []string{announceLine(req)}}

	out, err := s.ctrl.Move(req)
	rep.Outcome = out
	if err != nil {
		debug.Error(fmt.Errorf("command %s: %w", id, err))
		rep.Lines = append(rep.Lines, fmt.Sprintf("Move failed: %v", err))
	} else {
		rep.Lines = append(rep.Lines, outcomeLine(out))
	}
	s.publish(Event{ID: id, Source: source, Input: input, Outcome: out, Err: err})
	return rep, err
}

func (s *Session) publish(e Event) {
	e.Time = s.now()
	for _, o := range s.observers {
		o.Observe(e)
	}
}

func announceLine(req motion.Request) string {
	if req.Mode == motion.Relative {
		return fmt.Sprintf("Moving by: %.2f", req.Value)
	}
	return fmt.Sprintf("Moving to absolute position: %.2f", req.Value)
}

func outcomeLine(out motion.Outcome) string {
	if out.Status == motion.Ignored {
		return fmt.Sprintf("Move ignored: already at limit. Current: %.2f", out.Position)
	}
	return fmt.Sprintf("Moved to position: %.2f", out.Position)
}

func rejectLine(err error) string {
	var perr *command.ParseError
	if errors.As(err, &perr) {
		return fmt.Sprintf("Invalid angle: %q", perr.Input)
	}
	return "Invalid command"
}
