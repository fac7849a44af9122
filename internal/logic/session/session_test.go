package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjeanneret/PanAxis/internal/logic/command"
	"github.com/cjeanneret/PanAxis/internal/logic/motion"
)

// recordingStepper records every Step call.
type recordingStepper struct {
	calls []int
	err   error
}

func (r *recordingStepper) Step(count int) error {
	r.calls = append(r.calls, count)
	return r.err
}

func newSession(t *testing.T, m motion.Stepper, mode motion.Mode, travel float64) *Session {
	t.Helper()
	ctrl, err := motion.NewController(m, motion.Config{
		Mode:          mode,
		StepsPerRev:   2048,
		TravelDegrees: travel,
		AngleLimit:    90,
	})
	require.NoError(t, err)
	return New(ctrl)
}

func TestExecute_AbsoluteSequence(t *testing.T) {
	m := &recordingStepper{}
	s := newSession(t, m, motion.Absolute, 270)
	ctx := context.Background()

	rep, err := s.Execute(ctx, "test", "40.5")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Moving to absolute position: 40.50",
		"Moved to position: 40.50",
	}, rep.Lines)
	assert.NotEmpty(t, rep.ID)

	_, err = s.Execute(ctx, "test", "0")
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Position())

	_, err = s.Execute(ctx, "test", "-90")
	require.NoError(t, err)
	assert.Equal(t, -90.0, s.Position())

	assert.Equal(t, []int{307, -307, -682}, m.calls)
}

func TestExecute_RelativeSaturates(t *testing.T) {
	m := &recordingStepper{}
	s := newSession(t, m, motion.Relative, 90)
	ctx := context.Background()

	rep, err := s.Execute(ctx, "test", "move -59.8")
	require.NoError(t, err)
	assert.Equal(t, "Moving by: -59.80", rep.Lines[0])
	assert.InDelta(t, -59.8, s.Position(), 1e-9)

	_, err = s.Execute(ctx, "test", "move -65")
	require.NoError(t, err)
	assert.Equal(t, -90.0, s.Position())

	rep, err = s.Execute(ctx, "test", "move -5")
	require.NoError(t, err)
	assert.Equal(t, motion.Ignored, rep.Outcome.Status)
	assert.Equal(t, "Move ignored: already at limit. Current: -90.00", rep.Lines[1])
	assert.Len(t, m.calls, 2)
}

func TestExecute_MalformedCommand(t *testing.T) {
	m := &recordingStepper{}
	s := newSession(t, m, motion.Relative, 90)

	rep, err := s.Execute(context.Background(), "test", "move")
	require.ErrorIs(t, err, command.ErrMalformedCommand)
	assert.True(t, IsCommandError(err))
	assert.Equal(t, []string{"Invalid command"}, rep.Lines)
	assert.Empty(t, m.calls)
	assert.Equal(t, 0.0, s.Position())
}

func TestExecute_UnparseableAngleDoesNotMove(t *testing.T) {
	m := &recordingStepper{}
	s := newSession(t, m, motion.Absolute, 270)

	rep, err := s.Execute(context.Background(), "test", "abc")
	var perr *command.ParseError
	require.ErrorAs(t, err, &perr)
	assert.True(t, IsCommandError(err))
	assert.Equal(t, []string{`Invalid angle: "abc"`}, rep.Lines)
	assert.Empty(t, m.calls)
}

func TestExecute_MotorFailure(t *testing.T) {
	m := &recordingStepper{err: errors.New("gpio fault")}
	s := newSession(t, m, motion.Absolute, 270)

	rep, err := s.Execute(context.Background(), "test", "30")
	require.Error(t, err)
	assert.False(t, IsCommandError(err))
	assert.Contains(t, rep.Lines[1], "Move failed")
	assert.Equal(t, 0.0, s.Position())
}

func TestExecute_CanceledContext(t *testing.T) {
	m := &recordingStepper{}
	s := newSession(t, m, motion.Absolute, 270)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Execute(ctx, "test", "30")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, m.calls)
}

func TestSubscribe_ReceivesEvents(t *testing.T) {
	s := newSession(t, &recordingStepper{}, motion.Absolute, 270)
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	var events []Event
	s.Subscribe(ObserverFunc(func(e Event) { events = append(events, e) }))

	ctx := context.Background()
	_, _ = s.Execute(ctx, "serial", "12")
	_, _ = s.Execute(ctx, "serial", "x")
	_, _ = s.MoveTo(ctx, "web", motion.To(-12))

	require.Len(t, events, 3)
	assert.Equal(t, "serial", events[0].Source)
	assert.Equal(t, "12", events[0].Input)
	assert.Equal(t, 12.0, events[0].Outcome.Position)
	assert.Equal(t, fixed, events[0].Time)
	assert.Error(t, events[1].Err)
	assert.Equal(t, "web", events[2].Source)
	assert.Empty(t, events[2].Input)
	assert.Equal(t, -12.0, events[2].Outcome.Position)
	assert.NotEqual(t, events[0].ID, events[2].ID)
}

func TestMoveTo_StructuredRelative(t *testing.T) {
	s := newSession(t, &recordingStepper{}, motion.Absolute, 270)
	ctx := context.Background()

	_, err := s.MoveTo(ctx, "web", motion.By(20))
	require.NoError(t, err)
	rep, err := s.MoveTo(ctx, "web", motion.By(20))
	require.NoError(t, err)
	assert.Equal(t, "Moving by: 20.00", rep.Lines[0])
	assert.Equal(t, 40.0, s.Position())
}

func TestRunScript_SkipsBadInput(t *testing.T) {
	m := &recordingStepper{}
	s := newSession(t, m, motion.Absolute, 270)
	var out bytes.Buffer

	err := s.RunScript(context.Background(), "demo", []string{"40.5", "oops", "0", "-90"}, 0, &out)
	require.NoError(t, err)
	assert.Equal(t, -90.0, s.Position())
	assert.Len(t, m.calls, 3)
	assert.Contains(t, out.String(), "Invalid angle: \"oops\"\r\n")
	assert.Contains(t, out.String(), "Moved to position: -90.00\r\n")
}

func TestRunScript_StopsOnMotorError(t *testing.T) {
	m := &recordingStepper{err: errors.New("gpio fault")}
	s := newSession(t, m, motion.Absolute, 270)

	err := s.RunScript(context.Background(), "demo", []string{"10", "20"}, 0, nil)
	require.Error(t, err)
	assert.Len(t, m.calls, 1)
}

func TestRunScript_Canceled(t *testing.T) {
	m := &recordingStepper{}
	s := newSession(t, m, motion.Absolute, 270)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.RunScript(ctx, "demo", []string{"10", "20", "30"}, time.Hour, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, m.calls, 1)
}

func TestFollow_MapsNormalizedPositions(t *testing.T) {
	m := &recordingStepper{}
	s := newSession(t, m, motion.Absolute, 270)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// The duplicate, the junk line and the unterminated tail are skipped.
	in := strings.NewReader("0.5\n0.5\nnope\n\n-2\n0.25")
	var out bytes.Buffer
	err := s.Follow(ctx, "follow", in, 5*time.Millisecond, &out)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, m.calls, 2)
	assert.Equal(t, -90.0, s.Position())
	assert.Contains(t, out.String(), "Moving to absolute position: 45.00\r\n")
}
