package session

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cjeanneret/PanAxis/internal/debug"
)

// RunScript executes commands in order with a pause after each one.
// Operator input errors are reported and skipped; hardware errors stop
// the script. Status lines go to w.
func (s *Session) RunScript(ctx context.Context, source string, commands []string, delay time.Duration, w io.Writer) error {
	debug.Section("Running command script")
	for i, line := range commands {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		debug.Live("Script command %d/%d: %q", i+1, len(commands), line)
		rep, err := s.Execute(ctx, source, line)
		writeLines(w, rep.Lines)
		if err != nil && !IsCommandError(err) {
			return err
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	debug.Section("Script complete")
	return nil
}

// writeLines prints status lines CRLF-terminated, as on a serial console.
func writeLines(w io.Writer, lines []string) {
	if w == nil {
		return
	}
	for _, l := range lines {
		fmt.Fprintf(w, "%s\r\n", l)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
