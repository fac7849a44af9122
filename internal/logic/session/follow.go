package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cjeanneret/PanAxis/internal/debug"
	"github.com/cjeanneret/PanAxis/internal/logic/geometry"
	"github.com/cjeanneret/PanAxis/internal/logic/motion"
)

// Follow tails r for normalized positions, one per line, in [-1, 1] (the
// hand tracker writes the wrist position this way) and moves the axis to
// position*AngleLimit for each new value. At EOF it waits poll and reads
// again, so r can be a file that is still being appended to. It returns
// when ctx is done or r fails.
func (s *Session) Follow(ctx context.Context, source string, r io.Reader, poll time.Duration, w io.Writer) error {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	limit := s.Config().AngleLimit
	br := bufio.NewReader(r)
	var pending strings.Builder
	last := math.NaN()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := br.ReadString('\n')
		pending.WriteString(chunk)
		if errors.Is(err, io.EOF) {
			if err := sleep(ctx, poll); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		line := strings.TrimSpace(pending.String())
		pending.Reset()
		if line == "" {
			continue
		}
		v, perr := strconv.ParseFloat(line, 64)
		if perr != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			debug.Live("Follow: skipping %q", line)
			continue
		}
		v = geometry.Clamp(v, -1, 1)
		if v == last {
			continue
		}
		last = v

		rep, merr := s.MoveTo(ctx, source, motion.To(v*limit))
		writeLines(w, rep.Lines)
		if merr != nil {
			return merr
		}
	}
}
