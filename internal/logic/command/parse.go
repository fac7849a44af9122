package command

import (
	"strings"

	"github.com/cjeanneret/PanAxis/internal/logic/motion"
)

// Command is a parsed operator line.
type Command struct {
	Input   string
	Verb    string // relative mode only; accepted but not interpreted
	Request motion.Request
}

// Parse normalizes one input line for the given addressing mode.
//
// Absolute mode takes the whole line as a numeric literal ("40.5", "-30",
// noise characters stripped). Relative mode expects "<verb> <number>"
// separated by spaces ("move -59.8") and returns ErrMalformedCommand when
// fewer than two tokens are present.
func Parse(line string, mode motion.Mode) (Command, error) {
	line = strings.TrimRight(line, "\r\n")
	cmd := Command{Input: line}

	switch mode {
	case motion.Relative:
		toks := Tokenize(line, ' ')
		if toks.Len() < 2 {
			return cmd, ErrMalformedCommand
		}
		cmd.Verb = toks.At(0)
		delta, err := ParseAngle(toks.At(1))
		if err != nil {
			return cmd, err
		}
		cmd.Request = motion.By(delta)
	default:
		angle, err := ParseAngle(line)
		if err != nil {
			return cmd, err
		}
		cmd.Request = motion.To(angle)
	}
	return cmd, nil
}
