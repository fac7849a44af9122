// Package serial exposes the command line over a serial port or any other
// line-oriented stream (stdin for the REPL).
package serial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/cjeanneret/PanAxis/internal/debug"
)

// MaxLineBytes bounds one input line. Longer lines are discarded up to
// the next newline and answered with TooLongReply.
const MaxLineBytes = 4096

// TooLongReply answers a discarded over-long line.
const TooLongReply = "Invalid command"

// Handler runs one input line and returns the status lines to print.
type Handler func(ctx context.Context, line string) []string

// Serve reads newline-terminated commands from conn and writes each reply
// line followed by CRLF. Blank lines are skipped. conn is closed when ctx is
// canceled. Serve returns nil when the stream ends.
func Serve(ctx context.Context, conn io.ReadWriteCloser, h Handler) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Unblock the reader on shutdown.
		<-ctx.Done()
		return conn.Close()
	})
	g.Go(func() error {
		r := bufio.NewReaderSize(conn, MaxLineBytes)
		for {
			line, tooLong, err := readLine(r)
			var replies []string
			switch {
			case tooLong:
				debug.Live("Discarding line longer than %d bytes", MaxLineBytes)
				replies = []string{TooLongReply}
			case strings.TrimSpace(line) != "":
				replies = h(ctx, line)
			}
			for _, reply := range replies {
				if _, werr := io.WriteString(conn, reply+"\r\n"); werr != nil {
					return fmt.Errorf("write reply: %w", werr)
				}
			}

			if errors.Is(err, io.EOF) {
				debug.Info("Command stream closed")
				// io.EOF cancels the group so the closer goroutine returns.
				return io.EOF
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("reading port: %w", err)
			}
		}
	})
	err := g.Wait()
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// readLine returns the next line without its line terminator. A line that
// does not fit in r's buffer is consumed through its newline and reported
// as tooLong.
func readLine(r *bufio.Reader) (line string, tooLong bool, err error) {
	chunk, err := r.ReadSlice('\n')
	if !errors.Is(err, bufio.ErrBufferFull) {
		return strings.TrimRight(string(chunk), "\r\n"), false, err
	}
	for errors.Is(err, bufio.ErrBufferFull) {
		_, err = r.ReadSlice('\n')
	}
	return "", true, err
}

// ReadWriter joins a separate reader and writer, such as stdin and stdout,
// into a stream Serve accepts. Close is a no-op.
type ReadWriter struct {
	io.Reader
	io.Writer
}

func (ReadWriter) Close() error { return nil }
