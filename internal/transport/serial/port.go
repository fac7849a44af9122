package serial

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
)

// Port is an open serial line.
type Port interface {
	io.ReadWriteCloser
}

// Config describes the serial command line.
type Config struct {
	Device      string // e.g., "/dev/ttyUSB0"
	Baud        int
	ReadTimeout time.Duration // 0 = blocking reads
}

// Open opens the configured device.
func Open(cfg Config) (Port, error) {
	if cfg.Device == "" {
		return nil, errors.New("serial device is empty")
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Device, err)
	}
	if cfg.ReadTimeout > 0 {
		return idlePort{p}, nil
	}
	return p, nil
}

// idlePort hides read timeouts. tarm/serial reports an idle timeout as a
// zero-byte io.EOF; a line console keeps waiting instead. Once the port is
// closed reads fail with a different error and the loop ends.
type idlePort struct {
	io.ReadWriteCloser
}

func (p idlePort) Read(b []byte) (int, error) {
	for {
		n, err := p.ReadWriteCloser.Read(b)
		if n == 0 && errors.Is(err, io.EOF) {
			continue
		}
		return n, err
	}
}
