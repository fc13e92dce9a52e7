package reader

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.bug.st/serial"
)

// readTimeout bounds a single Read so polling never blocks for long.
const readTimeout = 50 * time.Millisecond

// Port is the part of a serial connection the reader needs.
type Port interface {
	Read(p []byte) (int, error)
	Close() error
}

// Opener opens a named port at a baud rate.
type Opener func(name string, baudRate int) (Port, error)

// ConnectionError reports that a serial port could not be opened.
type ConnectionError struct {
	Port string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("open serial port %s: %v", e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// OpenSerial opens a device as 8N1 with a short read timeout, so Read returns
// (0, nil) when no bytes arrive in time.
func OpenSerial(name string, baudRate int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, &ConnectionError{Port: name, Err: err}
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, &ConnectionError{Port: name, Err: err}
	}
	return port, nil
}

// expandCandidates resolves glob patterns such as /dev/cu.usbmodem* and keeps
// plain names as they are.
func expandCandidates(candidates []string) []string {
	var out []string
	for _, name := range candidates {
		if !strings.ContainsAny(name, "*?[") {
			out = append(out, name)
			continue
		}
		matches, err := filepath.Glob(name)
		if err != nil {
			continue
		}
		out = append(out, matches...)
	}
	return out
}
