package reader

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

// maxPending caps how much unterminated input is buffered before it is discarded.
const maxPending = 4096

// LineReader splits the byte stream of a Port into trimmed lines.
type LineReader struct {
	port    Port
	buf     []byte
	pending []byte
}

// NewLineReader wraps a port.
func NewLineReader(port Port) *LineReader {
	return &LineReader{port: port, buf: make([]byte, 512)}
}

// ReadLine returns the next complete line, reading from the port at most once.
// ok is false when no full line is available yet. Empty lines and lines that
// are not valid UTF-8 are dropped. err is only set when the port itself fails.
func (r *LineReader) ReadLine() (line string, ok bool, err error) {
	if line, ok := r.nextLine(); ok {
		return line, true, nil
	}

	n, err := r.port.Read(r.buf)
	if n > 0 {
		r.pending = append(r.pending, r.buf[:n]...)
	}
	if err != nil {
		return "", false, err
	}

	if line, ok := r.nextLine(); ok {
		return line, true, nil
	}
	if len(r.pending) > maxPending {
		log.Warn().Int("bytes", len(r.pending)).Msg("Discarding unterminated serial input")
		r.pending = r.pending[:0]
	}
	return "", false, nil
}

func (r *LineReader) nextLine() (string, bool) {
	for {
		i := bytes.IndexByte(r.pending, '\n')
		if i < 0 {
			return "", false
		}
		raw := r.pending[:i]
		r.pending = r.pending[i+1:]

		if !utf8.Valid(raw) {
			log.Warn().Bytes("raw", raw).Msg("Dropping serial line that is not valid UTF-8")
			continue
		}
		if line := strings.TrimSpace(string(raw)); line != "" {
			return line, true
		}
	}
}
