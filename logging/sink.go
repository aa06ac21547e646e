package logging

import (
	"io"
	"os"
	"sync"
)

// sink is the single process-wide output stream reference. The write
// mutex is held only across the write call itself so each rendered
// line lands atomically.
type sink struct {
	mu     sync.Mutex
	stream io.Writer
}

var defaultSink = &sink{stream: os.Stderr}

func (s *sink) write(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.stream, line)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		io.WriteString(s.stream, "\n")
	}
}

func (s *sink) set(stream io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stream == nil {
		stream = os.Stderr
	}
	s.stream = stream
}

func (s *sink) current() io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// SetLogStream redirects all pipeline output, typically to a buffer in
// tests. Passing nil restores stderr.
func SetLogStream(stream io.Writer) {
	defaultSink.set(stream)
}

// CurrentLogStream returns the stream the sink writes to.
func CurrentLogStream() io.Writer {
	return defaultSink.current()
}

// ResetStream restores the sink to stderr. Part of the coordinated
// reset sequence.
func ResetStream() {
	defaultSink.set(os.Stderr)
}
