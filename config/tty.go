package config

import "os"

// isTerminal reports whether stream is attached to a character device.
// LoadLoggingConfig uses it to disable ANSI color on non-TTY streams.
func isTerminal(stream *os.File) bool {
	info, err := stream.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
