package console

import "os"

// IsTerminal reports whether stream is attached to a character device.
func IsTerminal(stream *os.File) bool {
	if stream == nil {
		return false
	}
	info, err := stream.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
