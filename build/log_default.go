//go:build !stdlog && !nolog

package build

import "os"

// LoggingType is a log type that writes to the writer configured on the
// LogWriter, falling back to stdout.
const LoggingType = LogTypeDefault

// Write writes the provided byte slice to the configured output.
func (w *LogWriter) Write(b []byte) (int, error) {
	if w.Out == nil {
		return os.Stdout.Write(b)
	}

	return w.Out.Write(b)
}
