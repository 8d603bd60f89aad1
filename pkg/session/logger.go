package session

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/termtrace/termtrace/pkg/interfaces"
)

// Logger owns the session's two append targets: the raw log, which receives
// every byte the PTY produced, and the clean log, which receives one
// timestamped record per reconstructed line. The two are independent; a
// clean-log failure never blocks or corrupts the raw log.
type Logger struct {
	raw      io.Writer
	clean    io.Writer
	redactor *Redactor
	lastLine string
	warned   bool
	now      func() time.Time
}

// Ensure Logger is a valid sink for completed lines
var _ interfaces.LineSink = (*Logger)(nil)

// NewLogger creates a Logger writing to the given targets. redactor may be
// nil when no redaction patterns are configured.
func NewLogger(raw, clean io.Writer, redactor *Redactor) *Logger {
	return &Logger{
		raw:      raw,
		clean:    clean,
		redactor: redactor,
		now:      time.Now,
	}
}

// WriteRaw appends a chunk to the raw log exactly as read from the PTY.
// A write error here is session-terminating: the raw log is the ground
// truth, and a session that cannot record it should end.
func (l *Logger) WriteRaw(data []byte) error {
	if _, err := l.raw.Write(data); err != nil {
		return fmt.Errorf("raw log write: %w", err)
	}
	return nil
}

// HandleLine records a completed line in the clean log with a
// second-resolution timestamp. A line identical to the immediately previous
// one is dropped; this suppresses the local-echo doubling shells and
// password prompts produce. Only adjacent repeats are checked.
func (l *Logger) HandleLine(line string) {
	if line == l.lastLine {
		return
	}
	l.lastLine = line

	if l.redactor != nil {
		line = l.redactor.Apply(line)
	}

	stamp := l.now().Format("2006-01-02 15:04:05")
	if _, err := fmt.Fprintf(l.clean, "[%s] %s\n", stamp, line); err != nil && !l.warned {
		l.warned = true
		fmt.Fprintf(os.Stderr, "termtrace: clean log write error: %v\n", err)
	}
}
