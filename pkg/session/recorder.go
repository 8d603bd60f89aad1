package session

import (
	"strings"
	"sync"

	"github.com/termtrace/termtrace/pkg/interfaces"
	"github.com/termtrace/termtrace/pkg/screen"
)

// Recorder is the glue between the PTY output stream and the two logs. For
// every chunk it writes the raw log first, then runs the reconstruction
// pipeline: lossy UTF-8 decode, chunk-boundary buffering, tokenizing, and
// the screen emulator, handing completed lines to the Logger.
type Recorder struct {
	mu       sync.Mutex
	logger   *Logger
	sink     interfaces.LineSink
	chunks   *screen.ChunkBuffer
	emulator *screen.Emulator
	rawErr   error
}

var _ interfaces.DataHandler = (*Recorder)(nil)

// NewRecorder creates a Recorder feeding the given Logger. The Logger is
// both the raw-byte target and the default sink for completed lines.
func NewRecorder(logger *Logger) *Recorder {
	return &Recorder{
		logger:   logger,
		sink:     logger,
		chunks:   screen.NewChunkBuffer(),
		emulator: screen.NewEmulator(),
	}
}

// SetLineSink redirects completed lines to a different sink. Raw bytes
// still go to the Logger.
func (r *Recorder) SetLineSink(sink interfaces.LineSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

// HandleData processes one chunk read from the PTY. The raw log write
// happens before any reconstruction so the raw log is never behind the
// clean log. A raw write failure is returned so the caller ends the
// session: the raw log is the ground truth, and once it is dead the clean
// log must not keep advancing without it.
func (r *Recorder) HandleData(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.logger.WriteRaw(data); err != nil {
		if r.rawErr == nil {
			r.rawErr = err
		}
		return r.rawErr
	}
	if r.rawErr != nil {
		return r.rawErr
	}

	text := strings.ToValidUTF8(string(data), "�")
	release := r.chunks.Feed(text)
	if release == "" {
		return nil
	}
	for _, line := range r.emulator.Process(release) {
		r.sink.HandleLine(line)
	}
	return nil
}

// Flush drains the pending boundary tail through the emulator and forces
// out any partial line. Called once at session end.
func (r *Recorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tail := r.chunks.Drain(); tail != "" {
		for _, line := range r.emulator.Process(tail) {
			r.sink.HandleLine(line)
		}
	}
	for _, line := range r.emulator.Flush() {
		r.sink.HandleLine(line)
	}
}

// RawErr returns the first raw-log write error, if any occurred.
func (r *Recorder) RawErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rawErr
}
