package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// PTYManager handles PTY-based process execution
type PTYManager struct {
	cmd         *exec.Cmd
	pty         *os.File
	mu          sync.Mutex
	stopChan    chan struct{}
	wg          sync.WaitGroup
	restoreFunc func()
	stdinFile   *os.File
}

// Ensure PTYManager implements PTY
var _ PTY = (*PTYManager)(nil)

// NewPTYManager creates a new PTY manager
func NewPTYManager() *PTYManager {
	return &PTYManager{
		stopChan: make(chan struct{}),
	}
}

// Start starts a process with PTY
func (p *PTYManager) Start(command string, args []string, env []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return fmt.Errorf("process already started")
	}

	// Create the command
	p.cmd = exec.Command(command, args...)
	p.cmd.Env = env

	// Start the command with a PTY
	var err error
	p.pty, err = pty.Start(p.cmd)
	if err != nil {
		return fmt.Errorf("failed to start PTY: %w", err)
	}

	// Copy terminal size
	if err := p.copyTerminalSize(); err != nil {
		// Log but don't fail - some environments don't have a terminal
		fmt.Fprintf(os.Stderr, "termtrace: failed to copy terminal size: %v\n", err)
	}

	// Start monitoring for terminal size changes
	p.wg.Add(1)
	go p.monitorTerminalSize()

	return nil
}

// GetPTY returns the PTY file descriptor
func (p *PTYManager) GetPTY() *os.File {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pty
}

// Wait waits for the process to complete
func (p *PTYManager) Wait() error {
	if p.cmd == nil {
		return fmt.Errorf("process not started")
	}

	err := p.cmd.Wait()

	// Signal stop to goroutines
	close(p.stopChan)

	// Wait for goroutines
	p.wg.Wait()

	// Close PTY
	p.mu.Lock()
	if p.pty != nil {
		_ = p.pty.Close()
	}
	p.mu.Unlock()

	return err
}

// ProcessState returns the process state
func (p *PTYManager) ProcessState() *os.ProcessState {
	if p.cmd == nil {
		return nil
	}
	return p.cmd.ProcessState
}

// Process returns the underlying process
func (p *PTYManager) Process() *os.Process {
	if p.cmd == nil {
		return nil
	}
	return p.cmd.Process
}

// Stop gracefully stops the PTY manager and restores terminal state
func (p *PTYManager) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Restore terminal if needed
	if p.restoreFunc != nil {
		p.restoreFunc()
		p.restoreFunc = nil
	}

	// Clear any leftover wakeup deadline so later readers of stdin (the
	// rename prompt) see a normal blocking descriptor.
	if p.stdinFile != nil {
		_ = p.stdinFile.SetReadDeadline(time.Time{})
	}

	return nil
}

// UnblockStdin kicks the stdin copier out of a blocked read once the
// session is over. Terminal and pipe descriptors are pollable, so an
// already-expired read deadline makes the pending read return immediately.
// Stop clears the deadline again afterwards.
func (p *PTYManager) UnblockStdin() {
	p.mu.Lock()
	f := p.stdinFile
	p.mu.Unlock()

	if f != nil {
		_ = f.SetReadDeadline(time.Now())
	}
}

// copyTerminalSize copies the terminal size from stdin to the PTY
func (p *PTYManager) copyTerminalSize() error {
	size, err := pty.GetsizeFull(os.Stdin)
	if err != nil {
		return err
	}

	return pty.Setsize(p.pty, size)
}

// monitorTerminalSize re-applies the terminal size to the PTY on every
// SIGWINCH. The action is idempotent and touches no reconstruction state,
// so it needs no synchronization with the copy loop.
func (p *PTYManager) monitorTerminalSize() {
	defer p.wg.Done()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGWINCH)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			p.mu.Lock()
			if p.pty != nil {
				if err := p.copyTerminalSize(); err != nil {
					fmt.Fprintf(os.Stderr, "termtrace: failed to resize PTY: %v\n", err)
				}
			}
			p.mu.Unlock()
		case <-p.stopChan:
			return
		}
	}
}

// CopyIO handles copying between PTY and standard streams. stdin is placed
// in raw mode for the duration when it is a terminal; the restore runs on
// every exit path, including Stop() from a signal handler. handler is
// called with every chunk read from the PTY, before it is written to
// stdout.
func (p *PTYManager) CopyIO(stdin io.Reader, stdout io.Writer, handler func([]byte)) error {
	p.mu.Lock()
	if p.pty == nil {
		p.mu.Unlock()
		return fmt.Errorf("PTY not initialized")
	}
	ptyFile := p.pty
	p.mu.Unlock()

	// Remember the stdin file so UnblockStdin can wake a pending read,
	// and store the restore function so we can call it from Stop()
	if file, ok := stdin.(*os.File); ok {
		p.mu.Lock()
		p.stdinFile = file
		p.mu.Unlock()

		fd := int(file.Fd())
		if term.IsTerminal(fd) {
			if oldState, err := term.MakeRaw(fd); err == nil {
				restore := func() { _ = term.Restore(fd, oldState) }
				p.mu.Lock()
				p.restoreFunc = restore
				p.mu.Unlock()
				defer func() {
					p.mu.Lock()
					if p.restoreFunc != nil {
						p.restoreFunc()
						p.restoreFunc = nil
					}
					p.mu.Unlock()
				}()
			}
		}
	}

	// Use a wait group to track copy operations
	var wg sync.WaitGroup

	// Error channel to capture any errors
	errChan := make(chan error, 2)

	// Copy from stdin to PTY. ErrDeadlineExceeded is the UnblockStdin
	// wakeup and ErrClosed means the PTY went away first; both are normal
	// session shutdown, not failures.
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := io.Copy(ptyFile, stdin)
		if err != nil && !errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, os.ErrClosed) {
			errChan <- fmt.Errorf("stdin copy error: %w", err)
		}
	}()

	// Copy from PTY to stdout with output handling
	wg.Add(1)
	go func() {
		defer wg.Done()

		reader := &outputReader{
			reader:  ptyFile,
			handler: handler,
		}
		if _, err := io.Copy(stdout, reader); err != nil {
			errChan <- fmt.Errorf("stdout copy error: %w", err)
		}
	}()

	// Wait for copies to complete
	wg.Wait()

	// Check for errors
	select {
	case err := <-errChan:
		return err
	default:
		return nil
	}
}

// outputReader wraps a reader and calls a handler for each chunk of data
type outputReader struct {
	reader  io.Reader
	handler func([]byte)
}

func (r *outputReader) Read(p []byte) (n int, err error) {
	n, err = r.reader.Read(p)
	if n > 0 && r.handler != nil {
		r.handler(p[:n])
	}
	if err != nil && isPTYClosed(err) {
		err = io.EOF
	}
	return n, err
}

// isPTYClosed reports whether err is the normal end-of-session condition
// for a PTY master read: Linux returns EIO once the child side is gone,
// and ErrClosed means we closed the master ourselves.
func isPTYClosed(err error) bool {
	return errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)
}
