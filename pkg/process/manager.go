package process

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/termtrace/termtrace/pkg/config"
	"github.com/termtrace/termtrace/pkg/interfaces"
)

// Manager manages the recorded shell process
type Manager struct {
	config        *config.Config
	ptyManager    PTY
	outputHandler interfaces.DataHandler
	exitCode      int
	mu            sync.Mutex
	sigChan       chan os.Signal
	done          chan struct{}
	ioDone        chan struct{}
}

// NewManager creates a new process manager
func NewManager(cfg *config.Config, outputHandler interfaces.DataHandler) *Manager {
	return &Manager{
		config:        cfg,
		ptyManager:    NewPTYManager(),
		outputHandler: outputHandler,
		done:          make(chan struct{}),
	}
}

// Start spawns the shell on a PTY and begins multiplexing I/O
func (m *Manager) Start(command string, args []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check for self-wrap
	if os.Getenv("TERMTRACE_WRAPPED") == "1" {
		return fmt.Errorf("already recording inside termtrace")
	}

	// Set environment to prevent self-wrap
	env := append(os.Environ(), "TERMTRACE_WRAPPED=1")

	// Start the process with PTY
	if err := m.ptyManager.Start(command, args, env); err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}

	// Start I/O copying with output handling. A handler error means the
	// session can no longer be recorded; stop the shell so the session
	// ends instead of running on with a dead log.
	var handler func([]byte)
	if m.outputHandler != nil {
		var failOnce sync.Once
		handler = func(data []byte) {
			if err := m.outputHandler.HandleData(data); err != nil {
				failOnce.Do(func() {
					fmt.Fprintf(os.Stderr, "termtrace: %v; ending session\n", err)
					_ = m.Stop()
				})
			}
		}
	}

	m.ioDone = make(chan struct{})
	go func() {
		defer close(m.ioDone)
		if err := m.ptyManager.CopyIO(os.Stdin, os.Stdout, handler); err != nil {
			fmt.Fprintf(os.Stderr, "termtrace: I/O error: %v\n", err)
		}
	}()

	// Setup signal forwarding
	m.setupSignalForwarding()

	return nil
}

// Wait waits for the process to exit
func (m *Manager) Wait() error {
	if m.ptyManager == nil {
		return fmt.Errorf("process not started")
	}

	err := m.ptyManager.Wait()

	// Free stdin from the copy loop before anything else reads it; the
	// rename prompt does, right after the session. The retry covers the
	// window where the copy goroutine has not yet registered stdin.
	if m.ioDone != nil {
		for {
			m.ptyManager.UnblockStdin()
			select {
			case <-m.ioDone:
			case <-time.After(50 * time.Millisecond):
				continue
			}
			break
		}
	}

	m.mu.Lock()
	if m.ptyManager.ProcessState() != nil {
		m.exitCode = m.ptyManager.ProcessState().ExitCode()
	}
	m.mu.Unlock()

	// Ensure terminal is restored
	_ = m.ptyManager.Stop()

	// Signal that we're done
	close(m.done)

	// Cleanup signal handling
	m.cleanupSignals()

	return err
}

// ExitCode returns the exit code of the process
func (m *Manager) ExitCode() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exitCode
}

// setupSignalForwarding sets up signal forwarding to the child process
func (m *Manager) setupSignalForwarding() {
	m.sigChan = make(chan os.Signal, 1)
	signal.Notify(m.sigChan,
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGHUP,
		syscall.SIGQUIT,
		syscall.SIGUSR1,
		syscall.SIGUSR2,
	)

	go m.forwardSignals()
}

// forwardSignals forwards signals to the child process
func (m *Manager) forwardSignals() {
	for {
		select {
		case sig := <-m.sigChan:
			if m.ptyManager != nil && m.ptyManager.Process() != nil {
				// Forward the signal to the child process
				if err := m.ptyManager.Process().Signal(sig); err != nil {
					// Process might have already exited, but log it
					if err != os.ErrProcessDone {
						fmt.Fprintf(os.Stderr, "termtrace: signal forward error: %v\n", err)
					}
				}
			}
		case <-m.done:
			return
		}
	}
}

// cleanupSignals stops signal forwarding. The channel is left open: the
// forwarding goroutine may still be selecting on it and exits via done; a
// closed channel would feed it a stream of nil signals instead.
func (m *Manager) cleanupSignals() {
	if m.sigChan != nil {
		signal.Stop(m.sigChan)
	}
}

// Stop gracefully stops the manager and cleans up resources
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ptyManager != nil {
		// Ensure terminal is restored
		_ = m.ptyManager.Stop()

		if m.ptyManager.Process() != nil {
			// Send SIGTERM first for graceful shutdown
			if err := m.ptyManager.Process().Signal(syscall.SIGTERM); err != nil {
				// If SIGTERM fails, force kill
				if err != os.ErrProcessDone {
					return m.ptyManager.Process().Kill()
				}
			}
		}
	}

	return nil
}
