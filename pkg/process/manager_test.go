package process

import (
	"errors"
	"io"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/termtrace/termtrace/pkg/config"
	"github.com/termtrace/termtrace/pkg/testutil"
)

// MockPTYManager is a mock implementation of the PTY interface for testing
type MockPTYManager struct {
	started      bool
	waited       bool
	stopped      bool
	unblocked    bool
	startError   error
	waitError    error
	process      *os.Process
	processState *os.ProcessState
	pty          *os.File
	copyData     []byte
}

func (m *MockPTYManager) Start(command string, args []string, env []string) error {
	if m.startError != nil {
		return m.startError
	}
	m.started = true
	return nil
}

func (m *MockPTYManager) Wait() error {
	m.waited = true
	return m.waitError
}

func (m *MockPTYManager) Stop() error {
	m.stopped = true
	return nil
}

func (m *MockPTYManager) UnblockStdin() {
	m.unblocked = true
}

func (m *MockPTYManager) ProcessState() *os.ProcessState {
	return m.processState
}

func (m *MockPTYManager) Process() *os.Process {
	return m.process
}

func (m *MockPTYManager) GetPTY() *os.File {
	return m.pty
}

func (m *MockPTYManager) CopyIO(stdin io.Reader, stdout io.Writer, handler func([]byte)) error {
	if handler != nil && m.copyData != nil {
		handler(m.copyData)
	}
	return nil
}

func TestManager_Start(t *testing.T) {
	tests := []struct {
		name       string
		envWrapped string
		startError error
		wantError  bool
		errorMsg   string
	}{
		{
			name:       "successful start",
			envWrapped: "",
			startError: nil,
			wantError:  false,
		},
		{
			name:       "already recording",
			envWrapped: "1",
			startError: nil,
			wantError:  true,
			errorMsg:   "already recording",
		},
		{
			name:       "start error",
			envWrapped: "",
			startError: errors.New("start failed"),
			wantError:  true,
			errorMsg:   "failed to start process",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TERMTRACE_WRAPPED", tt.envWrapped)

			cfg := config.DefaultConfig()
			mockPTY := &MockPTYManager{
				startError: tt.startError,
			}

			manager := &Manager{
				config:        cfg,
				ptyManager:    mockPTY,
				outputHandler: testutil.NewMockDataHandler(),
				done:          make(chan struct{}),
			}

			err := manager.Start("/bin/sh", nil)

			if tt.wantError {
				if err == nil {
					t.Errorf("expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q but got %q", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if !mockPTY.started {
					t.Error("PTY manager was not started")
				}
			}
		})
	}
}

func TestManager_Wait(t *testing.T) {
	tests := []struct {
		name      string
		waitError error
		wantError bool
	}{
		{
			name:      "successful wait",
			waitError: nil,
			wantError: false,
		},
		{
			name:      "wait with error",
			waitError: errors.New("wait failed"),
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			mockPTY := &MockPTYManager{
				waitError: tt.waitError,
			}
			manager := &Manager{
				config:     cfg,
				ptyManager: mockPTY,
				done:       make(chan struct{}),
			}

			err := manager.Wait()

			if tt.wantError && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.wantError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !mockPTY.waited {
				t.Error("PTY manager Wait was not called")
			}
			if !mockPTY.stopped {
				t.Error("terminal was not restored after Wait")
			}
		})
	}
}

// Wait must wake the stdin copier before returning; whoever reads stdin
// next (the rename prompt) would otherwise race a goroutine still blocked
// in its read.
func TestManager_WaitUnblocksStdin(t *testing.T) {
	cfg := config.DefaultConfig()
	mockPTY := &MockPTYManager{}

	ioDone := make(chan struct{})
	close(ioDone)

	manager := &Manager{
		config:     cfg,
		ptyManager: mockPTY,
		done:       make(chan struct{}),
		ioDone:     ioDone,
	}

	if err := manager.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mockPTY.unblocked {
		t.Error("stdin copier was not unblocked by Wait")
	}
}

// A recording failure reported by the handler must end the session rather
// than leave the shell running with a dead log.
func TestManager_HandlerErrorStopsSession(t *testing.T) {
	t.Setenv("TERMTRACE_WRAPPED", "")

	cfg := config.DefaultConfig()
	mockPTY := &MockPTYManager{
		copyData: []byte("some output"),
	}

	handler := testutil.NewMockDataHandler()
	handler.SetHandleDataError(errors.New("raw log write: disk full"))

	manager := &Manager{
		config:        cfg,
		ptyManager:    mockPTY,
		outputHandler: handler,
		done:          make(chan struct{}),
	}

	if err := manager.Start("/bin/sh", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-manager.ioDone:
	case <-time.After(2 * time.Second):
		t.Fatal("copy loop did not finish")
	}

	if !mockPTY.stopped {
		t.Error("session was not stopped after the handler error")
	}
	if got := handler.Chunks(); len(got) != 1 {
		t.Errorf("expected one chunk but got %d", len(got))
	}
}

// Stopping signal forwarding must not close the channel: the forwarding
// goroutine can still be selecting on it and exits via done instead.
func TestManager_CleanupLeavesSignalChannelOpen(t *testing.T) {
	cfg := config.DefaultConfig()

	manager := &Manager{
		config:     cfg,
		ptyManager: &MockPTYManager{},
		done:       make(chan struct{}),
		sigChan:    make(chan os.Signal, 1),
	}

	manager.cleanupSignals()

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("signal channel was closed: %v", r)
		}
	}()
	select {
	case manager.sigChan <- syscall.SIGCONT:
	default:
	}
}

func TestManager_SignalForwarding(t *testing.T) {
	cfg := config.DefaultConfig()

	mockPTY := &MockPTYManager{
		process: &os.Process{Pid: os.Getpid()},
	}

	manager := &Manager{
		config:     cfg,
		ptyManager: mockPTY,
		done:       make(chan struct{}),
		sigChan:    make(chan os.Signal, 1),
	}

	go manager.forwardSignals()

	// SIGCONT is harmless to deliver to ourselves.
	manager.sigChan <- syscall.SIGCONT

	// Give it time to process
	time.Sleep(10 * time.Millisecond)

	close(manager.done)
}

func TestManager_Stop(t *testing.T) {
	tests := []struct {
		name    string
		process *os.Process
	}{
		{
			name:    "stop with valid process",
			process: &os.Process{Pid: os.Getpid()},
		},
		{
			name:    "stop with nil process",
			process: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			mockPTY := &MockPTYManager{
				process: tt.process,
			}

			manager := &Manager{
				config:     cfg,
				ptyManager: mockPTY,
			}

			if err := manager.Stop(); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !mockPTY.stopped {
				t.Error("terminal was not restored by Stop")
			}
		})
	}
}
