package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/termtrace/termtrace/pkg/config"
	"github.com/termtrace/termtrace/pkg/process"
	"github.com/termtrace/termtrace/pkg/session"
)

// Dependencies holds all the dependencies for the application
type Dependencies struct {
	Config         *config.Config
	Logger         *session.Logger
	Recorder       *session.Recorder
	ProcessManager *process.Manager

	SessionName string
	RawPath     string
	CleanPath   string

	rawFile   *os.File
	cleanFile *os.File
}

// NewDependencies creates all dependencies with the given configuration.
// All filesystem failures here happen before any shell is spawned and are
// fatal to startup.
func NewDependencies(cfg *config.Config) (*Dependencies, error) {
	if err := os.MkdirAll(cfg.LogDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", cfg.LogDir, err)
	}

	deps := &Dependencies{
		Config:      cfg,
		SessionName: time.Now().Format("2006-01-02_15-04-05"),
	}
	deps.RawPath = filepath.Join(cfg.LogDir, deps.SessionName+".raw")
	deps.CleanPath = filepath.Join(cfg.LogDir, deps.SessionName+".log")

	var err error
	deps.rawFile, err = os.OpenFile(deps.RawPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw log: %w", err)
	}

	deps.cleanFile, err = os.OpenFile(deps.CleanPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		_ = deps.rawFile.Close()
		return nil, fmt.Errorf("failed to open clean log: %w", err)
	}

	redactor := session.NewRedactor(cfg.Redact)
	deps.Logger = session.NewLogger(deps.rawFile, deps.cleanFile, redactor)
	deps.Recorder = session.NewRecorder(deps.Logger)
	deps.ProcessManager = process.NewManager(cfg, deps.Recorder)

	return deps, nil
}

// Close flushes the reconstruction pipeline and closes both log files.
// Safe to call more than once.
func (d *Dependencies) Close() {
	if d.Recorder != nil {
		d.Recorder.Flush()
		d.Recorder = nil
	}
	if d.rawFile != nil {
		_ = d.rawFile.Close()
		d.rawFile = nil
	}
	if d.cleanFile != nil {
		_ = d.cleanFile.Close()
		d.cleanFile = nil
	}
}

// Application represents the main application
type Application struct {
	deps *Dependencies
}

// NewApplication creates a new application with the given dependencies
func NewApplication(deps *Dependencies) *Application {
	return &Application{
		deps: deps,
	}
}

// Run records one session of the configured shell, blocking until it exits.
func (a *Application) Run() error {
	if err := a.deps.ProcessManager.Start(a.deps.Config.Shell, nil); err != nil {
		return err
	}

	err := a.deps.ProcessManager.Wait()

	// Final flush: drain the pending chunk tail and force out any partial
	// line before the files are closed.
	a.deps.Recorder.Flush()

	// A dead raw log ended the session; report that over the shell's own
	// exit status.
	if rawErr := a.deps.Recorder.RawErr(); rawErr != nil {
		return rawErr
	}

	return err
}

// Stop gracefully stops the application
func (a *Application) Stop() error {
	return a.deps.ProcessManager.Stop()
}

// ExitCode returns the exit code of the recorded shell
func (a *Application) ExitCode() int {
	return a.deps.ProcessManager.ExitCode()
}
