package main

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/termtrace/termtrace/pkg/config"
	"github.com/termtrace/termtrace/pkg/session"
	"golang.org/x/term"
)

const version = "0.3.0"

func main() {
	var (
		configPath  string
		logDir      string
		shell       string
		noRename    bool
		showVersion bool
		help        bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&logDir, "log-dir", "", "Directory for session logs")
	flag.StringVar(&shell, "shell", "", "Shell to record (default: $SHELL)")
	flag.BoolVar(&noRename, "no-rename", false, "Skip the rename prompt at session end")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&help, "help", false, "Show help message")
	flag.Parse()

	if help {
		printUsage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("termtrace %s\n", version)
		os.Exit(0)
	}

	// The config path flag must take effect before Load reads it
	if configPath != "" {
		if err := os.Setenv("TERMTRACE_CONFIG", configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting config path: %v\n", err)
			os.Exit(1)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Override config with command line flags
	if logDir != "" {
		cfg.LogDir = logDir
	}
	if shell != "" {
		cfg.Shell = shell
	}
	if noRename {
		cfg.NoRename = true
	}

	// Create dependencies; any failure here is fatal before the shell runs
	deps, err := NewDependencies(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Create application
	app := NewApplication(deps)

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Ensure terminal restoration on panic
	defer func() {
		if r := recover(); r != nil {
			_ = app.Stop() // Best effort terminal restoration
			panic(r)       // Re-panic
		}
	}()

	go func() {
		<-sigChan
		// Attempt graceful shutdown
		if err := app.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "Error stopping shell: %v\n", err)
		}
		// Exit with standard interrupt code
		os.Exit(130)
	}()

	fmt.Println("[*] Starting terminal session recording...")
	fmt.Printf("[*] Raw log:   %s\n", deps.RawPath)
	fmt.Printf("[*] Clean log: %s\n", deps.CleanPath)
	fmt.Println("[*] Type 'exit' or Ctrl+D to stop.")

	if os.Getenv("TERMTRACE_DEBUG") == "1" {
		fmt.Fprintf(os.Stderr, "termtrace: recording shell %s into %s\n", cfg.Shell, cfg.LogDir)
	}

	// Run the session
	if err := app.Run(); err != nil {
		// Check if it's an exec.ExitError
		if _, ok := err.(*exec.ExitError); !ok {
			// Only log if it's not an expected exit error
			fmt.Fprintf(os.Stderr, "Error running shell: %v\n", err)
		}
	}

	// Close the logs before offering to rename them
	deps.Close()

	fmt.Println("\n[*] Session capture ended.")
	fmt.Printf("[*] Default filename: %s\n", deps.SessionName)

	rawPath, cleanPath := deps.RawPath, deps.CleanPath
	if !cfg.NoRename && term.IsTerminal(int(os.Stdin.Fd())) {
		rawPath, cleanPath = session.PromptRename(os.Stdin, os.Stdout, rawPath, cleanPath)
	}
	fmt.Printf("[*] Raw log saved:   %s\n", rawPath)
	fmt.Printf("[*] Clean log saved: %s\n", cleanPath)

	// Exit with the same code as the recorded shell
	os.Exit(app.ExitCode())
}

func printUsage() {
	fmt.Println("termtrace - terminal session recorder")
	fmt.Println()
	fmt.Println("Usage: termtrace [OPTIONS]")
	fmt.Println()
	fmt.Println("Records an interactive shell session into two files: a byte-exact")
	fmt.Println("raw log and a reconstructed, timestamped clean transcript.")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  TERMTRACE_LOG_DIR    Directory for session logs (default: ~/.termtrace)")
	fmt.Println("  TERMTRACE_SHELL      Shell to record (default: $SHELL, then /bin/bash)")
	fmt.Println("  TERMTRACE_NO_RENAME  Skip the rename prompt (true/false)")
	fmt.Println("  TERMTRACE_CONFIG     Path to config file")
	fmt.Println("  TERMTRACE_DEBUG      Verbose diagnostics on stderr (1)")
	fmt.Println()
	fmt.Println("Configuration file: ~/.config/termtrace/config.yaml")
}
