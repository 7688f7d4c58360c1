// Package logger provides execution logging for the Arcveil CLI.
// Messages always go to the log file when one is configured; debug
// messages additionally reach stderr when --verbose is set, so a run
// leaves a complete execution log either way.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	logFile io.WriteCloser
)

// SetVerbose enables or disables verbose logging to stderr.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for stderr-bound logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// OpenLogFile appends all log levels to the given file for the rest of the
// process lifetime. Returns an error if the file cannot be opened.
func OpenLogFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
	}
	logFile = f
	return nil
}

// HasLogFile reports whether a log file sink is currently open.
func HasLogFile() bool {
	mu.RLock()
	defer mu.RUnlock()
	return logFile != nil
}

// CloseLogFile closes the log file sink, if any.
func CloseLogFile() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

func emit(level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	msg := fmt.Sprintf("["+level+"] "+format+"\n", args...)
	if logFile != nil {
		fmt.Fprintf(logFile, "%s %s", time.Now().Format(time.RFC3339), msg)
	}
	if verbose || level == "ERROR" {
		fmt.Fprint(output, msg)
	}
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	emit("DEBUG", format, args...)
}

// Info prints an informational message.
func Info(format string, args ...any) {
	emit("INFO", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	emit("WARN", format, args...)
}

// Error prints an error message. Errors always reach stderr, verbose or not.
func Error(format string, args ...any) {
	emit("ERROR", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if logFile != nil {
		fmt.Fprintf(logFile, "%s === %s ===\n", time.Now().Format(time.RFC3339), name)
	}
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
