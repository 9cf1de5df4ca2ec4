package utils

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	debugColor   = color.New(color.Faint)
)

// Logger provides colored console output for the application
type Logger struct {
	dryRun bool
	out    io.Writer
	errOut io.Writer
}

// NewLogger creates a new logger writing to stdout and stderr
func NewLogger(dryRun bool) *Logger {
	return &Logger{dryRun: dryRun, out: os.Stdout, errOut: os.Stderr}
}

// NewLoggerTo creates a logger writing to the given writers
func NewLoggerTo(out, errOut io.Writer, dryRun bool) *Logger {
	return &Logger{dryRun: dryRun, out: out, errOut: errOut}
}

func (l *Logger) print(w io.Writer, c *color.Color, msg string, args ...interface{}) {
	fmt.Fprintln(w, c.Sprintf(msg, args...))
}

// Success logs a success message in green
func (l *Logger) Success(msg string, args ...interface{}) {
	l.print(l.out, successColor, "✓ "+msg, args...)
}

// Info logs an informational message in cyan
func (l *Logger) Info(msg string, args ...interface{}) {
	l.print(l.out, infoColor, msg, args...)
}

// Warning logs a warning message in yellow
func (l *Logger) Warning(msg string, args ...interface{}) {
	l.print(l.out, warnColor, "⚠ "+msg, args...)
}

// Error logs an error message in red, followed by err when it is set
func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if err != nil {
		l.print(l.errOut, errorColor, "✗ "+msg+": %v", append(args, err)...)
		return
	}
	l.print(l.errOut, errorColor, "✗ "+msg, args...)
}

// Debug logs a debug message in dim/gray
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.print(l.out, debugColor, msg, args...)
}

// DryRun logs a write that was not sent
func (l *Logger) DryRun(action string, msg string, args ...interface{}) {
	l.print(l.out, warnColor, "[DRY-RUN] %s: "+msg, append([]interface{}{action}, args...)...)
}

// IsDryRun reports whether writes are simulated
func (l *Logger) IsDryRun() bool {
	return l.dryRun
}

// Writer returns the standard output writer of the logger
func (l *Logger) Writer() io.Writer {
	return l.out
}
