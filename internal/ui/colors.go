// Package ui provides terminal output helpers: colours, status lines,
// spinners and tables.
package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Stderr receives status lines. Results a script may consume are written
// to the command's own output instead.
var Stderr io.Writer = color.Error

// Color functions for styled output
var (
	Green  = color.New(color.FgGreen).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Blue   = color.New(color.FgBlue).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc()
)

// Success prints a success message with a green checkmark.
func Success(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", Green("✓"), msg)
}

// Warning prints a warning message with a yellow warning symbol.
func Warning(msg string) {
	fmt.Fprintf(Stderr, "%s %s\n", Yellow("⚠"), msg)
}

// Warningf prints a formatted warning message.
func Warningf(format string, args ...any) {
	Warning(fmt.Sprintf(format, args...))
}

// Error prints "Error: msg" to Stderr.
func Error(msg string) {
	fmt.Fprintf(Stderr, "%s %s\n", Red("Error:"), msg)
}

// Info prints an info message with a blue arrow.
func Info(msg string) {
	fmt.Fprintf(Stderr, "%s %s\n", Blue("→"), msg)
}

// Infof prints a formatted info message.
func Infof(format string, args ...any) {
	Info(fmt.Sprintf(format, args...))
}

// Hint prints an indented, dimmed follow-up line under an error.
func Hint(msg string) {
	fmt.Fprintf(Stderr, "  %s\n", Dim(msg))
}

// SubHeader prints a styled section title.
func SubHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s %s\n", Cyan("─────"), Bold(title))
}
