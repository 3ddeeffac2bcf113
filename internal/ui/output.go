package ui

import (
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// RunErrorCount and RunWarningCount track errors/warnings during a run.
var (
	RunErrorCount   atomic.Int64
	RunWarningCount atomic.Int64
)

// progressActive is set while an in-place progress line owns the cursor.
var progressActive atomic.Bool

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func printLine(color, symbol, msg string) {
	EndProgressLine()
	fmt.Printf("%s%s%s %s%s\n", color, symbol, ColorReset, msg, ColorReset)
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	printLine(ColorGreen, SymbolCheck, msg)
}

// PrintError prints an error message and increments the error counter.
func PrintError(msg string) {
	RunErrorCount.Add(1)
	printLine(ColorRed, SymbolCross, msg)
}

// PrintInfo prints an info message.
func PrintInfo(msg string) {
	printLine(ColorBlue, SymbolInfo, msg)
}

// PrintWarning prints a warning message and increments the warning counter.
func PrintWarning(msg string) {
	RunWarningCount.Add(1)
	printLine(ColorYellow, SymbolWarning, msg)
}

// PrintDownload prints a download message.
func PrintDownload(msg string) {
	printLine(ColorCyan, SymbolDownload, msg)
}

// PrintUpload prints an upload message.
func PrintUpload(msg string) {
	printLine(ColorPurple, SymbolUpload, msg)
}

// PrintSkip prints a message for an item that needed no work.
func PrintSkip(msg string) {
	printLine(ColorBlue, SymbolSkip, msg)
}
