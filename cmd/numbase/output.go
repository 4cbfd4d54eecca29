package main

import (
	"fmt"
	"os"
)

// ANSI SGR sequences. The --no-color persistent flag disables them all.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// statusLabelWidth fits the longest report label ("Total chars:").
const statusLabelWidth = 12

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printMark(color, mark, format string, args ...any) {
	fmt.Fprintln(os.Stderr, colorize(color, mark+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { printMark(colorGreen, "✓", format, args...) }

func printError(format string, args ...any) { printMark(colorRed, "✗", format, args...) }

func printWarning(format string, args ...any) { printMark(colorYellow, "⚠", format, args...) }

func printStep(format string, args ...any) { printMark(colorCyan, "→", format, args...) }

// statusLine renders one aligned "Label: value" report line. Padding is
// applied before colorizing so escape bytes do not skew the column.
func statusLine(label, value string) string {
	padded := fmt.Sprintf("%-*s", statusLabelWidth, label+":")
	return "  " + colorize(colorBold, padded) + " " + value
}

func printStatus(label string, format string, args ...any) {
	fmt.Fprintln(os.Stderr, statusLine(label, fmt.Sprintf(format, args...)))
}
