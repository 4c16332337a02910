// Package ui provides colored console output helpers for the CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

// center pads text with leading spaces so it sits in the middle of width.
// Text wider than width is returned unchanged.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	pad := (width - len(text)) / 2
	return strings.Repeat(" ", pad) + text
}

// Header prints a banner line for a top-level phase.
func Header(text string) {
	c := color.New(color.FgCyan, color.Bold)
	line := strings.Repeat("=", headerWidth)
	c.Println(line)
	c.Println(center(text, headerWidth))
	c.Println(line)
}

// Step prints a numbered progress line.
func Step(n, total int, text string) {
	color.New(color.FgBlue).Printf("[%d/%d] ", n, total)
	fmt.Println(text)
}

// Success prints a green confirmation line.
func Success(format string, args ...interface{}) {
	color.New(color.FgGreen).Printf("✓ "+format+"\n", args...)
}

// Info prints a plain informational line.
func Info(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}

// Warning prints a yellow warning line.
func Warning(format string, args ...interface{}) {
	color.New(color.FgYellow).Printf("! "+format+"\n", args...)
}

// Error prints a red error line.
func Error(format string, args ...interface{}) {
	color.New(color.FgRed).Printf("✗ "+format+"\n", args...)
}

// BlueText prints text in blue without any prefix.
func BlueText(format string, args ...interface{}) {
	color.New(color.FgBlue).Printf(format+"\n", args...)
}

// YellowText prints text in yellow without any prefix.
func YellowText(format string, args ...interface{}) {
	color.New(color.FgYellow).Printf(format+"\n", args...)
}
