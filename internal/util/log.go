// Package util provides logging and process-wide session statistics.
package util

import (
	"fmt"

	"github.com/pterm/pterm"
)

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "15:04:05.000"
	pterm.DefaultLogger.MaxWidth = 1000
}

// Leveled logging backed by the pterm logger (stderr).

func LogDebug(format string, args ...interface{}) {
	pterm.DefaultLogger.Debug(fmt.Sprintf(format, args...))
}

func LogInfo(format string, args ...interface{}) {
	pterm.DefaultLogger.Info(fmt.Sprintf(format, args...))
}

// LogSuccess is an info line marked as a milestone.
func LogSuccess(format string, args ...interface{}) {
	pterm.DefaultLogger.Info(fmt.Sprintf(format, args...), pterm.DefaultLogger.Args("status", "ok"))
}

func LogWarning(format string, args ...interface{}) {
	pterm.DefaultLogger.Warn(fmt.Sprintf(format, args...))
}

func LogError(format string, args ...interface{}) {
	pterm.DefaultLogger.Error(fmt.Sprintf(format, args...))
}

// EnableDebug configures the logger to show debug messages.
func EnableDebug() {
	pterm.DefaultLogger.Level = pterm.LogLevelDebug
}

// PrintSummary renders a two-column table of end-of-session figures.
func PrintSummary(title string, rows [][]string) {
	pterm.DefaultSection.Println(title)
	if err := pterm.DefaultTable.WithData(pterm.TableData(rows)).Render(); err != nil {
		LogWarning("render summary: %v", err)
	}
}
