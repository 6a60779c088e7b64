package util

import (
	"fmt"

	"github.com/pion/logging"
)

// PionLoggerFactory routes pion's internal logging through the pterm logger.
// pion is chatty at Info level, so everything below Warn lands on debug.
type PionLoggerFactory struct{}

// NewLogger implements logging.LoggerFactory.
func (PionLoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &pionLogger{scope: scope}
}

type pionLogger struct {
	scope string
}

func (l *pionLogger) tag(msg string) string {
	return fmt.Sprintf("[pion/%s] %s", l.scope, msg)
}

func (l *pionLogger) Trace(msg string) { LogDebug("%s", l.tag(msg)) }
func (l *pionLogger) Debug(msg string) { LogDebug("%s", l.tag(msg)) }
func (l *pionLogger) Info(msg string)  { LogDebug("%s", l.tag(msg)) }
func (l *pionLogger) Warn(msg string)  { LogWarning("%s", l.tag(msg)) }
func (l *pionLogger) Error(msg string) { LogError("%s", l.tag(msg)) }

func (l *pionLogger) Tracef(format string, args ...interface{}) {
	l.Trace(fmt.Sprintf(format, args...))
}

func (l *pionLogger) Debugf(format string, args ...interface{}) {
	l.Debug(fmt.Sprintf(format, args...))
}

func (l *pionLogger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *pionLogger) Warnf(format string, args ...interface{}) {
	l.Warn(fmt.Sprintf(format, args...))
}

func (l *pionLogger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}
