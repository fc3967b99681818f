package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a JSON logger on stdout at the given level. Unknown levels
// fall back to info.
func New(level string) *logrus.Logger {
	return NewWithOutput(os.Stdout, level, false)
}

// NewWithOutput is New with an explicit writer; text switches to the
// human-readable formatter for local runs.
func NewWithOutput(w io.Writer, level string, text bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	if text {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	l.SetLevel(ParseLevel(level))
	return l
}

func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
