package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// New builds a logger. format is "text" or "json"; an unknown level falls back to info.
// DEBUG=1 in the environment forces debug.
func New(level, format string, out io.Writer) *log.Logger {
	l := log.New()
	if out == nil {
		out = io.Discard
	}
	l.SetOutput(out)

	lvl, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	if v := os.Getenv("DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		lvl = log.DebugLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		l.SetFormatter(&log.JSONFormatter{})
	} else {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: out != os.Stderr})
	}
	return l
}

// Discard returns a logger that writes nowhere.
func Discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}
