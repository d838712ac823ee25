// Package logging builds the process logger. The terminal UI owns stdout, so
// logs go to a size-rotated file.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configure New.
type Options struct {
	// File is the log file path. Empty discards log output.
	File  string
	Level string
	// MaxSizeMB, MaxBackups and MaxAgeDays tune rotation; zero picks defaults.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger is the process logger plus the rotating writer behind it, if any.
type Logger struct {
	*logrus.Logger
	// Entry carries the per-process run id; hand it to components.
	Entry  *logrus.Entry
	closer io.Closer
}

// New builds a Logger. Every entry carries a "run" field with a random id so
// lines from one invocation can be grouped.
func New(opts Options) (*Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	l.SetLevel(lvl)

	out := &Logger{Logger: l}
	if opts.File == "" {
		l.SetOutput(io.Discard)
	} else {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return nil, err
		}
		rot := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 10),
			MaxBackups: orDefault(opts.MaxBackups, 3),
			MaxAge:     orDefault(opts.MaxAgeDays, 28),
			Compress:   true,
		}
		l.SetOutput(rot)
		out.closer = rot
	}
	out.Entry = l.WithField("run", uuid.NewString())
	return out, nil
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLevel accepts logrus level names; empty means info.
func ParseLevel(s string) (logrus.Level, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return logrus.InfoLevel, nil
	}
	return logrus.ParseLevel(s)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
