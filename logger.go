package sealfile

import (
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Logger interface is used to allow callers and tests to inject custom
// loggers.
type Logger interface {
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Errorf(string, ...interface{})
	WithField(key string, value interface{}) Logger
	Writer() io.Writer
	SetWriter(io.Writer)
}

type logger struct {
	entry *log.Entry
}

// NewLogger returns a new Logger instance backed by Logrus.
func NewLogger(level uint32) Logger {
	l := log.New()
	l.SetLevel(log.Level(level))
	l.Formatter = &log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
	return &logger{entry: log.NewEntry(l)}
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *logger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *logger) WithField(key string, value interface{}) Logger {
	return &logger{entry: l.entry.WithField(key, value)}
}

func (l *logger) Writer() io.Writer {
	return l.entry.Logger.Out
}

func (l *logger) SetWriter(writer io.Writer) {
	l.entry.Logger.SetOutput(writer)
}

// ParseLogLevel converts the level string to its corresponding int value. It
// returns an error if the level is invalid.
func ParseLogLevel(level string) (uint32, error) {
	var l uint32
	switch strings.ToLower(level) {
	case "debug":
		l = uint32(log.DebugLevel)
	case "info":
		l = uint32(log.InfoLevel)
	case "warn":
		l = uint32(log.WarnLevel)
	case "error":
		l = uint32(log.ErrorLevel)
	default:
		return 0, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}

// NopLogger discards everything.
func NopLogger() Logger {
	l := NewLogger(uint32(log.PanicLevel))
	l.SetWriter(io.Discard)
	return l
}
