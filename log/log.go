package log

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var debug bool

// Config defines logger output.
type Config struct {
	Level string
	// JSON switches formatter to JSON.
	JSON bool
	// File enables rotated file output in addition to stderr.
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("TIMELINE_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// New returns a logger configured with c. Unknown level falls back to info,
// or debug when TIMELINE_DEBUG is set.
func New(c Config) (*logrus.Logger, error) {
	l := GetLogger()
	if c.Level != "" {
		if level, err := logrus.ParseLevel(strings.ToLower(c.Level)); err == nil {
			l.SetLevel(level)
		}
	}
	if c.JSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	if c.File != "" {
		if err := os.MkdirAll(filepath.Dir(c.File), 0755); err != nil {
			return nil, err
		}
		l.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAge,
			Compress:   c.Compress,
		}))
	}
	return l, nil
}
