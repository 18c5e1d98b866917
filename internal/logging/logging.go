// Package logging builds the zerolog logger shared by the CLI and the TUI.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/javiermolinar/weekgrid/internal/config"
)

// Logger is a zerolog logger plus the file writer that must be closed on exit.
type Logger struct {
	zerolog.Logger
	file io.WriteCloser
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// New creates a logger from cfg. Entries go to the rotated log file when one is
// configured and to console when it is non-nil. With neither, the logger
// discards everything. The TUI passes a nil console since stderr belongs to
// the terminal UI.
func New(cfg config.LogConfig, console io.Writer) (*Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var writers []io.Writer
	l := &Logger{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		writers = append(writers, l.file)
	}
	if console != nil {
		writers = append(writers, consoleWriter(console))
	}

	switch len(writers) {
	case 0:
		l.Logger = zerolog.Nop()
		return l, nil
	case 1:
		l.Logger = zerolog.New(writers[0])
	default:
		l.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...))
	}
	l.Logger = l.Level(level).With().Timestamp().Logger()
	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// consoleWriter uses the human-readable writer on a color terminal and plain
// JSON otherwise.
func consoleWriter(w io.Writer) io.Writer {
	f, ok := w.(*os.File)
	if ok && term.IsTerminal(int(f.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return w
}

// ErrNoFile is returned by Path when file logging is disabled.
var ErrNoFile = errors.New("file logging disabled")

// Path returns the configured log file path.
func Path(cfg config.LogConfig) (string, error) {
	if cfg.File == "" {
		return "", ErrNoFile
	}
	return cfg.File, nil
}
