package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// DefaultPath is the log file written next to the working directory.
	DefaultPath = "backup.log"
	// TimeFormat is the timestamp layout of every log line.
	TimeFormat = "2006-01-02 15:04:05"
)

// Options configures the process logger.
type Options struct {
	Path    string
	Level   string
	MaxSize int // megabytes before rotation; 0 keeps lumberjack's default
	Console io.Writer
}

// Logger is the process-wide logger. It writes every event to the log file
// and to the console in the same "timestamp - LEVEL - message" layout.
type Logger struct {
	zerolog.Logger
	file *lumberjack.Logger
}

// New returns a Logger appending to opts.Path and mirroring to opts.Console
// (stderr when nil).
func New(opts Options) (*Logger, error) {
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Console == nil {
		opts.Console = os.Stderr
	}

	// lumberjack opens the file lazily on first write, so open it here to
	// surface an unwritable path at startup instead of on the first event.
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", opts.Path, err)
	}
	f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", opts.Path, err)
	}
	f.Close()

	file := &lumberjack.Logger{
		Filename: opts.Path,
		MaxSize:  opts.MaxSize,
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return &Logger{
		Logger: NewWithWriters(level, file, opts.Console),
		file:   file,
	}, nil
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	return l.file.Close()
}

// NewWithWriters builds a zerolog.Logger that renders events in the fixed
// line layout to each of the given writers.
func NewWithWriters(level zerolog.Level, writers ...io.Writer) zerolog.Logger {
	sinks := make([]io.Writer, 0, len(writers))
	for _, w := range writers {
		sinks = append(sinks, newLineWriter(w))
	}
	return zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func newLineWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:             w,
		NoColor:         true,
		PartsOrder:      []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatTimestamp: formatTimestamp,
		FormatLevel:     formatLevel,
	}
}

func formatTimestamp(i interface{}) string {
	s, ok := i.(string)
	if !ok {
		return fmt.Sprintf("%v -", i)
	}
	t, err := time.Parse(zerolog.TimeFieldFormat, s)
	if err != nil {
		return s + " -"
	}
	return t.Local().Format(TimeFormat) + " -"
}

func formatLevel(i interface{}) string {
	s, _ := i.(string)
	switch s {
	case zerolog.LevelWarnValue:
		return "WARNING -"
	case "":
		return "-"
	default:
		return strings.ToUpper(s) + " -"
	}
}
