package logging

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 5
)

// FileSink is an append-only, size-rotated log file.
type FileSink struct {
	writer  *lumberjack.Logger
	handler slog.Handler
}

// NewFileSink opens path lazily on first write. Files rotate once they exceed
// maxSizeMB and at most maxBackups rotated files are kept.
func NewFileSink(path string, maxSizeMB, maxBackups int, level slog.Level) *FileSink {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultMaxSizeMB
	}
	if maxBackups <= 0 {
		maxBackups = DefaultMaxBackups
	}
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		LocalTime:  false,
		Compress:   false,
	}
	return &FileSink{writer: w, handler: NewTextHandler(w, level)}
}

func (f *FileSink) Handler() slog.Handler { return f.handler }

// Rotate forces a rotation regardless of size.
func (f *FileSink) Rotate() error { return f.writer.Rotate() }

func (f *FileSink) Close() error { return f.writer.Close() }
