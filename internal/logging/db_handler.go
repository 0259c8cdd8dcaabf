package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/zippicks/critic-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dbBatchSize = 50

// DBHandler is an slog.Handler that batches records at or above a threshold
// into the log table.
type DBHandler struct {
	state *dbState
	level slog.Level
	attrs []slog.Attr
}

type dbState struct {
	db      *gorm.DB
	table   string
	mu      sync.Mutex
	buffer  []models.LogEntry
	ticker  *time.Ticker
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewDBHandler(db *gorm.DB, table string, level slog.Level) *DBHandler {
	state := &dbState{
		db:      db,
		table:   table,
		buffer:  make([]models.LogEntry, 0, dbBatchSize),
		ticker:  time.NewTicker(5 * time.Second),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go state.flushLoop()
	return &DBHandler{state: state, level: level}
}

func (s *dbState) flushLoop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.ticker.C:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *dbState) flush() {
	s.mu.Lock()
	if len(s.buffer) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.buffer
	s.buffer = make([]models.LogEntry, 0, dbBatchSize)
	s.mu.Unlock()

	if err := s.db.Table(s.table).CreateInBatches(batch, dbBatchSize).Error; err != nil {
		// slog.Default may include this handler; stay below its threshold to avoid a loop.
		slog.Debug("failed to flush log entries to DB", "error", err, "count", len(batch))
	}
}

// Flush writes buffered entries synchronously.
func (h *DBHandler) Flush() { h.state.flush() }

// Stop ends the background loop and returns once the buffered entries have
// been written. Call it before closing the database.
func (h *DBHandler) Stop() {
	h.state.once.Do(func() {
		h.state.ticker.Stop()
		close(h.state.done)
	})
	<-h.state.stopped
}

func (h *DBHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *DBHandler) Handle(_ context.Context, record slog.Record) error {
	entry := models.LogEntry{
		ID:        uuid.New(),
		Timestamp: record.Time,
		Level:     LevelName(record.Level),
		Message:   record.Message,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	extra := make(map[string]any)
	collect := func(a slog.Attr) bool {
		switch a.Key {
		case "operation":
			entry.Operation = a.Value.String()
		case "request_id":
			entry.RequestID = a.Value.String()
		case "error":
			entry.Error = a.Value.String()
		default:
			extra[a.Key] = attrValue(a.Value)
		}
		return true
	}
	for _, a := range h.attrs {
		collect(a)
	}
	record.Attrs(collect)

	if len(extra) > 0 {
		if b, err := json.Marshal(extra); err == nil {
			entry.Context = datatypes.JSON(b)
		}
	}

	h.state.mu.Lock()
	h.state.buffer = append(h.state.buffer, entry)
	needFlush := len(h.state.buffer) >= dbBatchSize
	h.state.mu.Unlock()

	if needFlush {
		go h.state.flush()
	}
	return nil
}

func (h *DBHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &DBHandler{state: h.state, level: h.level, attrs: merged}
}

// WithGroup is a no-op: DB rows keep a flat context.
func (h *DBHandler) WithGroup(string) slog.Handler {
	return h
}

func attrValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		m := make(map[string]any)
		for _, a := range v.Group() {
			m[a.Key] = attrValue(a.Value)
		}
		return m
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	default:
		return v.Any()
	}
}
