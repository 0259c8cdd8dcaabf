package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zippicks/critic-backend/internal/database"
	"github.com/zippicks/critic-backend/internal/models"
	"github.com/zippicks/critic-backend/internal/tables"
)

func TestLevelNames(t *testing.T) {
	assert.Equal(t, "ERROR", LevelName(slog.LevelError))
	assert.Equal(t, "WARNING", LevelName(slog.LevelWarn))
	assert.Equal(t, "PERFORMANCE", LevelName(LevelPerformance))
	assert.Equal(t, "INFO", LevelName(slog.LevelInfo))
	assert.Equal(t, "DEBUG", LevelName(slog.LevelDebug))

	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelPerformance, ParseLevel("performance"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestTextHandlerWritesOneLinePerEntry(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.New(NewTextHandler(&buf, slog.LevelDebug)))

	log.Info("list loaded", "set_id", 7)
	log.Performance("lists.get_items", 1500*time.Microsecond, "set_id", 7)
	log.Warning("cache store unavailable")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "level=INFO")
	assert.Contains(t, lines[0], "set_id=7")
	assert.Contains(t, lines[1], "level=PERFORMANCE")
	assert.Contains(t, lines[1], "operation=lists.get_items")
	assert.Contains(t, lines[1], "duration_ms=1.5")
	assert.Contains(t, lines[2], "level=WARNING")
}

func TestThresholdFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.New(NewTextHandler(&buf, slog.LevelInfo)))
	log.Debug("hidden")
	assert.Empty(t, buf.String())

	log.With("component", "cache").Error("shown")
	assert.Contains(t, buf.String(), "component=cache")
}

func TestNopLogger(t *testing.T) {
	log := Nop()
	log.Error("x")
	log.With("a", 1).Performance("op", time.Second)
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink down")
}

func TestMultiHandlerKeepsGoingAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(failingHandler{}, NewTextHandler(&buf, slog.LevelInfo))

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0))
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestFileSinkRotatesAndKeepsBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.log")
	sink := NewFileSink(path, 0, 2, slog.LevelInfo)
	log := New(slog.New(sink.Handler()))

	for i := 0; i < 4; i++ {
		log.Info("entry", "n", i)
		require.NoError(t, sink.Rotate())
		// backup names carry millisecond timestamps
		time.Sleep(5 * time.Millisecond)
	}
	log.Info("last")
	require.NoError(t, sink.Close())

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(current), "msg=last")

	// lumberjack prunes old backups asynchronously.
	assert.Eventually(t, func() bool {
		matches, _ := filepath.Glob(filepath.Join(dir, "app-*.log"))
		return len(matches) == 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDBHandlerPersistsAndPrunes(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "logs.db"))
	require.NoError(t, err)
	reg, err := tables.NewRegistry("")
	require.NoError(t, err)
	require.NoError(t, database.MigrateShared(db, reg))
	table := reg.MustName(tables.Logs)

	h := NewDBHandler(db, table, slog.LevelWarn)
	t.Cleanup(h.Stop)
	log := New(slog.New(h)).With("request_id", "req-1")

	log.Info("not persisted")
	log.Error("delete failed", "operation", "lists.delete_set", "set_id", 3, "error", errors.New("boom"))
	h.Flush()

	var rows []models.LogEntry
	require.NoError(t, db.Table(table).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "ERROR", rows[0].Level)
	assert.Equal(t, "lists.delete_set", rows[0].Operation)
	assert.Equal(t, "req-1", rows[0].RequestID)
	assert.Equal(t, "boom", rows[0].Error)
	assert.JSONEq(t, `{"set_id":3}`, string(rows[0].Context))

	require.NoError(t, db.Table(table).Where("id = ?", rows[0].ID).
		Update("timestamp", time.Now().Add(-48*time.Hour)).Error)

	deleted, err := PruneLogs(db, table, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestDBHandlerStopWritesBufferedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")
	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	reg, err := tables.NewRegistry("")
	require.NoError(t, err)
	require.NoError(t, database.MigrateShared(db, reg))
	table := reg.MustName(tables.Logs)

	h := NewDBHandler(db, table, slog.LevelWarn)
	New(slog.New(h)).Error("shutdown in progress", "operation", "server.shutdown")
	h.Stop()
	h.Stop()
	require.NoError(t, database.Close(db))

	reopened, err := database.OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(reopened) })

	var count int64
	require.NoError(t, reopened.Table(table).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
