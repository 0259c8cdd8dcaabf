package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zippicks/critic-backend/internal/models"
	"github.com/zippicks/critic-backend/internal/tables"
)

func TestMigrateUsesRegistryNames(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	reg, err := tables.NewRegistry("zp_")
	require.NoError(t, err)
	require.NoError(t, MigrateShared(db, reg))
	require.NoError(t, MigrateModels(db, reg, map[string]interface{}{
		tables.Sets:  &models.ListSet{},
		tables.Items: &models.ListItem{},
		tables.Meta:  &models.ListMeta{},
	}))

	for _, logical := range reg.All() {
		assert.True(t, db.Migrator().HasTable(reg.MustName(logical)), logical)
	}
	assert.False(t, db.Migrator().HasTable("list_sets"))
	assert.NoError(t, Ping(db))
}

func TestMigrateModelsRejectsUnknownTable(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	reg, err := tables.NewRegistry("")
	require.NoError(t, err)
	err = MigrateModels(db, reg, map[string]interface{}{"reviews": &models.ListItem{}})
	assert.Error(t, err)
}
