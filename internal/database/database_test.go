package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/entities"
)

func TestNewDatabase_Migrates(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDatabase(dbPath, nil)
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, db.DB.Migrator().HasTable(&entities.CollectionRecord{}))
	assert.True(t, db.DB.Migrator().HasTable(&entities.SyncRun{}))

	now := time.Now()
	require.NoError(t, db.DB.Create(&entities.CollectionRecord{MangaID: 1, Title: "Monster", DateAdded: now, LastUpdated: now}).Error)

	err = db.DB.Create(&entities.CollectionRecord{MangaID: 1, Title: "Monster again", DateAdded: now, LastUpdated: now}).Error
	assert.Error(t, err, "manga id is unique")
}

func TestNewDatabase_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := NewDatabase(dbPath, nil)
	require.NoError(t, err)
	require.NoError(t, db.DB.Create(&entities.CollectionRecord{MangaID: 2, Title: "Berserk"}).Error)
	require.NoError(t, db.Close())

	db, err = NewDatabase(dbPath, nil)
	require.NoError(t, err)
	defer db.Close()

	var count int64
	require.NoError(t, db.DB.Model(&entities.CollectionRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
