package cloudsync_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/mangashelf/internal/auth"
	"github.com/mrlokans/mangashelf/internal/cloudsync"
	"github.com/mrlokans/mangashelf/internal/credstore"
	"github.com/mrlokans/mangashelf/internal/crypto"
	"github.com/mrlokans/mangashelf/internal/database/collection"
	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
	"github.com/mrlokans/mangashelf/internal/mangaapi/fakeapi"
)

const (
	appToken = "app-token"
	email    = "reader@example.com"
	password = "correct-horse"
)

type device struct {
	session *auth.Session
	records *collection.Repository
	engine  *cloudsync.Engine
}

func newDevice(t *testing.T, client *mangaapi.Client) *device {
	t.Helper()
	dir := t.TempDir()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	store, err := credstore.New(credstore.Config{DatabasePath: filepath.Join(dir, "credentials.db"), EncryptionKey: key})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "collection.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.CollectionRecord{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	session := auth.NewSession(client, store)
	records := collection.NewRepository(db)
	return &device{
		session: session,
		records: records,
		engine:  cloudsync.NewEngine(client, records, session),
	}
}

func TestEngine_TwoDevices(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := fakeapi.New(fakeapi.Config{JWTSecret: "test-secret", AppToken: appToken}, fakeapi.SampleCatalog())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	client := mangaapi.NewClient(mangaapi.Config{BaseURL: ts.URL, AppToken: appToken})
	ctx := context.Background()

	phone := newDevice(t, client)
	require.NoError(t, phone.session.Register(ctx, email, password))

	reading := 3
	monster := &entities.CollectionRecord{MangaID: 1, Title: "Monster", VolumesOwned: 18, ReadingVolume: &reading, CompleteCollection: true}
	phone.records.Insert(monster)
	require.NoError(t, phone.records.Commit())
	require.NoError(t, phone.engine.SyncUp(ctx, *monster).Err)
	require.NoError(t, phone.engine.SyncUp(ctx, entities.CollectionRecord{MangaID: 2, VolumesOwned: 5}).Err)
	assert.Equal(t, 2, srv.CollectionSize(email))

	tablet := newDevice(t, client)
	require.NoError(t, tablet.session.Login(ctx, email, password))

	report := tablet.engine.SyncDown(ctx)
	assert.Equal(t, cloudsync.Report{Total: 2, Inserted: 2}, report)

	got, err := tablet.records.Find(1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Monster", got.Title)
	assert.Equal(t, 18, got.VolumesOwned)
	assert.Equal(t, 3, *got.ReadingVolume)
	assert.True(t, got.CompleteCollection)

	require.NoError(t, tablet.engine.DeleteFromCloud(ctx, 2).Err)
	assert.Equal(t, 1, srv.CollectionSize(email))

	srv.RevokeSessions(email)
	ev := phone.engine.SyncUp(ctx, *monster)
	assert.True(t, mangaapi.IsUnauthorized(ev.Err))
	assert.False(t, phone.session.IsAuthenticated(), "a rejected token signs the device out")

	assert.True(t, phone.engine.SyncUp(ctx, *monster).Skipped)
}
