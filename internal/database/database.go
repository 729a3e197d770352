package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/mangashelf/internal/entities"
	applog "github.com/mrlokans/mangashelf/internal/logger"
)

// models are migrated on every open.
var models = []any{
	&entities.CollectionRecord{},
	&entities.SyncRun{},
}

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (creating if needed) the local sqlite database and
// migrates the collection and sync history tables. The file is shared by
// short-lived commands and the serve daemon, so writers wait on each other
// instead of failing with SQLITE_BUSY.
func NewDatabase(dbPath string, log *zap.Logger) (*Database, error) {
	log = applog.OrNop(log)

	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open collection database %s: %w", dbPath, err)
	}

	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("migrate collection database: %w", err)
	}

	log.Debug("collection database ready", zap.String("path", dbPath), zap.Int("models", len(models)))
	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
