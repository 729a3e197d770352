// Package credstore keeps the session bearer token in a local sqlite database,
// sealed with XChaCha20-Poly1305. Operations report success as a boolean and
// never surface storage errors to callers; failures are logged.
package credstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/mangashelf/internal/crypto"
	"github.com/mrlokans/mangashelf/internal/entities"
	applog "github.com/mrlokans/mangashelf/internal/logger"
)

const (
	// EnvEncryptionKey is the environment variable for the encryption key
	EnvEncryptionKey = "TOKEN_ENCRYPTION_KEY"

	// DefaultKeyFileName is the default name for the key file
	DefaultKeyFileName = ".mangashelf-token-key"
)

// Store is the credential store for a single account slot.
type Store struct {
	db      *gorm.DB
	sealer  *crypto.Sealer
	account string
	log     *zap.Logger
}

// Config holds configuration for the credential store
type Config struct {
	// DatabasePath is the path to the SQLite database file
	DatabasePath string

	// EncryptionKey is the base64-encoded 32-byte key.
	// If empty, the environment and then the key file are consulted.
	EncryptionKey string

	// KeyFilePath defaults to ~/.mangashelf-token-key
	KeyFilePath string

	// Account defaults to entities.DefaultAccount
	Account string

	Logger *zap.Logger
}

// New opens (and migrates) the credential database.
func New(cfg Config) (*Store, error) {
	log := applog.OrNop(cfg.Logger)

	key, err := resolveEncryptionKey(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve encryption key: %w", err)
	}

	sealer, err := crypto.NewSealerFromBase64(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create sealer: %w", err)
	}

	// Commands and the serve daemon both write here; wait out a busy writer
	// rather than failing a login.
	dsn := cfg.DatabasePath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&entities.StoredCredential{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	account := cfg.Account
	if account == "" {
		account = entities.DefaultAccount
	}

	return &Store{
		db:      db,
		sealer:  sealer,
		account: account,
		log:     log,
	}, nil
}

// resolveEncryptionKey picks the key from config, then env, then the key file,
// generating and persisting a new key when none exists yet.
func resolveEncryptionKey(cfg Config, log *zap.Logger) (string, error) {
	if key := strings.TrimSpace(cfg.EncryptionKey); key != "" {
		return key, nil
	}

	if envKey := strings.TrimSpace(os.Getenv(EnvEncryptionKey)); envKey != "" {
		return envKey, nil
	}

	keyFilePath := cfg.KeyFilePath
	if keyFilePath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		keyFilePath = filepath.Join(homeDir, DefaultKeyFileName)
	}

	if data, err := os.ReadFile(keyFilePath); err == nil {
		// Hand-written key files usually end with a newline.
		return strings.TrimSpace(string(data)), nil
	}

	newKey, err := crypto.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate encryption key: %w", err)
	}

	if err := os.WriteFile(keyFilePath, []byte(newKey), 0600); err != nil {
		return "", fmt.Errorf("failed to save encryption key to %s: %w", keyFilePath, err)
	}

	log.Info("generated new token encryption key", zap.String("path", keyFilePath))
	return newKey, nil
}

// Save seals and stores token, replacing any previous one.
func (s *Store) Save(token string) bool {
	if token == "" {
		s.log.Warn("refusing to store empty token")
		return false
	}

	sealed, err := s.sealer.Seal(token, []byte(s.account))
	if err != nil {
		s.log.Error("failed to seal token", zap.Error(err))
		return false
	}

	// One upsert, so two processes saving at once cannot both insert.
	record := &entities.StoredCredential{Account: s.account, Token: sealed}
	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "account"}},
		DoUpdates: clause.Assignments(map[string]any{
			"token":      sealed,
			"deleted_at": nil,
			"updated_at": time.Now(),
		}),
	}).Create(record).Error
	if err != nil {
		s.log.Error("failed to save token", zap.Error(err))
		return false
	}
	return true
}

// Get returns the stored token. ok is false when no readable token exists.
func (s *Store) Get() (token string, ok bool) {
	var record entities.StoredCredential
	err := s.db.Where("account = ?", s.account).First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error("failed to read token", zap.Error(err))
		}
		return "", false
	}

	token, err = s.sealer.Open(record.Token, []byte(s.account))
	if err != nil || token == "" {
		s.log.Warn("stored token is unreadable", zap.Error(err))
		return "", false
	}

	now := time.Now()
	s.db.Model(&record).UpdateColumn("last_used_at", now)

	return token, true
}

// Delete removes the stored token. Deleting a missing token succeeds.
func (s *Store) Delete() bool {
	err := s.db.Unscoped().Where("account = ?", s.account).Delete(&entities.StoredCredential{}).Error
	if err != nil {
		s.log.Error("failed to delete token", zap.Error(err))
		return false
	}
	return true
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
