package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Global
		API
		Catalog
		Database
		Credentials
		CloudSync
		TokenRefresh
		Tasks
		Log
		FakeAPI
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	API struct {
		BaseURL   string
		AppToken  string        // Sent as App-Token on mutating requests
		Timeout   time.Duration // Per-request timeout (default: 60s)
		RateLimit float64       // Requests per second, 0 disables limiting
	}
	Catalog struct {
		PageSize int
	}
	Database struct {
		Path string
	}
	Credentials struct {
		DatabasePath  string
		EncryptionKey string // base64-encoded 32-byte key
		KeyFilePath   string
	}
	CloudSync struct {
		Enabled  bool
		Schedule string // Cron format: "*/30 * * * *" = every 30 minutes
	}
	TokenRefresh struct {
		Enabled  bool
		Schedule string // Cron format: "0 */12 * * *" = every 12 hours
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		TaskTimeout     time.Duration
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Log struct {
		Level string
	}
	FakeAPI struct {
		Host      string
		Port      int32
		JWTSecret string
		TokenTTL  time.Duration
		AppToken  string
	}
)

// NewConfig reads configuration from the environment. Values from .env.local
// and .env are loaded first; variables already present in the environment win.
func NewConfig() *Config {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("shutdown_timeout", 15)
	v.SetDefault("manga_api_url", DefaultAPIURL)
	v.SetDefault("manga_app_token", "")
	v.SetDefault("manga_request_timeout", "60s")
	v.SetDefault("manga_rate_limit_rps", 5)
	v.SetDefault("catalog_page_size", DefaultPageSize)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("credentials_database_path", DefaultCredentialsDatabasePath)
	v.SetDefault("token_encryption_key", "")
	v.SetDefault("token_key_file", "")

	// Background sync defaults
	v.SetDefault("sync_enabled", true)
	v.SetDefault("sync_schedule", "*/30 * * * *")
	v.SetDefault("token_refresh_enabled", true)
	v.SetDefault("token_refresh_schedule", "0 */12 * * *")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_timeout", "2m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("log_level", "info")

	// Fake API server defaults
	v.SetDefault("fakeapi_host", "127.0.0.1")
	v.SetDefault("fakeapi_port", 8190)
	v.SetDefault("fakeapi_jwt_secret", "dev-secret-change-me")
	v.SetDefault("fakeapi_token_ttl", "48h")
	v.SetDefault("fakeapi_app_token", "")

	return &Config{
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT"),
		},
		API: API{
			BaseURL:   v.GetString("MANGA_API_URL"),
			AppToken:  v.GetString("MANGA_APP_TOKEN"),
			Timeout:   v.GetDuration("MANGA_REQUEST_TIMEOUT"),
			RateLimit: v.GetFloat64("MANGA_RATE_LIMIT_RPS"),
		},
		Catalog: Catalog{
			PageSize: v.GetInt("CATALOG_PAGE_SIZE"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Credentials: Credentials{
			DatabasePath:  v.GetString("CREDENTIALS_DATABASE_PATH"),
			EncryptionKey: v.GetString("TOKEN_ENCRYPTION_KEY"),
			KeyFilePath:   v.GetString("TOKEN_KEY_FILE"),
		},
		CloudSync: CloudSync{
			Enabled:  v.GetBool("SYNC_ENABLED"),
			Schedule: v.GetString("SYNC_SCHEDULE"),
		},
		TokenRefresh: TokenRefresh{
			Enabled:  v.GetBool("TOKEN_REFRESH_ENABLED"),
			Schedule: v.GetString("TOKEN_REFRESH_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			TaskTimeout:     v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Log: Log{
			Level: v.GetString("LOG_LEVEL"),
		},
		FakeAPI: FakeAPI{
			Host:      v.GetString("FAKEAPI_HOST"),
			Port:      v.GetInt32("FAKEAPI_PORT"),
			JWTSecret: v.GetString("FAKEAPI_JWT_SECRET"),
			TokenTTL:  v.GetDuration("FAKEAPI_TOKEN_TTL"),
			AppToken:  v.GetString("FAKEAPI_APP_TOKEN"),
		},
	}
}
