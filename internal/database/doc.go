// Package database provides the local data access layer.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── collection/      # Collection records (staged unit of work)
//	└── sync/            # Sync-down run history
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./mangashelf.db", log)
//
//	records := collection.NewRepository(db.DB)
//	runs := sync.NewRepository(db.DB)
//
// # Interface Implementations
//
//   - collection.Repository: implements cloudsync.LocalStore and tasks.RecordReader
//   - sync.Repository: implements scheduler.RunRecorder
package database
