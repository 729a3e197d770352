// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - LocalStore: staged local collection the sync engine reconciles (internal/cloudsync/engine.go)
//   - RecordReader: current local state read by queued cloud echoes (internal/tasks/sync_tasks.go)
//   - CredentialStore: encrypted bearer token persistence (internal/auth/session.go)
//   - RunRecorder: sync-down run history (internal/scheduler/collection_sync.go)
//
// ## External Service Interfaces
//
//   - auth.Remote: account creation, login, profile and token refresh
//   - cloudsync.Remote: cloud collection push, fetch and delete
//   - catalog.Source: catalog pages, vocabularies and title search
//
// All three are implemented by mangaapi.Client and faked in tests.
//
// ## Session and Sync Interfaces
//
//   - cloudsync.Session: token access and invalidation on 401
//   - cloudsync.Submitter: fire-and-forget cloud echoes of committed edits
//     (in-process Dispatcher, or the persistent task queue)
//   - scheduler.SyncDowner, scheduler.TokenRefresher: what the cron jobs drive
//   - tasks.Pusher: what the queued cloud echoes drive
//
// # Compile-time Checks
//
// checks.go holds assertions that every concrete type satisfies the
// interfaces it is wired to.
package interfaces
