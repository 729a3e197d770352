package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/mangashelf/internal/auth"
	"github.com/mrlokans/mangashelf/internal/catalog"
	"github.com/mrlokans/mangashelf/internal/cloudsync"
	"github.com/mrlokans/mangashelf/internal/credstore"
	dbcollection "github.com/mrlokans/mangashelf/internal/database/collection"
	dbsync "github.com/mrlokans/mangashelf/internal/database/sync"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
	"github.com/mrlokans/mangashelf/internal/scheduler"
	"github.com/mrlokans/mangashelf/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// LocalStore implementations
var _ cloudsync.LocalStore = (*dbcollection.Repository)(nil)

// RecordReader implementations
var _ tasks.RecordReader = (*dbcollection.Repository)(nil)

// CredentialStore implementations
var _ auth.CredentialStore = (*credstore.Store)(nil)

// RunRecorder implementations
var _ scheduler.RunRecorder = (*dbsync.Repository)(nil)

// =============================================================================
// External Services
// =============================================================================

var _ auth.Remote = (*mangaapi.Client)(nil)
var _ cloudsync.Remote = (*mangaapi.Client)(nil)
var _ catalog.Source = (*mangaapi.Client)(nil)

// =============================================================================
// Session and Sync
// =============================================================================

var _ cloudsync.Session = (*auth.Session)(nil)
var _ scheduler.TokenRefresher = (*auth.Session)(nil)

var _ scheduler.SyncDowner = (*cloudsync.Engine)(nil)
var _ tasks.Pusher = (*cloudsync.Engine)(nil)

// Submitter implementations
var _ cloudsync.Submitter = (*cloudsync.Dispatcher)(nil)
var _ cloudsync.Submitter = (*tasks.Submitter)(nil)
