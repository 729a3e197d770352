// Package cloudsync reconciles the local collection with the user's cloud
// collection.
//
//	engine := cloudsync.NewEngine(client, records, session, cloudsync.WithLogger(log))
//	report := engine.SyncDown(ctx)          // cloud -> local, remote wins
//	engine.SyncUp(ctx, record)              // local -> cloud, after a local save
//	engine.DeleteFromCloud(ctx, record.MangaID)
//
// All operations are no-ops while signed out. Remote failures are logged and
// swallowed; an authorization failure additionally signs the session out.
//
// The cloud stores owned volumes as a list while the local record keeps a
// count. OwnedVolumes and CountOwned convert between the two assuming the
// user owns volumes 1..n.
package cloudsync
