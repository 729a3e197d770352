// Package scheduler runs the periodic background work of the daemon: pulling
// the cloud collection into the local store and renewing the session token.
//
// Both are Jobs on a five-field cron schedule (minute hour dom month dow).
// RunCollectionSync is also used directly by the CLI so a manual sync is
// recorded in the same run history as a scheduled one.
package scheduler
