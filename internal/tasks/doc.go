// Package tasks runs cloud sync echoes through persistent backlite queues.
//
// Local edits enqueue a SyncUpTask or DeleteFromCloudTask through Submitter.
// Workers started by Client.Start read the current local record when the
// task runs and push it through the sync engine exactly once; failures are
// logged and dropped. The queue lives in its own SQLite file next to the main
// database ("<name>-tasks.db").
package tasks
