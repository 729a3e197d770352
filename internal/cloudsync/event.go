package cloudsync

import "fmt"

type Op string

const (
	OpSyncDown        Op = "sync_down"
	OpSyncUp          Op = "sync_up"
	OpDeleteFromCloud Op = "delete_from_cloud"
)

// Event reports the completion of one engine operation.
type Event struct {
	Op      Op
	MangaID int
	// Skipped is set when nobody was signed in and nothing was attempted.
	Skipped bool
	Err     error
	// Report is only set for OpSyncDown.
	Report *Report
}

func (e Event) String() string {
	switch {
	case e.Skipped:
		return fmt.Sprintf("%s skipped (not signed in)", e.Op)
	case e.Err != nil:
		return fmt.Sprintf("%s manga=%d failed: %v", e.Op, e.MangaID, e.Err)
	case e.Report != nil:
		return fmt.Sprintf("%s %s", e.Op, e.Report)
	default:
		return fmt.Sprintf("%s manga=%d ok", e.Op, e.MangaID)
	}
}

// Report summarizes a sync-down run.
type Report struct {
	Skipped  bool
	Total    int
	Updated  int
	Inserted int
	Failed   int
	// Err is set when the cloud collection could not be fetched at all.
	Err error
}

func (r Report) String() string {
	if r.Skipped {
		return "skipped (not signed in)"
	}
	if r.Err != nil {
		return fmt.Sprintf("failed: %v", r.Err)
	}
	return fmt.Sprintf("%d entries: %d updated, %d inserted, %d failed", r.Total, r.Updated, r.Inserted, r.Failed)
}
