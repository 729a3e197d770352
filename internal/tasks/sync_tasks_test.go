package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/mangashelf/internal/cloudsync"
	"github.com/mrlokans/mangashelf/internal/entities"
	"github.com/mrlokans/mangashelf/internal/mangaapi"
)

type fakePusher struct {
	mu      sync.Mutex
	pushed  []entities.CollectionRecord
	deleted []int
	err     error
	skipped bool
	done    chan struct{}
}

func newFakePusher() *fakePusher {
	return &fakePusher{done: make(chan struct{}, 8)}
}

func (p *fakePusher) SyncUp(ctx context.Context, record entities.CollectionRecord) cloudsync.Event {
	p.mu.Lock()
	p.pushed = append(p.pushed, record)
	p.mu.Unlock()
	p.done <- struct{}{}
	return cloudsync.Event{Op: cloudsync.OpSyncUp, MangaID: record.MangaID, Err: p.err, Skipped: p.skipped}
}

func (p *fakePusher) DeleteFromCloud(ctx context.Context, mangaID int) cloudsync.Event {
	p.mu.Lock()
	p.deleted = append(p.deleted, mangaID)
	p.mu.Unlock()
	p.done <- struct{}{}
	return cloudsync.Event{Op: cloudsync.OpDeleteFromCloud, MangaID: mangaID, Err: p.err, Skipped: p.skipped}
}

type mapReader struct {
	records map[int]entities.CollectionRecord
	err     error
}

func (r mapReader) Find(mangaID int) (*entities.CollectionRecord, error) {
	if r.err != nil {
		return nil, r.err
	}
	rec, ok := r.records[mangaID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func TestSyncTaskConfig(t *testing.T) {
	up := SyncUpTask{MangaID: 1}.Config()
	assert.Equal(t, "collection_sync_up", up.Name)
	assert.Equal(t, 1, up.MaxAttempts)
	assert.Zero(t, up.Backoff)
	assert.NotNil(t, up.Retention)

	del := DeleteFromCloudTask{MangaID: 1}.Config()
	assert.Equal(t, "collection_delete", del.Name)
	assert.Equal(t, 1, del.MaxAttempts)
	assert.Zero(t, del.Backoff)
}

func TestSyncUpProcessor_PushesCurrentRecord(t *testing.T) {
	pusher := newFakePusher()
	store := mapReader{records: map[int]entities.CollectionRecord{
		7: {MangaID: 7, VolumesOwned: 12},
	}}

	err := SyncUpProcessor(pusher, store, time.Second, nil)(context.Background(), SyncUpTask{MangaID: 7})

	require.NoError(t, err)
	require.Len(t, pusher.pushed, 1)
	assert.Equal(t, 12, pusher.pushed[0].VolumesOwned)
}

func TestSyncUpProcessor_RecordGone(t *testing.T) {
	pusher := newFakePusher()

	err := SyncUpProcessor(pusher, mapReader{}, time.Second, nil)(context.Background(), SyncUpTask{MangaID: 7})

	require.NoError(t, err)
	assert.Empty(t, pusher.pushed)
}

func TestSyncUpProcessor_ReadFailureFailsTask(t *testing.T) {
	pusher := newFakePusher()

	err := SyncUpProcessor(pusher, mapReader{err: errors.New("disk I/O error")}, time.Second, nil)(context.Background(), SyncUpTask{MangaID: 7})

	require.Error(t, err)
	assert.Empty(t, pusher.pushed)
}

func TestDeleteProcessor_SkipsWhenReAdded(t *testing.T) {
	pusher := newFakePusher()
	store := mapReader{records: map[int]entities.CollectionRecord{3: {MangaID: 3}}}

	err := DeleteFromCloudProcessor(pusher, store, time.Second, nil)(context.Background(), DeleteFromCloudTask{MangaID: 3})

	require.NoError(t, err)
	assert.Empty(t, pusher.deleted)
}

func TestDeleteProcessor_Deletes(t *testing.T) {
	pusher := newFakePusher()

	err := DeleteFromCloudProcessor(pusher, mapReader{}, time.Second, nil)(context.Background(), DeleteFromCloudTask{MangaID: 3})

	require.NoError(t, err)
	assert.Equal(t, []int{3}, pusher.deleted)
}

func TestProcessorOutcome_RemoteFailuresAreSwallowed(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		skipped bool
	}{
		{name: "success"},
		{name: "signed out", skipped: true},
		{name: "transport failure", err: &mangaapi.TransportError{Err: errors.New("connection reset")}},
		{name: "server error", err: &mangaapi.StatusError{Code: 503}},
		{name: "unauthorized", err: &mangaapi.StatusError{Code: 401}},
		{name: "bad request", err: &mangaapi.StatusError{Code: 400}},
		{name: "decode failure", err: &mangaapi.DecodeError{Err: errors.New("unexpected EOF")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pusher := newFakePusher()
			pusher.err = tt.err
			pusher.skipped = tt.skipped
			store := mapReader{records: map[int]entities.CollectionRecord{1: {MangaID: 1}}}

			err := SyncUpProcessor(pusher, store, time.Second, nil)(context.Background(), SyncUpTask{MangaID: 1})
			assert.NoError(t, err)

			err = DeleteFromCloudProcessor(pusher, mapReader{}, time.Second, nil)(context.Background(), DeleteFromCloudTask{MangaID: 2})
			assert.NoError(t, err)

			assert.Len(t, pusher.pushed, 1)
			assert.Equal(t, []int{2}, pusher.deleted)
		})
	}
}

func TestSyncQueues_FailedEchoIsAttemptedOnce(t *testing.T) {
	client := newTestClient(t)
	pusher := newFakePusher()
	pusher.err = &mangaapi.TransportError{Err: errors.New("connection refused")}
	store := mapReader{records: map[int]entities.CollectionRecord{5: {MangaID: 5, VolumesOwned: 2}}}
	client.Register(NewSyncQueues(pusher, store, DefaultConfig(), nil)...)

	sub := NewSubmitter(client, nil)
	sub.SubmitSyncUp(entities.CollectionRecord{MangaID: 5})
	sub.SubmitDelete(9)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	require.Empty(t, client.Await(waitCtx, sub.Submitted(), 20*time.Millisecond))

	// Leave time for a retry to show up if one were scheduled.
	time.Sleep(300 * time.Millisecond)

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	assert.Len(t, pusher.pushed, 1)
	assert.Equal(t, []int{9}, pusher.deleted)
}

func TestSubmitter_QueuesAreDrainedByWorkers(t *testing.T) {
	client := newTestClient(t)
	pusher := newFakePusher()
	store := mapReader{records: map[int]entities.CollectionRecord{5: {MangaID: 5, VolumesOwned: 2}}}
	client.Register(NewSyncQueues(pusher, store, DefaultConfig(), nil)...)

	sub := NewSubmitter(client, nil)
	sub.SubmitSyncUp(entities.CollectionRecord{MangaID: 5})
	sub.SubmitDelete(9)
	require.Len(t, sub.Submitted(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	assert.Empty(t, client.Await(waitCtx, sub.Submitted(), 20*time.Millisecond))

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	require.Len(t, pusher.pushed, 1)
	assert.Equal(t, 2, pusher.pushed[0].VolumesOwned)
	assert.Equal(t, []int{9}, pusher.deleted)
}
