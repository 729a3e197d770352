package tasks

import (
	"sync"

	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/mrlokans/mangashelf/internal/cloudsync"
	"github.com/mrlokans/mangashelf/internal/entities"
	applog "github.com/mrlokans/mangashelf/internal/logger"
)

// Submitter enqueues cloud echoes instead of running them inline, so they
// survive a process exit and are run by whichever process starts the
// workers.
type Submitter struct {
	client *Client
	log    *zap.Logger

	mu  sync.Mutex
	ids []string
}

var _ cloudsync.Submitter = (*Submitter)(nil)

func NewSubmitter(client *Client, log *zap.Logger) *Submitter {
	return &Submitter{client: client, log: applog.OrNop(log)}
}

func (s *Submitter) SubmitSyncUp(record entities.CollectionRecord) {
	s.enqueue(SyncUpTask{MangaID: record.MangaID}, record.MangaID)
}

func (s *Submitter) SubmitDelete(mangaID int) {
	s.enqueue(DeleteFromCloudTask{MangaID: mangaID}, mangaID)
}

func (s *Submitter) enqueue(task backlite.Task, mangaID int) {
	ids, err := s.client.Add(task).Save()
	if err != nil {
		s.log.Error("failed to queue cloud sync", zap.Int("manga_id", mangaID), zap.Error(err))
		return
	}
	s.mu.Lock()
	s.ids = append(s.ids, ids...)
	s.mu.Unlock()
}

// Submitted returns the IDs of every task queued so far.
func (s *Submitter) Submitted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ids...)
}
