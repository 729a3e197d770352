package cloudsync

import (
	"context"
	"sync"

	"github.com/mrlokans/mangashelf/internal/entities"
)

// Submitter accepts cloud echoes of local changes that have already been
// committed. Submission never blocks on the remote call.
type Submitter interface {
	SubmitSyncUp(record entities.CollectionRecord)
	SubmitDelete(mangaID int)
}

// Dispatcher runs engine operations on background goroutines. Completion is
// reported through the engine's observer; Wait blocks until everything
// submitted so far has finished.
type Dispatcher struct {
	ctx    context.Context
	engine *Engine
	wg     sync.WaitGroup
}

var _ Submitter = (*Dispatcher)(nil)

func NewDispatcher(ctx context.Context, engine *Engine) *Dispatcher {
	return &Dispatcher{ctx: ctx, engine: engine}
}

func (d *Dispatcher) SubmitSyncUp(record entities.CollectionRecord) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.engine.SyncUp(d.ctx, record)
	}()
}

func (d *Dispatcher) SubmitDelete(mangaID int) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.engine.DeleteFromCloud(d.ctx, mangaID)
	}()
}

func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
