package store

import (
	"context"

	"github.com/alexanderramin/timesflying/internal/db"
	"github.com/alexanderramin/timesflying/internal/domain"
	"github.com/alexanderramin/timesflying/internal/event"
	"github.com/alexanderramin/timesflying/internal/repository"
)

// TimeEntryTable exposes the time entry primitives and publishes a change
// after each successful write.
type TimeEntryTable struct {
	repo *repository.SQLiteTimeEntryRepo
	uow  db.UnitOfWork
	bus  *event.Bus
}

func (t *TimeEntryTable) publish(op event.Op, id string) {
	// Subscribers are in-process; a mirror failure only affects Stream consumers.
	_ = t.bus.Publish(event.Change{Collection: event.TimeEntries, Op: op, ID: id})
}

func (t *TimeEntryTable) Add(ctx context.Context, e *domain.TimeEntry) error {
	if err := t.repo.Add(ctx, e); err != nil {
		return err
	}
	t.publish(event.OpAdd, e.ID)
	return nil
}

func (t *TimeEntryTable) Get(ctx context.Context, id string) (*domain.TimeEntry, error) {
	return t.repo.Get(ctx, id)
}

// Patch applies p atomically (read and write share one transaction).
func (t *TimeEntryTable) Patch(ctx context.Context, id string, p domain.EntryPatch) (*domain.TimeEntry, error) {
	var updated *domain.TimeEntry
	err := t.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var err error
		updated, err = repository.NewSQLiteTimeEntryRepo(tx).Patch(ctx, id, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	t.publish(event.OpUpdate, id)
	return updated, nil
}

func (t *TimeEntryTable) Delete(ctx context.Context, id string) error {
	if err := t.repo.Delete(ctx, id); err != nil {
		return err
	}
	t.publish(event.OpDelete, id)
	return nil
}

func (t *TimeEntryTable) Query(ctx context.Context, q repository.Query) ([]*domain.TimeEntry, error) {
	return t.repo.Query(ctx, q)
}

func (t *TimeEntryTable) First(ctx context.Context, q repository.Query) (*domain.TimeEntry, error) {
	return t.repo.First(ctx, q)
}

func (t *TimeEntryTable) Last(ctx context.Context, q repository.Query) (*domain.TimeEntry, error) {
	return t.repo.Last(ctx, q)
}

func (t *TimeEntryTable) Count(ctx context.Context, q repository.Query) (int, error) {
	return t.repo.Count(ctx, q)
}

// ProjectTable exposes the project primitives and publishes a change after
// each successful write.
type ProjectTable struct {
	repo *repository.SQLiteProjectRepo
	bus  *event.Bus
}

func (t *ProjectTable) publish(op event.Op, id string) {
	_ = t.bus.Publish(event.Change{Collection: event.Projects, Op: op, ID: id})
}

func (t *ProjectTable) Add(ctx context.Context, p *domain.Project) error {
	if err := t.repo.Add(ctx, p); err != nil {
		return err
	}
	t.publish(event.OpAdd, p.ID)
	return nil
}

func (t *ProjectTable) Get(ctx context.Context, id string) (*domain.Project, error) {
	return t.repo.Get(ctx, id)
}

func (t *ProjectTable) List(ctx context.Context) ([]*domain.Project, error) {
	return t.repo.List(ctx)
}

func (t *ProjectTable) Update(ctx context.Context, p *domain.Project) error {
	if err := t.repo.Update(ctx, p); err != nil {
		return err
	}
	t.publish(event.OpUpdate, p.ID)
	return nil
}

func (t *ProjectTable) Delete(ctx context.Context, id string) error {
	if err := t.repo.Delete(ctx, id); err != nil {
		return err
	}
	t.publish(event.OpDelete, id)
	return nil
}

var (
	_ repository.TimeEntryRepo = (*TimeEntryTable)(nil)
	_ repository.ProjectRepo   = (*ProjectTable)(nil)
)
