package repository

import (
	"context"

	"github.com/alexanderramin/timesflying/internal/domain"
)

type TimeEntryRepo interface {
	Add(ctx context.Context, e *domain.TimeEntry) error
	Get(ctx context.Context, id string) (*domain.TimeEntry, error)
	Patch(ctx context.Context, id string, p domain.EntryPatch) (*domain.TimeEntry, error)
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, q Query) ([]*domain.TimeEntry, error)
	First(ctx context.Context, q Query) (*domain.TimeEntry, error)
	Last(ctx context.Context, q Query) (*domain.TimeEntry, error)
	Count(ctx context.Context, q Query) (int, error)
}

type ProjectRepo interface {
	Add(ctx context.Context, p *domain.Project) error
	Get(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

var (
	_ TimeEntryRepo = (*SQLiteTimeEntryRepo)(nil)
	_ ProjectRepo   = (*SQLiteProjectRepo)(nil)
)
