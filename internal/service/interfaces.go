package service

import (
	"context"

	"github.com/alexanderramin/timesflying/internal/domain"
	"github.com/alexanderramin/timesflying/internal/livequery"
)

// CatalogService exposes the named read models. Live methods return
// observables that re-evaluate after every write to their collection;
// the List/Get/Search methods evaluate once.
type CatalogService interface {
	TimeEntries(page, perPage livequery.Ref[int]) livequery.Ref[livequery.Observable[[]*domain.TimeEntry]]
	TimeEntriesPage(page, perPage int) livequery.Observable[[]*domain.TimeEntry]
	PinnedEntries() livequery.Observable[[]*domain.TimeEntry]
	ActiveEntry() livequery.Observable[*domain.TimeEntry]
	SearchDescriptions(query string, limit int) livequery.Observable[[]string]
	LastProject() livequery.Observable[*string]
	Projects() livequery.Observable[[]*domain.Project]

	ListTimeEntries(ctx context.Context, page, perPage int) ([]*domain.TimeEntry, error)
	ListPinned(ctx context.Context) ([]*domain.TimeEntry, error)
	GetActive(ctx context.Context) (*domain.TimeEntry, error)
	Search(ctx context.Context, query string, limit int) ([]string, error)
	GetLastProject(ctx context.Context) (*string, error)
	ListProjects(ctx context.Context) ([]*domain.Project, error)
}

// TrackingService holds the time entry commands. At most one entry is
// running after any sequence of Start, Stop and Continue.
type TrackingService interface {
	Start(ctx context.Context, description, projectID string) (*domain.TimeEntry, error)
	Stop(ctx context.Context) (*domain.TimeEntry, error)
	Continue(ctx context.Context, id string) (*domain.TimeEntry, error)
	TogglePin(ctx context.Context, id string) (*domain.TimeEntry, error)
	Delete(ctx context.Context, id string, confirm Confirmer) (bool, error)
	Update(ctx context.Context, id string, patch domain.EntryPatch) (*domain.TimeEntry, error)
}

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
}

// Confirmer gates destructive commands. Returning false cancels the command.
type Confirmer interface {
	Confirm(ctx context.Context, entry *domain.TimeEntry) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, entry *domain.TimeEntry) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, entry *domain.TimeEntry) (bool, error) {
	return f(ctx, entry)
}

// AlwaysConfirm approves every request; used for non-interactive --yes runs.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, *domain.TimeEntry) (bool, error) {
	return true, nil
})
