package service

import (
	"context"

	"github.com/alexanderramin/timesflying/internal/domain"
	"github.com/alexanderramin/timesflying/internal/event"
	"github.com/alexanderramin/timesflying/internal/livequery"
	"github.com/alexanderramin/timesflying/internal/repository"
)

const (
	DefaultPerPage     = 30
	DefaultSearchLimit = 50
)

var (
	entryCollections   = []event.Collection{event.TimeEntries}
	projectCollections = []event.Collection{event.Projects}
)

type catalogService struct {
	entries  repository.TimeEntryRepo
	projects repository.ProjectRepo
	changes  livequery.ChangeSource
}

func NewCatalogService(entries repository.TimeEntryRepo, projects repository.ProjectRepo, changes livequery.ChangeSource) CatalogService {
	return &catalogService{entries: entries, projects: projects, changes: changes}
}

func normalizePage(page, perPage int) (int, int) {
	if page < 0 {
		page = 0
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return page, perPage
}

func newestFirst() repository.Query {
	return repository.NewQuery().OrderBy(repository.FieldStartTime, repository.Desc)
}

// TimeEntries follows page and perPage; a nil ref means page 0 or the
// default page size.
func (s *catalogService) TimeEntries(page, perPage livequery.Ref[int]) livequery.Ref[livequery.Observable[[]*domain.TimeEntry]] {
	if page == nil {
		page = livequery.Static(0)
	}
	if perPage == nil {
		perPage = livequery.Static(DefaultPerPage)
	}
	return livequery.Combine[int, int, livequery.Observable[[]*domain.TimeEntry]](page, perPage, s.TimeEntriesPage)
}

func (s *catalogService) TimeEntriesPage(page, perPage int) livequery.Observable[[]*domain.TimeEntry] {
	return livequery.LiveQuery(s.changes, entryCollections, func(ctx context.Context) ([]*domain.TimeEntry, error) {
		return s.ListTimeEntries(ctx, page, perPage)
	})
}

func (s *catalogService) PinnedEntries() livequery.Observable[[]*domain.TimeEntry] {
	return livequery.LiveQuery(s.changes, entryCollections, s.ListPinned)
}

func (s *catalogService) ActiveEntry() livequery.Observable[*domain.TimeEntry] {
	return livequery.LiveQuery(s.changes, entryCollections, s.GetActive)
}

func (s *catalogService) SearchDescriptions(query string, limit int) livequery.Observable[[]string] {
	return livequery.LiveQuery(s.changes, entryCollections, func(ctx context.Context) ([]string, error) {
		return s.Search(ctx, query, limit)
	})
}

func (s *catalogService) LastProject() livequery.Observable[*string] {
	return livequery.LiveQuery(s.changes, entryCollections, s.GetLastProject)
}

func (s *catalogService) Projects() livequery.Observable[[]*domain.Project] {
	return livequery.LiveQuery(s.changes, projectCollections, s.ListProjects)
}

// ListTimeEntries returns entries [page*perPage, page*perPage+perPage) by
// start time, newest first. A page past the end is empty.
func (s *catalogService) ListTimeEntries(ctx context.Context, page, perPage int) ([]*domain.TimeEntry, error) {
	page, perPage = normalizePage(page, perPage)
	return s.entries.Query(ctx, newestFirst().Offset(page*perPage).Limit(perPage))
}

func (s *catalogService) ListPinned(ctx context.Context) ([]*domain.TimeEntry, error) {
	return s.entries.Query(ctx, newestFirst().Where(repository.Equals(repository.FieldPinned, true)))
}

// GetActive returns the running entry or nil.
func (s *catalogService) GetActive(ctx context.Context) (*domain.TimeEntry, error) {
	return s.entries.First(ctx, newestFirst().Where(repository.IsNull(repository.FieldEndTime)))
}

// Search returns up to limit descriptions containing query, ignoring case,
// newest first. An empty query matches every description.
func (s *catalogService) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	entries, err := s.entries.Query(ctx, newestFirst().Where(repository.DescriptionContains(query)).Limit(limit))
	if err != nil {
		return nil, err
	}
	descriptions := make([]string, 0, len(entries))
	for _, e := range entries {
		descriptions = append(descriptions, e.Description)
	}
	return descriptions, nil
}

// GetLastProject returns the project of the most recently started entry,
// or nil when there are no entries or it has no project.
func (s *catalogService) GetLastProject(ctx context.Context) (*string, error) {
	last, err := s.entries.Last(ctx, repository.NewQuery().OrderBy(repository.FieldStartTime, repository.Asc))
	if err != nil {
		return nil, err
	}
	if last == nil || last.ProjectID == "" {
		return nil, nil
	}
	id := last.ProjectID
	return &id, nil
}

func (s *catalogService) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	return s.projects.List(ctx)
}
