package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/timesflying/internal/domain"
	"github.com/alexanderramin/timesflying/internal/repository"
	"github.com/alexanderramin/timesflying/internal/store"
	"github.com/alexanderramin/timesflying/internal/testutil"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store    *store.Store
	clock    *testutil.FakeClock
	events   *recordingObserver
	catalog  CatalogService
	tracking TrackingService
	projects ProjectService
}

func setupServices(t *testing.T) *fixture {
	t.Helper()
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clk := testutil.NewFakeClock(baseTime)
	events := &recordingObserver{}
	return &fixture{
		store:    s,
		clock:    clk,
		events:   events,
		catalog:  NewCatalogService(s.TimeEntries(), s.Projects(), s.Changes()),
		tracking: NewTrackingService(s.TimeEntries(), WithClock(clk.Now), WithObserver(events)),
		projects: NewProjectService(s.Projects(), events),
	}
}

// seed adds n stopped half-hour entries an hour apart, oldest first, and
// returns them newest first.
func (f *fixture) seed(t *testing.T, n int, opts ...testutil.EntryOption) []*domain.TimeEntry {
	t.Helper()
	ctx := context.Background()
	newestFirst := make([]*domain.TimeEntry, n)
	for i := 0; i < n; i++ {
		start := baseTime.Add(-time.Duration(n-i) * time.Hour)
		e := testutil.NewTestEntry("task", append([]testutil.EntryOption{testutil.WithSpan(start, 30*time.Minute)}, opts...)...)
		e.Description = "task " + string(rune('A'+i))
		require.NoError(t, f.store.TimeEntries().Add(ctx, e))
		newestFirst[n-1-i] = e
	}
	return newestFirst
}

func (f *fixture) running(t *testing.T) []*domain.TimeEntry {
	t.Helper()
	entries, err := f.store.TimeEntries().Query(context.Background(),
		repository.NewQuery().Where(repository.IsNull(repository.FieldEndTime)))
	require.NoError(t, err)
	return entries
}

func (f *fixture) count(t *testing.T) int {
	t.Helper()
	n, err := f.store.TimeEntries().Count(context.Background(), repository.NewQuery())
	require.NoError(t, err)
	return n
}

func ids(entries []*domain.TimeEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	for i, e := range o.events {
		out[i] = e.Name
	}
	return out
}
