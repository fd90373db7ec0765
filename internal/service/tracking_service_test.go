package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/alexanderramin/timesflying/internal/domain"
	"github.com/alexanderramin/timesflying/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracking_StartThenStop(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	started, err := f.tracking.Start(ctx, "Write spec", "1")
	require.NoError(t, err)

	active, err := f.catalog.GetActive(ctx)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, started.ID, active.ID)
	assert.Equal(t, "Write spec", active.Description)
	assert.Equal(t, "1", active.ProjectID)
	assert.Nil(t, active.EndTime)
	assert.False(t, active.IsPinned)
	assert.True(t, active.StartTime.Equal(baseTime))

	f.clock.Advance(25 * time.Minute)
	stopped, err := f.tracking.Stop(ctx)
	require.NoError(t, err)
	require.NotNil(t, stopped)

	active, err = f.catalog.GetActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, active)

	got, err := f.store.TimeEntries().Get(ctx, started.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndTime)
	assert.False(t, got.EndTime.Before(got.StartTime))
	assert.Equal(t, 25*time.Minute, got.EndTime.Sub(got.StartTime))
}

func TestTracking_StartWhileRunningStopsPrevious(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	a, err := f.tracking.Start(ctx, "A", "")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	b, err := f.tracking.Start(ctx, "B", "")
	require.NoError(t, err)

	running := f.running(t)
	require.Len(t, running, 1)
	assert.Equal(t, b.ID, running[0].ID)

	gotA, err := f.store.TimeEntries().Get(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, gotA.EndTime)
	assert.True(t, gotA.EndTime.Equal(baseTime.Add(time.Minute)))
}

func TestTracking_AtMostOneRunningAfterAnySequence(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	var known []string
	for i := 0; i < 60; i++ {
		f.clock.Advance(time.Duration(rng.Intn(90)+1) * time.Second)
		switch rng.Intn(3) {
		case 0:
			e, err := f.tracking.Start(ctx, "work", "")
			require.NoError(t, err)
			known = append(known, e.ID)
		case 1:
			_, err := f.tracking.Stop(ctx)
			require.NoError(t, err)
		case 2:
			id := "missing"
			if len(known) > 0 {
				id = known[rng.Intn(len(known))]
			}
			e, err := f.tracking.Continue(ctx, id)
			require.NoError(t, err)
			if e != nil {
				known = append(known, e.ID)
			}
		}
		require.LessOrEqual(t, len(f.running(t)), 1, "step %d", i)
	}
}

func TestTracking_StopIsIdempotent(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	e, err := f.tracking.Start(ctx, "A", "")
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	first, err := f.tracking.Stop(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	f.clock.Advance(time.Minute)
	second, err := f.tracking.Stop(ctx)
	require.NoError(t, err)
	assert.Nil(t, second)

	got, err := f.store.TimeEntries().Get(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.EndTime.Equal(*first.EndTime), "second stop leaves the end time alone")
}

func TestTracking_StopWhenIdle(t *testing.T) {
	f := setupServices(t)

	e, err := f.tracking.Stop(context.Background())
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Zero(t, f.count(t))
}

func TestTracking_StopNeverEndsBeforeStart(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	_, err := f.tracking.Start(ctx, "A", "")
	require.NoError(t, err)
	f.clock.Advance(-time.Hour)

	stopped, err := f.tracking.Stop(ctx)
	require.NoError(t, err)
	assert.True(t, stopped.EndTime.Equal(stopped.StartTime))
}

func TestTracking_Continue(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	seeded := f.seed(t, 2)
	_, err := f.store.TimeEntries().Patch(ctx, seeded[1].ID, domain.EntryPatch{ProjectID: ptr("p-1")})
	require.NoError(t, err)

	e, err := f.tracking.Continue(ctx, seeded[1].ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.NotEqual(t, seeded[1].ID, e.ID)
	assert.Equal(t, seeded[1].Description, e.Description)
	assert.Equal(t, "p-1", e.ProjectID)
	assert.True(t, e.IsRunning())
	assert.Equal(t, 3, f.count(t))
}

func TestTracking_ContinueMissingIsNoop(t *testing.T) {
	f := setupServices(t)
	f.seed(t, 1)

	e, err := f.tracking.Continue(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, e)
	assert.Equal(t, 1, f.count(t))
	assert.Empty(t, f.running(t))
}

func TestTracking_TogglePinRoundTrip(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	e := f.seed(t, 1)[0]

	pinned, err := f.tracking.TogglePin(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, pinned.IsPinned)

	unpinned, err := f.tracking.TogglePin(ctx, e.ID)
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)
}

func TestTracking_TogglePinMissing(t *testing.T) {
	f := setupServices(t)
	f.seed(t, 2)

	_, err := f.tracking.TogglePin(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, 2, f.count(t))
}

func TestTracking_DeleteDeclined(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	e := f.seed(t, 1)[0]

	var asked *domain.TimeEntry
	deleted, err := f.tracking.Delete(ctx, e.ID, ConfirmFunc(func(_ context.Context, entry *domain.TimeEntry) (bool, error) {
		asked = entry
		return false, nil
	}))
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NotNil(t, asked)
	assert.Equal(t, e.ID, asked.ID)

	_, err = f.store.TimeEntries().Get(ctx, e.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, f.count(t))
}

func TestTracking_DeleteConfirmed(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	e := f.seed(t, 1)[0]

	deleted, err := f.tracking.Delete(ctx, e.ID, AlwaysConfirm)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = f.store.TimeEntries().Get(ctx, e.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTracking_DeleteConfirmerError(t *testing.T) {
	f := setupServices(t)
	e := f.seed(t, 1)[0]
	boom := errors.New("no terminal")

	deleted, err := f.tracking.Delete(context.Background(), e.ID, ConfirmFunc(func(context.Context, *domain.TimeEntry) (bool, error) {
		return false, boom
	}))
	assert.ErrorIs(t, err, boom)
	assert.False(t, deleted)
	assert.Equal(t, 1, f.count(t))
}

func TestTracking_DeleteNilConfirmerDoesNotDelete(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	e, err := f.tracking.Start(ctx, "x", "")
	require.NoError(t, err)

	deleted, err := f.tracking.Delete(ctx, e.ID, nil)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := f.store.TimeEntries().Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
}

func TestTracking_DeleteMissing(t *testing.T) {
	f := setupServices(t)

	deleted, err := f.tracking.Delete(context.Background(), "missing", AlwaysConfirm)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.False(t, deleted)
}

func TestTracking_UpdateRejectsEndBeforeStart(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	e := f.seed(t, 1)[0]

	early := e.StartTime.Add(-time.Minute)
	_, err := f.tracking.Update(ctx, e.ID, domain.EntryPatch{EndTime: &early})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	got, err := f.store.TimeEntries().Get(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.EndTime.Equal(*e.EndTime))
}

func TestTracking_UpdatePartial(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	e := f.seed(t, 1)[0]

	updated, err := f.tracking.Update(ctx, e.ID, domain.EntryPatch{Description: ptr("renamed")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Description)
	assert.True(t, updated.EndTime.Equal(*e.EndTime))

	unchanged, err := f.tracking.Update(ctx, e.ID, domain.EntryPatch{})
	require.NoError(t, err)
	assert.Equal(t, "renamed", unchanged.Description)

	_, err = f.tracking.Update(ctx, "missing", domain.EntryPatch{Description: ptr("x")})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTracking_ReportsUseCases(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()

	_, err := f.tracking.Start(ctx, "A", "")
	require.NoError(t, err)
	_, err = f.tracking.Stop(ctx)
	require.NoError(t, err)
	_, err = f.tracking.TogglePin(ctx, "missing")
	require.Error(t, err)

	assert.Equal(t, []string{"start", "stop", "toggle-pin"}, f.events.names())
	f.events.mu.Lock()
	last := f.events.events[2]
	f.events.mu.Unlock()
	assert.False(t, last.Success)
	assert.ErrorIs(t, last.Err, repository.ErrNotFound)
}

func TestTracking_ContinueReportsUseCase(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	src := f.seed(t, 1)[0]

	_, err := f.tracking.Continue(ctx, "missing")
	require.NoError(t, err)
	e, err := f.tracking.Continue(ctx, src.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"continue", "start", "continue"}, f.events.names())
	f.events.mu.Lock()
	missing, found := f.events.events[0], f.events.events[2]
	f.events.mu.Unlock()
	assert.True(t, missing.Success)
	assert.Equal(t, false, missing.Fields["found"])
	assert.Equal(t, "missing", missing.Fields["source"])
	assert.Equal(t, true, found.Fields["found"])
	assert.Equal(t, e.ID, found.Fields["entry"])
}

func ptr[T any](v T) *T { return &v }
