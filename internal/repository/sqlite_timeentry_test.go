package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alexanderramin/timesflying/internal/domain"
	"github.com/alexanderramin/timesflying/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 4, 7, 9, 0, 0, 0, time.UTC)

func newEntryRepo(t *testing.T) *SQLiteTimeEntryRepo {
	t.Helper()
	return NewSQLiteTimeEntryRepo(testutil.NewTestDB(t))
}

// seedEntries adds n stopped entries starting an hour apart, oldest first.
func seedEntries(t *testing.T, repo *SQLiteTimeEntryRepo, n int) []*domain.TimeEntry {
	t.Helper()
	ctx := context.Background()
	var out []*domain.TimeEntry
	for i := 0; i < n; i++ {
		e := testutil.NewTestEntry(fmt.Sprintf("Entry %d", i),
			testutil.WithSpan(baseTime.Add(time.Duration(i)*time.Hour), 30*time.Minute))
		require.NoError(t, repo.Add(ctx, e))
		out = append(out, e)
	}
	return out
}

func TestTimeEntryRepo_AddAndGet(t *testing.T) {
	repo := newEntryRepo(t)
	ctx := context.Background()

	e := testutil.NewTestEntry("Write report",
		testutil.WithStart(baseTime), testutil.Running(), testutil.WithProject("p1"), testutil.Pinned())
	require.NoError(t, repo.Add(ctx, e))

	fetched, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, fetched.ID)
	assert.True(t, baseTime.Equal(fetched.StartTime))
	assert.Nil(t, fetched.EndTime)
	assert.Equal(t, "Write report", fetched.Description)
	assert.Equal(t, "p1", fetched.ProjectID)
	assert.True(t, fetched.IsPinned)
}

func TestTimeEntryRepo_Get_NotFound(t *testing.T) {
	repo := newEntryRepo(t)

	_, err := repo.Get(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimeEntryRepo_Add_DuplicateID(t *testing.T) {
	repo := newEntryRepo(t)
	ctx := context.Background()

	e := testutil.NewTestEntry("once")
	require.NoError(t, repo.Add(ctx, e))
	assert.Error(t, repo.Add(ctx, e))
}

func TestTimeEntryRepo_Patch(t *testing.T) {
	repo := newEntryRepo(t)
	ctx := context.Background()

	e := testutil.NewTestEntry("draft", testutil.WithStart(baseTime), testutil.Running())
	require.NoError(t, repo.Add(ctx, e))

	end := baseTime.Add(25 * time.Minute)
	desc := "final"
	updated, err := repo.Patch(ctx, e.ID, domain.EntryPatch{EndTime: &end, Description: &desc})
	require.NoError(t, err)
	require.NotNil(t, updated.EndTime)
	assert.True(t, end.Equal(*updated.EndTime))

	fetched, err := repo.Get(ctx, e.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.EndTime)
	assert.True(t, end.Equal(*fetched.EndTime))
	assert.Equal(t, "final", fetched.Description)
	assert.True(t, baseTime.Equal(fetched.StartTime), "start time is immutable")
}

func TestTimeEntryRepo_Patch_NotFound(t *testing.T) {
	repo := newEntryRepo(t)
	pinned := true

	_, err := repo.Patch(context.Background(), "missing", domain.EntryPatch{IsPinned: &pinned})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTimeEntryRepo_Delete(t *testing.T) {
	repo := newEntryRepo(t)
	ctx := context.Background()

	e := testutil.NewTestEntry("to delete")
	require.NoError(t, repo.Add(ctx, e))
	require.NoError(t, repo.Delete(ctx, e.ID))

	_, err := repo.Get(ctx, e.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, e.ID), ErrNotFound)
}

func TestTimeEntryRepo_Query_PagedByStartDesc(t *testing.T) {
	repo := newEntryRepo(t)
	ctx := context.Background()
	entries := seedEntries(t, repo, 7)

	q := NewQuery().OrderBy(FieldStartTime, Desc)

	page0, err := repo.Query(ctx, q.Offset(0).Limit(3))
	require.NoError(t, err)
	require.Len(t, page0, 3)
	assert.Equal(t, entries[6].ID, page0[0].ID)
	assert.Equal(t, entries[4].ID, page0[2].ID)

	page2, err := repo.Query(ctx, q.Offset(6).Limit(3))
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, entries[0].ID, page2[0].ID)

	beyond, err := repo.Query(ctx, q.Offset(30).Limit(3))
	require.NoError(t, err)
	assert.NotNil(t, beyond)
	assert.Empty(t, beyond)
}

func TestTimeEntryRepo_Query_FilterPinned(t *testing.T) {
	repo := newEntryRepo(t)
	ctx := context.Background()
	entries := seedEntries(t, repo, 3)

	pinned := true
	_, err := repo.Patch(ctx, entries[0].ID, domain.EntryPatch{IsPinned: &pinned})
	require.NoError(t, err)
	_, err = repo.Patch(ctx, entries[2].ID, domain.EntryPatch{IsPinned: &pinned})
	require.NoError(t, err)

	got, err := repo.Query(ctx, NewQuery().Where(Equals(FieldPinned, true)).OrderBy(FieldStartTime, Desc))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entries[2].ID, got[0].ID)
	assert.Equal(t, entries[0].ID, got[1].ID)
}

func TestTimeEntryRepo_First_Active(t *testing.T) {
	repo := newEntryRepo(t)
	ctx := context.Background()
	seedEntries(t, repo, 2)

	active, err := repo.First(ctx, NewQuery().Where(IsNull(FieldEndTime)))
	require.NoError(t, err)
	assert.Nil(t, active, "no running entry yet")

	running := testutil.NewTestEntry("running", testutil.WithStart(baseTime.Add(5*time.Hour)), testutil.Running())
	require.NoError(t, repo.Add(ctx, running))

	active, err = repo.First(ctx, NewQuery().Where(IsNull(FieldEndTime)))
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, running.ID, active.ID)
}

func TestTimeEntryRepo_Last_ByStart(t *testing.T) {
	repo := newEntryRepo(t)
	ctx := context.Background()

	late := testutil.NewTestEntry("late", testutil.WithSpan(baseTime.Add(2*time.Hour), time.Minute), testutil.WithProject("p-late"))
	early := testutil.NewTestEntry("early", testutil.WithSpan(baseTime, time.Minute), testutil.WithProject("p-early"))
	// Inserted out of chronological order on purpose.
	require.NoError(t, repo.Add(ctx, late))
	require.NoError(t, repo.Add(ctx, early))

	last, err := repo.Last(ctx, NewQuery().OrderBy(FieldStartTime, Asc))
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "p-late", last.ProjectID)
}

func TestTimeEntryRepo_Last_Empty(t *testing.T) {
	repo := newEntryRepo(t)

	last, err := repo.Last(context.Background(), NewQuery().OrderBy(FieldStartTime, Asc))
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestTimeEntryRepo_Query_DescriptionContains(t *testing.T) {
	repo := newEntryRepo(t)
	ctx := context.Background()

	for i, desc := range []string{"Review PR", "write docs", "Code review", "Lunch"} {
		e := testutil.NewTestEntry(desc, testutil.WithSpan(baseTime.Add(time.Duration(i)*time.Hour), time.Minute))
		require.NoError(t, repo.Add(ctx, e))
	}

	got, err := repo.Query(ctx, NewQuery().Where(DescriptionContains("REVIEW")).OrderBy(FieldStartTime, Desc))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Code review", got[0].Description)
	assert.Equal(t, "Review PR", got[1].Description)

	limited, err := repo.Query(ctx, NewQuery().Where(DescriptionContains("")).OrderBy(FieldStartTime, Desc).Limit(2))
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "Lunch", limited[0].Description)

	none, err := repo.Query(ctx, NewQuery().Where(DescriptionContains("zzz")))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTimeEntryRepo_Query_DescriptionContainsFoldsNonASCII(t *testing.T) {
	repo := newEntryRepo(t)
	ctx := context.Background()

	for i, desc := range []string{"Übersetzung prüfen", "Ελληνικά notes", "plain"} {
		e := testutil.NewTestEntry(desc, testutil.WithSpan(baseTime.Add(time.Duration(i)*time.Hour), time.Minute))
		require.NoError(t, repo.Add(ctx, e))
	}

	got, err := repo.Query(ctx, NewQuery().Where(DescriptionContains("üBERSETZUNG")))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Übersetzung prüfen", got[0].Description)

	got, err = repo.Query(ctx, NewQuery().Where(DescriptionContains("ελληνικά")))
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestTimeEntryRepo_Count(t *testing.T) {
	repo := newEntryRepo(t)
	ctx := context.Background()
	seedEntries(t, repo, 4)

	n, err := repo.Count(ctx, NewQuery().Limit(2))
	require.NoError(t, err)
	assert.Equal(t, 4, n, "count ignores the window")

	n, err = repo.Count(ctx, NewQuery().Where(DescriptionContains("entry 1")))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
