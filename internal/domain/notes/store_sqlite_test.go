package notes

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milestonenotifier/internal/platform/sqlitedb"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sqlitedb.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStore(db)
}

func TestInsertUniqueHonoursMarker(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	note := Note{Name: "first-customer", Title: "First Customer", Marker: "first_customer",
		ContentData: json.RawMessage(`{"first_customer":true}`)}

	first, created, err := store.InsertUnique(ctx, note)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, StatusUnactioned, first.Status)
	assert.Equal(t, TypeInfo, first.Type)

	again, created, err := store.InsertUnique(ctx, note)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	list, err := store.FindByName(ctx, "first-customer")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.JSONEq(t, `{"first_customer":true}`, string(list[0].ContentData))
}

func TestInsertUniqueWithoutMarkerAlwaysInserts(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, created, err := store.InsertUnique(ctx, Note{Name: "stock-alert", Title: "Low stock"})
		require.NoError(t, err)
		assert.True(t, created)
	}
	total, err := store.Count(ctx, Filter{Name: "stock-alert"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestInsertUniqueRejectsInvalid(t *testing.T) {
	store := newSQLiteStore(t)
	_, _, err := store.InsertUnique(context.Background(), Note{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidNote)
}

func TestReplaceByNameKeepsOne(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	_, err := store.ReplaceByName(ctx, Note{Name: "other-milestone", Title: "100"})
	require.NoError(t, err)
	latest, err := store.ReplaceByName(ctx, Note{Name: "other-milestone", Title: "250",
		Actions: []Action{{Name: "customer_analytics", Label: "View customer report", URL: "/report", Primary: true}}})
	require.NoError(t, err)

	list, err := store.FindByName(ctx, "other-milestone")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, latest.ID, list[0].ID)
	assert.Equal(t, "250", list[0].Title)
	require.Len(t, list[0].Actions, 1)
	assert.True(t, list[0].Actions[0].Primary)
}

func TestListFilterAndLifecycle(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a, _, err := store.InsertUnique(ctx, Note{Name: "a", Title: "A", CreatedAt: base})
	require.NoError(t, err)
	b, _, err := store.InsertUnique(ctx, Note{Name: "b", Title: "B", CreatedAt: base.Add(time.Hour), Source: "other"})
	require.NoError(t, err)

	list, err := store.List(ctx, Filter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.True(t, list[1].CreatedAt.Equal(base))

	list, err = store.List(ctx, Filter{Source: "other"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, store.MarkActioned(ctx, a.ID))
	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActioned, got.Status)
	require.NotNil(t, got.ActionedAt)

	total, err := store.Count(ctx, Filter{Status: StatusUnactioned})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	require.NoError(t, store.Delete(ctx, a.ID))
	_, err = store.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNoteNotFound)
	assert.ErrorIs(t, store.Delete(ctx, a.ID), ErrNoteNotFound)
	assert.ErrorIs(t, store.MarkActioned(ctx, "missing"), ErrNoteNotFound)

	removed, err := store.DeleteByName(ctx, "b")
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}
