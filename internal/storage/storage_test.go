package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/kv"
	"bookshelf/pkg/models"
)

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}
func (failingKV) Set(context.Context, string, string) error { return errors.New("disk on fire") }
func (failingKV) Delete(context.Context, string) error      { return errors.New("disk on fire") }

func TestCollectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(kv.NewMemoryStore(), nil)

	assert.Empty(t, a.LoadCollection(ctx))

	books := []models.Book{
		{ID: "a", Title: "Dune", Author: "Herbert", Year: 1965},
		{ID: "b", Title: "Emma", Author: "Austen", Year: 1815, IsComplete: true},
	}
	require.NoError(t, a.SaveCollection(ctx, books))
	assert.Equal(t, books, a.LoadCollection(ctx))
}

func TestSaveWritesJSONArray(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	a := NewAdapter(store, nil)

	require.NoError(t, a.SaveCollection(ctx, nil))
	raw, ok, _ := store.Get(ctx, CollectionKey)
	require.True(t, ok)
	assert.Equal(t, "[]", raw)

	require.NoError(t, a.SaveCollection(ctx, []models.Book{{ID: "1", Title: "T", Author: "A", Year: 2000}}))
	raw, _, _ = store.Get(ctx, CollectionKey)
	assert.JSONEq(t, `[{"id":"1","title":"T","author":"A","year":2000,"isComplete":false}]`, raw)
}

func TestLoadCollectionFailsSoft(t *testing.T) {
	ctx := context.Background()

	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, CollectionKey, "{not json"))
	assert.Empty(t, NewAdapter(store, nil).LoadCollection(ctx))

	assert.Empty(t, NewAdapter(failingKV{}, nil).LoadCollection(ctx))
}

func TestLoadCollectionAcceptsNumericIDs(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, CollectionKey,
		`[{"id":1700000000123,"title":"Dune","author":"Herbert","year":1965,"isComplete":true}]`))

	books := NewAdapter(store, nil).LoadCollection(ctx)
	require.Len(t, books, 1)
	assert.Equal(t, models.BookID("1700000000123"), books[0].ID)
	assert.True(t, books[0].IsComplete)
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	a := NewAdapter(store, nil)

	assert.Equal(t, models.FilterAll, a.LoadFilter(ctx))

	require.NoError(t, a.SaveFilter(ctx, models.FilterRead))
	assert.Equal(t, models.FilterRead, a.LoadFilter(ctx))

	require.NoError(t, store.Set(ctx, FilterKey, "bogus"))
	assert.Equal(t, models.FilterAll, a.LoadFilter(ctx))

	assert.Equal(t, models.FilterAll, NewAdapter(failingKV{}, nil).LoadFilter(ctx))
}

func TestSaveErrorsAreReturned(t *testing.T) {
	a := NewAdapter(failingKV{}, nil)
	assert.Error(t, a.SaveCollection(context.Background(), nil))
	assert.Error(t, a.SaveFilter(context.Background(), models.FilterRead))
}

func TestRefreshCollectionSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	mine := NewAdapter(store, nil)
	theirs := NewAdapter(store, nil)

	assert.Empty(t, mine.LoadCollection(ctx))
	_, changed := mine.RefreshCollection(ctx)
	assert.False(t, changed)

	// own saves are not outside changes
	require.NoError(t, mine.SaveCollection(ctx, []models.Book{{ID: "a", Title: "Dune", Author: "Herbert", Year: 1965}}))
	_, changed = mine.RefreshCollection(ctx)
	assert.False(t, changed)

	emma := models.Book{ID: "b", Title: "Emma", Author: "Austen", Year: 1815}
	require.NoError(t, theirs.SaveCollection(ctx, []models.Book{emma}))
	got, changed := mine.RefreshCollection(ctx)
	require.True(t, changed)
	assert.Equal(t, []models.Book{emma}, got)
	_, changed = mine.RefreshCollection(ctx)
	assert.False(t, changed)

	require.NoError(t, store.Delete(ctx, CollectionKey))
	got, changed = mine.RefreshCollection(ctx)
	require.True(t, changed)
	assert.Empty(t, got)

	require.NoError(t, store.Set(ctx, CollectionKey, "{not json"))
	_, changed = mine.RefreshCollection(ctx)
	assert.False(t, changed)
}
