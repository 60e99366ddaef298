package books_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/books"
	"bookshelf/internal/idgen"
	"bookshelf/internal/kv"
	"bookshelf/internal/storage"
	"bookshelf/pkg/database"
	"bookshelf/pkg/models"
)

type recorder struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (r *recorder) Publish(ev models.ChangeEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type brokenPersister struct{ books []models.Book }

func (p *brokenPersister) LoadCollection(context.Context) []models.Book { return p.books }
func (p *brokenPersister) SaveCollection(context.Context, []models.Book) error {
	return errors.New("quota exceeded")
}

func newStore(t *testing.T, store kv.Store) (*books.Store, *storage.Adapter) {
	t.Helper()
	adapter := storage.NewAdapter(store, nil)
	return books.NewStore(context.Background(), adapter, books.WithIDs(idgen.NewSequence(0))), adapter
}

// reload simulates a restart: a fresh Store over the same backing records.
func reload(t *testing.T, a *storage.Adapter) *books.Store {
	t.Helper()
	return books.NewStore(context.Background(), a, books.WithIDs(idgen.NewSequence(1000)))
}

func dune() books.Draft {
	return books.Draft{Title: "Dune", Author: "Herbert", Year: 1965}
}

func TestAddPersists(t *testing.T) {
	ctx := context.Background()
	s, a := newStore(t, kv.NewMemoryStore())

	b, err := s.Add(ctx, books.Draft{Title: "  Dune ", Author: " Herbert", Year: 1965, IsComplete: true})
	require.NoError(t, err)
	assert.Equal(t, models.BookID("1"), b.ID)
	assert.Equal(t, "Dune", b.Title)
	assert.Equal(t, "Herbert", b.Author)

	after := reload(t, a).List()
	require.Len(t, after, 1)
	assert.Equal(t, b, after[0])
}

func TestAddPersistsToSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := database.Config{Driver: database.DriverPure, Path: filepath.Join(t.TempDir(), "shelf.db")}

	db, err := database.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	s, _ := newStore(t, kv.NewSQLStore(db))
	added, err := s.Add(ctx, dune())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = database.Open(cfg)
	require.NoError(t, err)
	defer db.Close()
	got := reload(t, storage.NewAdapter(kv.NewSQLStore(db), nil)).List()
	assert.Equal(t, []models.Book{added}, got)
}

func TestAddValidation(t *testing.T) {
	cases := []struct {
		name  string
		draft books.Draft
		field string
	}{
		{"empty title", books.Draft{Title: "  ", Author: "A", Year: 1}, "title"},
		{"empty author", books.Draft{Title: "T", Author: "", Year: 1}, "author"},
		{"zero year", books.Draft{Title: "T", Author: "A", Year: 0}, "year"},
		{"negative year", books.Draft{Title: "T", Author: "A", Year: -5}, "year"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newStore(t, kv.NewMemoryStore())
			_, err := s.Add(context.Background(), tc.draft)
			require.ErrorIs(t, err, books.ErrValidation)

			var verr *books.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Zero(t, s.Len())
		})
	}
}

func TestUpdateKeepsIDAndPosition(t *testing.T) {
	ctx := context.Background()
	s, a := newStore(t, kv.NewMemoryStore())

	first, _ := s.Add(ctx, dune())
	second, _ := s.Add(ctx, books.Draft{Title: "Emma", Author: "Austen", Year: 1815})
	third, _ := s.Add(ctx, books.Draft{Title: "Ulysses", Author: "Joyce", Year: 1922})

	_, err := s.Update(ctx, second.ID, books.Draft{Title: "Persuasion", Author: "Jane Austen", Year: 1817, IsComplete: true})
	require.NoError(t, err)

	after := reload(t, a).List()
	require.Len(t, after, 3)
	assert.Equal(t, first, after[0])
	assert.Equal(t, models.Book{ID: second.ID, Title: "Persuasion", Author: "Jane Austen", Year: 1817, IsComplete: true}, after[1])
	assert.Equal(t, third, after[2])
}

func TestUpdateMissing(t *testing.T) {
	s, _ := newStore(t, kv.NewMemoryStore())
	_, err := s.Update(context.Background(), "nope", dune())
	assert.ErrorIs(t, err, books.ErrNotFound)

	_, err = s.Update(context.Background(), "nope", books.Draft{})
	assert.ErrorIs(t, err, books.ErrValidation)
}

func TestRemoveKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s, a := newStore(t, kv.NewMemoryStore())

	var ids []models.BookID
	for _, title := range []string{"A", "B", "C", "D"} {
		b, err := s.Add(ctx, books.Draft{Title: title, Author: "X", Year: 2000})
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	ok, err := s.Remove(ctx, ids[1])
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Remove(ctx, ids[1])
	require.NoError(t, err)
	assert.False(t, ok)

	var titles []string
	for _, b := range reload(t, a).List() {
		titles = append(titles, b.Title)
		assert.NotEqual(t, ids[1], b.ID)
	}
	assert.Equal(t, []string{"A", "C", "D"}, titles)
}

func TestToggleTwiceRestores(t *testing.T) {
	ctx := context.Background()
	s, a := newStore(t, kv.NewMemoryStore())
	b, _ := s.Add(ctx, dune())

	toggled, err := s.ToggleComplete(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsComplete)

	got, _ := reload(t, a).Get(b.ID)
	assert.True(t, got.IsComplete)

	toggled, err = s.ToggleComplete(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsComplete)

	got, _ = reload(t, a).Get(b.ID)
	assert.Equal(t, b, got)

	_, err = s.ToggleComplete(ctx, "gone")
	assert.ErrorIs(t, err, books.ErrNotFound)
}

func TestSetCompleteIsAbsolute(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, kv.NewMemoryStore())
	b, _ := s.Add(ctx, dune())

	for i := 0; i < 2; i++ {
		got, err := s.SetComplete(ctx, b.ID, true)
		require.NoError(t, err)
		assert.True(t, got.IsComplete)
	}
}

func TestListIsACopy(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, kv.NewMemoryStore())
	b, _ := s.Add(ctx, dune())

	list := s.List()
	list[0].Title = "Mutated"

	got, ok := s.Get(b.ID)
	require.True(t, ok)
	assert.Equal(t, "Dune", got.Title)
}

func TestPublishesAfterSave(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := books.NewStore(ctx, storage.NewAdapter(kv.NewMemoryStore(), nil),
		books.WithIDs(idgen.NewSequence(0)), books.WithPublisher(rec))

	b, _ := s.Add(ctx, dune())
	_, _ = s.Update(ctx, b.ID, books.Draft{Title: "Dune Messiah", Author: "Herbert", Year: 1969})
	_, _ = s.ToggleComplete(ctx, b.ID)
	_, _ = s.Remove(ctx, b.ID)
	_, _ = s.Remove(ctx, b.ID)

	assert.Equal(t, []string{
		models.EventBookAdd,
		models.EventBookUpdate,
		models.EventBookStatus,
		models.EventBookDelete,
	}, rec.types())
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := books.NewStore(ctx, &brokenPersister{}, books.WithPublisher(rec))

	b, err := s.Add(ctx, dune())
	require.ErrorIs(t, err, books.ErrStorage)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, 1, s.Len())
	assert.Empty(t, rec.types())
}

type fixedIDs struct {
	ids []models.BookID
	i   int
}

func (f *fixedIDs) Next() models.BookID {
	id := f.ids[f.i]
	f.i++
	return id
}

func TestFreshIDSkipsCollisions(t *testing.T) {
	ctx := context.Background()
	p := &brokenPersister{books: []models.Book{{ID: "x", Title: "T", Author: "A", Year: 1}}}
	s := books.NewStore(ctx, p, books.WithIDs(&fixedIDs{ids: []models.BookID{"x", "y"}}))

	b, _ := s.Add(ctx, dune())
	assert.Equal(t, models.BookID("y"), b.ID)
}

func TestParseYear(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "1965", want: 1965},
		{in: " 2001 ", want: 2001},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "19.5", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := books.ParseYear(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, books.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
