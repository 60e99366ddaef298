// Package books owns the in-memory book collection and keeps it persisted.
package books

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"bookshelf/internal/idgen"
	"bookshelf/pkg/logging"
	"bookshelf/pkg/models"
)

// Persister stores full snapshots of the collection.
type Persister interface {
	LoadCollection(ctx context.Context) []models.Book
	SaveCollection(ctx context.Context, books []models.Book) error
}

// Refresher is implemented by persisters that can tell when the stored
// collection was replaced by another writer.
type Refresher interface {
	RefreshCollection(ctx context.Context) ([]models.Book, bool)
}

// Publisher receives an event after each persisted mutation. Publish is
// called with the store locked, so events arrive in save order and it must
// not call back into the store.
type Publisher interface {
	Publish(ev models.ChangeEvent)
}

type Option func(*Store)

func WithIDs(g idgen.Generator) Option      { return func(s *Store) { s.ids = g } }
func WithPublisher(p Publisher) Option      { return func(s *Store) { s.pub = p } }
func WithLogger(l *zap.Logger) Option       { return func(s *Store) { s.logger = logging.OrNop(l) } }
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// Store is the single owner of the collection. Every mutation first picks up
// changes saved by other writers, then saves the whole collection before it
// returns; a failed save leaves the in-memory change in place and is reported
// as ErrStorage.
type Store struct {
	mu      sync.RWMutex
	books   []models.Book
	persist Persister
	ids     idgen.Generator
	pub     Publisher
	logger  *zap.Logger
	now     func() time.Time
}

// NewStore loads the persisted collection.
func NewStore(ctx context.Context, p Persister, opts ...Option) *Store {
	s := &Store{
		persist: p,
		ids:     idgen.UUID{},
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.books = p.LoadCollection(ctx)
	s.logger.Debug("collection loaded", zap.Int("books", len(s.books)))
	return s
}

func (s *Store) List() []models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Book, len(s.books))
	copy(out, s.books)
	return out
}

func (s *Store) Get(id models.BookID) (models.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.books[i], true
	}
	return models.Book{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

func (s *Store) Add(ctx context.Context, d Draft) (models.Book, error) {
	if err := d.Validate(); err != nil {
		return models.Book{}, err
	}
	d = d.normalized()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged(ctx)
	b := models.Book{
		ID:         s.freshID(),
		Title:      d.Title,
		Author:     d.Author,
		Year:       d.Year,
		IsComplete: d.IsComplete,
	}
	s.books = append(s.books, b)
	if err := s.save(ctx); err != nil {
		return b, err
	}
	s.publish(models.EventBookAdd, b)
	return b, nil
}

// Update overwrites the editable fields of id in place.
func (s *Store) Update(ctx context.Context, id models.BookID, d Draft) (models.Book, error) {
	if err := d.Validate(); err != nil {
		return models.Book{}, err
	}
	d = d.normalized()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged(ctx)
	i := s.indexOf(id)
	if i < 0 {
		return models.Book{}, fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	b := &s.books[i]
	b.Title = d.Title
	b.Author = d.Author
	b.Year = d.Year
	b.IsComplete = d.IsComplete
	updated := *b
	if err := s.save(ctx); err != nil {
		return updated, err
	}
	s.publish(models.EventBookUpdate, updated)
	return updated, nil
}

// Remove deletes id, keeping the order of the remaining books. It reports
// whether anything was removed; an absent id is not an error.
func (s *Store) Remove(ctx context.Context, id models.BookID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged(ctx)
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	removed := s.books[i]
	s.books = append(s.books[:i:i], s.books[i+1:]...)
	if err := s.save(ctx); err != nil {
		return true, err
	}
	s.publish(models.EventBookDelete, removed)
	return true, nil
}

func (s *Store) ToggleComplete(ctx context.Context, id models.BookID) (models.Book, error) {
	return s.setComplete(ctx, id, func(cur bool) bool { return !cur })
}

// SetComplete sets the completion flag to done; setting the current value
// still saves.
func (s *Store) SetComplete(ctx context.Context, id models.BookID, done bool) (models.Book, error) {
	return s.setComplete(ctx, id, func(bool) bool { return done })
}

func (s *Store) setComplete(ctx context.Context, id models.BookID, next func(bool) bool) (models.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged(ctx)
	i := s.indexOf(id)
	if i < 0 {
		return models.Book{}, fmt.Errorf("set status %s: %w", id, ErrNotFound)
	}
	s.books[i].IsComplete = next(s.books[i].IsComplete)
	updated := s.books[i]
	if err := s.save(ctx); err != nil {
		return updated, err
	}
	s.publish(models.EventBookStatus, updated)
	return updated, nil
}

// Refresh swaps in the stored collection when another writer changed it,
// publishing EventReload. It reports whether anything was swapped in.
func (s *Store) Refresh(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadIfChanged(ctx)
}

// Poll calls Refresh every interval until ctx is done.
func (s *Store) Poll(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			s.Refresh(ctx)
		}
	}
}

// caller holds s.mu
func (s *Store) reloadIfChanged(ctx context.Context) bool {
	r, ok := s.persist.(Refresher)
	if !ok {
		return false
	}
	books, changed := r.RefreshCollection(ctx)
	if !changed {
		return false
	}
	s.books = books
	s.logger.Info("collection changed by another writer, reloaded", zap.Int("books", len(books)))
	if s.pub != nil {
		s.pub.Publish(models.ChangeEvent{Type: models.EventReload, At: s.now().UTC()})
	}
	return true
}

// caller holds s.mu
func (s *Store) save(ctx context.Context) error {
	snapshot := make([]models.Book, len(s.books))
	copy(snapshot, s.books)
	if err := s.persist.SaveCollection(ctx, snapshot); err != nil {
		s.logger.Error("save collection", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// caller holds s.mu
func (s *Store) freshID() models.BookID {
	for {
		id := s.ids.Next()
		if s.indexOf(id) < 0 {
			return id
		}
		s.logger.Warn("generated id already in use, drawing again", zap.String("id", id.String()))
	}
}

func (s *Store) indexOf(id models.BookID) int {
	for i := range s.books {
		if s.books[i].ID == id {
			return i
		}
	}
	return -1
}

// caller holds s.mu
func (s *Store) publish(typ string, b models.Book) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(models.ChangeEvent{
		Type:   typ,
		BookID: b.ID,
		Book:   &b,
		At:     s.now().UTC(),
	})
}
