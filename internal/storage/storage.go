// Package storage serializes the bookshelf collection and filter into a kv.Store.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"bookshelf/internal/kv"
	"bookshelf/pkg/logging"
	"bookshelf/pkg/models"
)

const (
	CollectionKey = "BOOKSHELF_APPS"
	FilterKey     = "BOOKSHELF_FILTER"
)

type Adapter struct {
	KV     kv.Store
	Logger *zap.Logger

	mu   sync.Mutex
	last string // collection record as last loaded or saved here
}

func NewAdapter(store kv.Store, logger *zap.Logger) *Adapter {
	return &Adapter{KV: store, Logger: logging.OrNop(logger)}
}

// LoadCollection returns the stored books. A missing or unreadable record
// yields an empty collection; the failure is logged, never returned.
func (a *Adapter) LoadCollection(ctx context.Context) []models.Book {
	raw, ok, err := a.KV.Get(ctx, CollectionKey)
	if err != nil {
		a.Logger.Warn("load collection failed, starting empty", zap.Error(err))
		return []models.Book{}
	}
	if !ok {
		raw = ""
	}
	a.remember(raw)

	books, err := decodeCollection(raw)
	if err != nil {
		a.Logger.Warn("stored collection is corrupt, starting empty", zap.Error(err))
		return []models.Book{}
	}
	return books
}

// RefreshCollection reports whether the stored record differs from the one
// this adapter last loaded or saved, returning the stored books when it does.
// Another process writing the same database is the usual cause. Read and
// decode failures count as unchanged.
func (a *Adapter) RefreshCollection(ctx context.Context) ([]models.Book, bool) {
	raw, ok, err := a.KV.Get(ctx, CollectionKey)
	if err != nil {
		a.Logger.Warn("refresh collection failed", zap.Error(err))
		return nil, false
	}
	if !ok {
		raw = ""
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if raw == a.last {
		return nil, false
	}
	books, err := decodeCollection(raw)
	if err != nil {
		a.Logger.Warn("stored collection is corrupt, keeping the loaded one", zap.Error(err))
		return nil, false
	}
	a.last = raw
	return books, true
}

// SaveCollection overwrites the stored collection with a full snapshot.
func (a *Adapter) SaveCollection(ctx context.Context, books []models.Book) error {
	if books == nil {
		books = []models.Book{}
	}
	b, err := json.Marshal(books)
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}
	if err := a.KV.Set(ctx, CollectionKey, string(b)); err != nil {
		return fmt.Errorf("save collection: %w", err)
	}
	a.remember(string(b))
	return nil
}

func (a *Adapter) remember(raw string) {
	a.mu.Lock()
	a.last = raw
	a.mu.Unlock()
}

func decodeCollection(raw string) ([]models.Book, error) {
	if raw == "" {
		return []models.Book{}, nil
	}
	var books []models.Book
	if err := json.Unmarshal([]byte(raw), &books); err != nil {
		return nil, err
	}
	if books == nil {
		books = []models.Book{}
	}
	return books, nil
}

// LoadFilter returns the stored filter, or FilterAll when absent or unknown.
func (a *Adapter) LoadFilter(ctx context.Context) models.Filter {
	raw, ok, err := a.KV.Get(ctx, FilterKey)
	if err != nil {
		a.Logger.Warn("load filter failed, using all", zap.Error(err))
		return models.FilterAll
	}
	if !ok {
		return models.FilterAll
	}
	f, ok := models.ParseFilter(raw)
	if !ok {
		return models.FilterAll
	}
	return f
}

func (a *Adapter) SaveFilter(ctx context.Context, f models.Filter) error {
	if err := a.KV.Set(ctx, FilterKey, string(f)); err != nil {
		return fmt.Errorf("save filter: %w", err)
	}
	return nil
}
