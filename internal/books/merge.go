package books

import (
	"context"

	"go.uber.org/zap"

	"bookshelf/pkg/models"
)

// MergeResult counts what Merge did with each incoming record.
type MergeResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Merge upserts books by id in one save. Records with an existing id are
// overwritten in place; new or empty ids are appended, an empty id getting a
// fresh one. Invalid records are skipped.
func (s *Store) Merge(ctx context.Context, incoming []models.Book) (MergeResult, error) {
	var (
		res     MergeResult
		added   []models.Book
		updated []models.Book
	)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfChanged(ctx)
	for _, in := range incoming {
		d := Draft{Title: in.Title, Author: in.Author, Year: in.Year, IsComplete: in.IsComplete}
		if err := d.Validate(); err != nil {
			s.logger.Debug("skipping invalid record", zap.String("id", in.ID.String()), zap.Error(err))
			res.Skipped++
			continue
		}
		d = d.normalized()
		b := models.Book{ID: in.ID, Title: d.Title, Author: d.Author, Year: d.Year, IsComplete: d.IsComplete}

		if i := s.indexOf(b.ID); b.ID != "" && i >= 0 {
			s.books[i] = b
			updated = append(updated, b)
			res.Updated++
			continue
		}
		if b.ID == "" {
			b.ID = s.freshID()
		}
		s.books = append(s.books, b)
		added = append(added, b)
		res.Added++
	}

	if res.Added == 0 && res.Updated == 0 {
		return res, nil
	}
	if err := s.save(ctx); err != nil {
		return res, err
	}
	for _, b := range added {
		s.publish(models.EventBookAdd, b)
	}
	for _, b := range updated {
		s.publish(models.EventBookUpdate, b)
	}
	return res, nil
}
