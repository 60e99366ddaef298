// Package idgen produces identifiers for new books.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"bookshelf/pkg/models"
)

type Generator interface {
	Next() models.BookID
}

// UUID issues version 7 UUIDs: a millisecond timestamp followed by random
// bits, so ids sort by creation time and never collide within a millisecond.
type UUID struct{}

func (UUID) Next() models.BookID {
	id, err := uuid.NewV7()
	if err != nil {
		// entropy failure; a v4 is still unique
		return models.BookID(uuid.NewString())
	}
	return models.BookID(id.String())
}

// Sequence issues "1", "2", ... in order.
type Sequence struct {
	n atomic.Int64
}

// NewSequence starts after the given value.
func NewSequence(after int64) *Sequence {
	s := &Sequence{}
	s.n.Store(after)
	return s
}

func (s *Sequence) Next() models.BookID {
	return models.BookID(strconv.FormatInt(s.n.Add(1), 10))
}
