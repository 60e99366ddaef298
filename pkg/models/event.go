package models

import "time"

const (
	EventBookAdd    = "book.add"
	EventBookUpdate = "book.update"
	EventBookDelete = "book.delete"
	EventBookStatus = "book.status"
	EventFilter     = "filter.update"
	// EventReload carries no book: the whole collection was replaced by
	// another writer and listeners should fetch it again.
	EventReload = "collection.reload"
)

// ChangeEvent is published to the change feed after a mutation has been persisted.
type ChangeEvent struct {
	Type   string    `json:"type"`
	BookID BookID    `json:"book_id,omitempty"`
	Book   *Book     `json:"book,omitempty"`
	Filter Filter    `json:"filter,omitempty"`
	At     time.Time `json:"at"`
}
