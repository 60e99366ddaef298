package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// BookID identifies a book for the lifetime of the collection.
type BookID string

// UnmarshalJSON accepts both strings and legacy numeric ids.
func (id *BookID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = BookID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("book id: %w", err)
	}
	*id = BookID(n.String())
	return nil
}

func (id BookID) String() string { return string(id) }

type Book struct {
	ID         BookID `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Author     string `json:"author" yaml:"author"`
	Year       int    `json:"year" yaml:"year"`
	IsComplete bool   `json:"isComplete" yaml:"isComplete"`
}

// Filter selects which completion group is displayed.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterUnread Filter = "unread"
	FilterRead   Filter = "read"
)

// ParseFilter normalizes s and reports whether it names a known filter.
func ParseFilter(s string) (Filter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return FilterAll, true
	case "unread", "incomplete":
		return FilterUnread, true
	case "read", "complete", "completed":
		return FilterRead, true
	default:
		return "", false
	}
}

func (f Filter) String() string { return string(f) }
