package books

import (
	"strconv"
	"strings"
)

// Draft carries the user-editable fields of a book.
type Draft struct {
	Title      string
	Author     string
	Year       int
	IsComplete bool
}

func (d Draft) normalized() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Author = strings.TrimSpace(d.Author)
	return d
}

// Validate reports the first missing or invalid field.
func (d Draft) Validate() error {
	d = d.normalized()
	if d.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if d.Author == "" {
		return &ValidationError{Field: "author", Reason: "must not be empty"}
	}
	if d.Year <= 0 {
		return &ValidationError{Field: "year", Reason: "must be a positive integer"}
	}
	return nil
}

// ParseYear converts form text into a year. Empty, non-numeric and
// non-positive input are validation errors.
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "year", Reason: "must not be empty"}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: "year", Reason: "must be a number"}
	}
	if n <= 0 {
		return 0, &ValidationError{Field: "year", Reason: "must be a positive integer"}
	}
	return n, nil
}
