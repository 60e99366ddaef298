// Package query computes which books are shown for a filter and search text.
package query

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bookshelf/pkg/models"
)

// Result holds both completion partitions. The filter only decides which
// partition is displayed; neither is ever pruned by it.
type Result struct {
	Unread     []models.Book
	Read       []models.Book
	ShowUnread bool
	ShowRead   bool
}

// Displayed returns the books in the shown partitions, unread first.
func (r Result) Displayed() []models.Book {
	var out []models.Book
	if r.ShowUnread {
		out = append(out, r.Unread...)
	}
	if r.ShowRead {
		out = append(out, r.Read...)
	}
	return out
}

// NormalizeSearch trims and lower-cases search text.
func NormalizeSearch(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// MatchesTitle reports whether the title contains the normalized needle.
// An empty needle matches everything.
func MatchesTitle(title, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(cases.Lower(language.Und).String(title), needle)
}

// Visible narrows books by title search and partitions them by completion,
// preserving collection order within each partition.
func Visible(books []models.Book, filter models.Filter, search string) Result {
	needle := NormalizeSearch(search)

	res := Result{
		Unread: []models.Book{},
		Read:   []models.Book{},
	}
	for _, b := range books {
		if !MatchesTitle(b.Title, needle) {
			continue
		}
		if b.IsComplete {
			res.Read = append(res.Read, b)
		} else {
			res.Unread = append(res.Unread, b)
		}
	}

	switch filter {
	case models.FilterUnread:
		res.ShowUnread = true
	case models.FilterRead:
		res.ShowRead = true
	default:
		res.ShowUnread = true
		res.ShowRead = true
	}
	return res
}
