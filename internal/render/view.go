// Package render projects query results into card descriptors and draws them
// as an HTML page or a terminal listing.
package render

import (
	"strconv"
	"strings"

	"bookshelf/internal/query"
	"bookshelf/pkg/models"
)

const (
	ActionToggle = "toggle"
	ActionEdit   = "edit"
	ActionDelete = "delete"

	LabelSave   = "Save"
	LabelUpdate = "Update"
)

type Control struct {
	Action string `json:"action"`
	Label  string `json:"label"`
	Style  string `json:"style"`
}

// Card describes one rendered book. Title, Author and Year are HTML-escaped.
type Card struct {
	ID       models.BookID `json:"id"`
	Title    string        `json:"title"`
	Author   string        `json:"author"`
	Year     string        `json:"year"`
	Complete bool          `json:"isComplete"`
	Editing  bool          `json:"editing"`
	Status   Control       `json:"status"`
	Edit     Control       `json:"edit"`
	Delete   Control       `json:"delete"`
}

type Group struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
	Cards   []Card `json:"cards"`
}

type FilterButton struct {
	Filter models.Filter `json:"filter"`
	Label  string        `json:"label"`
	Active bool          `json:"active"`
}

// Form is the state of the add/edit form.
type Form struct {
	Title       string        `json:"title"`
	Author      string        `json:"author"`
	Year        string        `json:"year"`
	IsComplete  bool          `json:"isComplete"`
	EditingID   models.BookID `json:"editingId,omitempty"`
	SubmitLabel string        `json:"submitLabel"`
}

// Notice is a short, dismissible message about the last action.
type Notice struct {
	Level string `json:"level"` // success, info, error
	Title string `json:"title"`
}

type View struct {
	Filter  models.Filter  `json:"filter"`
	Filters []FilterButton `json:"filters"`
	Search  string         `json:"search"`
	Unread  Group          `json:"unread"`
	Read    Group          `json:"read"`
	Form    Form           `json:"form"`
	Notice  *Notice        `json:"notice,omitempty"`
}

// Project maps a query result to a view. editing is the id the form is
// populated from, empty when idle.
func Project(res query.Result, filter models.Filter, search string, editing models.BookID) View {
	v := View{
		Filter:  filter,
		Filters: filterButtons(filter),
		Search:  search,
		Unread:  Group{Name: "unread", Label: "Unread", Visible: res.ShowUnread, Cards: cards(res.Unread, editing)},
		Read:    Group{Name: "read", Label: "Read", Visible: res.ShowRead, Cards: cards(res.Read, editing)},
		Form:    Form{SubmitLabel: LabelSave},
	}
	if editing != "" {
		v.Form.EditingID = editing
		v.Form.SubmitLabel = LabelUpdate
	}
	return v
}

func cards(books []models.Book, editing models.BookID) []Card {
	out := make([]Card, 0, len(books))
	for _, b := range books {
		out = append(out, NewCard(b, b.ID == editing))
	}
	return out
}

func NewCard(b models.Book, editing bool) Card {
	status := Control{Action: ActionToggle, Label: "Mark finished", Style: "secondary"}
	if b.IsComplete {
		status = Control{Action: ActionToggle, Label: "Finished", Style: "success"}
	}
	return Card{
		ID:       b.ID,
		Title:    Escape(b.Title),
		Author:   Escape(b.Author),
		Year:     Escape(strconv.Itoa(b.Year)),
		Complete: b.IsComplete,
		Editing:  editing,
		Status:   status,
		Edit:     Control{Action: ActionEdit, Label: "Edit", Style: "warning"},
		Delete:   Control{Action: ActionDelete, Label: "Delete", Style: "danger"},
	}
}

func filterButtons(active models.Filter) []FilterButton {
	return []FilterButton{
		{Filter: models.FilterAll, Label: "All", Active: active == models.FilterAll},
		{Filter: models.FilterUnread, Label: "Unread", Active: active == models.FilterUnread},
		{Filter: models.FilterRead, Label: "Read", Active: active == models.FilterRead},
	}
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape replaces the five markup-significant characters with entities.
func Escape(s string) string {
	return escaper.Replace(s)
}
