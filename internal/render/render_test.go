package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/query"
	"bookshelf/pkg/models"
)

var books = []models.Book{
	{ID: "1", Title: `<script>alert("x")</script>`, Author: "O'Brien & Sons", Year: 1999},
	{ID: "2", Title: "Dune", Author: "Herbert", Year: 1965, IsComplete: true},
	{ID: "3", Title: "Emma", Author: "Austen", Year: 1815},
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;&amp;&quot;&#039;", Escape(`<b>&"'`))
	assert.Equal(t, "plain", Escape("plain"))
}

func TestProjectCards(t *testing.T) {
	v := Project(query.Visible(books, models.FilterAll, ""), models.FilterAll, "", "")

	require.Len(t, v.Unread.Cards, 2)
	require.Len(t, v.Read.Cards, 1)
	assert.True(t, v.Unread.Visible)
	assert.True(t, v.Read.Visible)

	c := v.Unread.Cards[0]
	assert.Equal(t, "&lt;script&gt;alert(&quot;x&quot;)&lt;/script&gt;", c.Title)
	assert.Equal(t, "O&#039;Brien &amp; Sons", c.Author)
	assert.Equal(t, "1999", c.Year)
	assert.Equal(t, "Mark finished", c.Status.Label)
	assert.Equal(t, ActionEdit, c.Edit.Action)
	assert.Equal(t, ActionDelete, c.Delete.Action)

	assert.Equal(t, models.BookID("3"), v.Unread.Cards[1].ID)
	assert.Equal(t, "Finished", v.Read.Cards[0].Status.Label)
	assert.Equal(t, LabelSave, v.Form.SubmitLabel)
}

func TestProjectFilterHidesGroup(t *testing.T) {
	v := Project(query.Visible(books, models.FilterRead, ""), models.FilterRead, "", "")
	assert.False(t, v.Unread.Visible)
	assert.True(t, v.Read.Visible)
	// hidden group still carries its cards
	assert.Len(t, v.Unread.Cards, 2)

	var active []models.Filter
	for _, f := range v.Filters {
		if f.Active {
			active = append(active, f.Filter)
		}
	}
	assert.Equal(t, []models.Filter{models.FilterRead}, active)
}

func TestProjectEditing(t *testing.T) {
	v := Project(query.Visible(books, models.FilterAll, ""), models.FilterAll, "", "3")
	assert.Equal(t, LabelUpdate, v.Form.SubmitLabel)
	assert.Equal(t, models.BookID("3"), v.Form.EditingID)
	assert.False(t, v.Unread.Cards[0].Editing)
	assert.True(t, v.Unread.Cards[1].Editing)
}

func TestHTMLPageDoesNotDoubleEscape(t *testing.T) {
	h, err := NewHTML()
	require.NoError(t, err)

	v := Project(query.Visible(books, models.FilterUnread, ""), models.FilterUnread, "du", "")
	v.Notice = &Notice{Level: "success", Title: "Book added"}

	var buf bytes.Buffer
	require.NoError(t, h.Page(&buf, v))
	out := buf.String()

	assert.Contains(t, out, "&lt;script&gt;alert(&quot;x&quot;)&lt;/script&gt;")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "&amp;lt;")
	assert.Contains(t, out, `id="readBookList" style="display:none"`)
	assert.Contains(t, out, `id="filter-unread" name="filter" value="unread" class="active"`)
	assert.Contains(t, out, "Book added")
	assert.Contains(t, out, `value="du"`)
}

func TestHTMLConfirm(t *testing.T) {
	h, err := NewHTML()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, h.Confirm(&buf, ConfirmPage{
		Title:   "Delete this book?",
		Text:    "Tales & Legends by O'Brien",
		Confirm: "Delete",
		Cancel:  "Cancel",
		Action:  "/books/1/delete",
	}))
	out := buf.String()
	assert.Contains(t, out, "Delete this book?")
	assert.Contains(t, out, "<p>Tales &amp; Legends by O&#39;Brien</p>")
	assert.Contains(t, out, `action="/books/1/delete"`)
	assert.Contains(t, out, `value="yes"`)
}

func TestTerminal(t *testing.T) {
	v := Project(query.Visible(books, models.FilterRead, ""), models.FilterRead, "", "")

	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, v))
	out := buf.String()

	assert.Contains(t, out, "Dune")
	assert.Contains(t, out, "[Read]")
	assert.NotContains(t, out, "Emma")
	assert.False(t, strings.Contains(out, "Unread ("))
}
