// Package controller turns user events into collection mutations and tracks
// which book, if any, the form is editing.
package controller

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"bookshelf/internal/books"
	"bookshelf/internal/query"
	"bookshelf/internal/render"
	"bookshelf/pkg/logging"
	"bookshelf/pkg/models"
)

// FilterStore persists the selected filter.
type FilterStore interface {
	LoadFilter(ctx context.Context) models.Filter
	SaveFilter(ctx context.Context, f models.Filter) error
}

// Submission is the raw content of the book form.
type Submission struct {
	Title      string
	Author     string
	Year       string
	IsComplete bool
}

// State is Idle when Editing is empty.
type State struct {
	Editing models.BookID
}

func (s State) Idle() bool { return s.Editing == "" }

// Outcome reports the effect of one event.
type Outcome struct {
	Applied bool           `json:"applied"`
	Book    *models.Book   `json:"book,omitempty"`
	Notice  *render.Notice `json:"notice,omitempty"`
	Form    render.Form    `json:"form"`
	// Prompt is set when a confirmation was asked and not granted.
	Prompt *Prompt `json:"prompt,omitempty"`
}

// Controller processes one event at a time. Confirmation prompts are awaited
// without holding the lock, so other events may run while a prompt is open.
type Controller struct {
	mu      sync.Mutex
	store   *books.Store
	filters FilterStore
	logger  *zap.Logger

	pub books.Publisher
	now func() time.Time

	editing models.BookID
	form    Submission
	filter  models.Filter
	search  string
}

type Option func(*Controller)

// WithPublisher announces filter changes on p.
func WithPublisher(p books.Publisher) Option { return func(c *Controller) { c.pub = p } }

func New(ctx context.Context, store *books.Store, filters FilterStore, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		store:   store,
		filters: filters,
		logger:  logging.OrNop(logger),
		now:     time.Now,
		filter:  filters.LoadFilter(ctx),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{Editing: c.editing}
}

// Submit adds a book when idle, or updates the edited book in place. Invalid
// input keeps the form as entered and leaves the state unchanged.
func (c *Controller) Submit(ctx context.Context, in Submission) (Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	draft, err := parseSubmission(in)
	if err != nil {
		c.form = in
		c.logger.Debug("rejected submission", zap.Error(err))
		return Outcome{Notice: errorNotice("Fill in every field: " + err.Error()), Form: c.formState()}, err
	}

	if c.editing != "" {
		id := c.editing
		b, err := c.store.Update(ctx, id, draft)
		c.resetForm()
		switch {
		case errors.Is(err, books.ErrNotFound):
			// edited book vanished meanwhile
			c.logger.Debug("update of missing book ignored", zap.String("id", id.String()))
			return Outcome{Form: c.formState()}, nil
		case err != nil:
			return Outcome{Book: &b, Notice: storageNotice(), Form: c.formState()}, err
		}
		c.logger.Info("book updated", zap.String("id", id.String()))
		return Outcome{Applied: true, Book: &b, Notice: successNotice("Changes saved"), Form: c.formState()}, nil
	}

	b, err := c.store.Add(ctx, draft)
	c.resetForm()
	if err != nil {
		// the book is on the shelf, only the save failed
		return Outcome{Applied: true, Book: &b, Notice: storageNotice(), Form: c.formState()}, err
	}
	c.logger.Info("book added", zap.String("id", b.ID.String()))
	return Outcome{Applied: true, Book: &b, Notice: successNotice("Book added"), Form: c.formState()}, nil
}

// ClickEdit fills the form from id and enters editing mode. An unknown id is
// ignored.
func (c *Controller) ClickEdit(id models.BookID) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.store.Get(id)
	if !ok {
		return Outcome{Form: c.formState()}
	}
	c.editing = id
	c.form = Submission{
		Title:      b.Title,
		Author:     b.Author,
		Year:       strconv.Itoa(b.Year),
		IsComplete: b.IsComplete,
	}
	return Outcome{Book: &b, Notice: infoNotice("Edit mode on"), Form: c.formState()}
}

// CancelEdit leaves editing mode and clears the form.
func (c *Controller) CancelEdit() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetForm()
	return Outcome{Form: c.formState()}
}

// ClickDelete removes id after the user confirms. Deleting the edited book
// clears the form; deleting any other book leaves editing untouched.
func (c *Controller) ClickDelete(ctx context.Context, id models.BookID, confirm Confirmer) (Outcome, error) {
	if _, ok := c.store.Get(id); !ok {
		return c.noop(), nil
	}

	p := deletePrompt(id)
	ok, err := confirm.Confirm(ctx, p)
	if err != nil {
		return c.noop(), err
	}
	if !ok {
		out := c.noop()
		out.Prompt = &p
		return out, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := c.store.Remove(ctx, id)
	if !removed {
		// already gone
		return Outcome{Form: c.formState()}, nil
	}
	if c.editing == id {
		c.resetForm()
	}
	if err != nil {
		return Outcome{Applied: true, Notice: storageNotice(), Form: c.formState()}, err
	}
	c.logger.Info("book deleted", zap.String("id", id.String()))
	return Outcome{Applied: true, Notice: successNotice("Deleted"), Form: c.formState()}, nil
}

// ClickToggle flips the completion status of id. Marking a book finished asks
// for confirmation first; marking it unread does not. Editing is unaffected.
func (c *Controller) ClickToggle(ctx context.Context, id models.BookID, confirm Confirmer) (Outcome, error) {
	b, ok := c.store.Get(id)
	if !ok {
		return c.noop(), nil
	}

	done := !b.IsComplete
	if done {
		p := finishedPrompt(id)
		ok, err := confirm.Confirm(ctx, p)
		if err != nil {
			return c.noop(), err
		}
		if !ok {
			out := c.noop()
			out.Prompt = &p
			return out, nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	updated, err := c.store.SetComplete(ctx, id, done)
	switch {
	case errors.Is(err, books.ErrNotFound):
		return Outcome{Form: c.formState()}, nil
	case err != nil:
		return Outcome{Applied: true, Book: &updated, Notice: storageNotice(), Form: c.formState()}, err
	}

	notice := infoNotice("Marked unread")
	if done {
		notice = successNotice("Marked finished")
	}
	return Outcome{Applied: true, Book: &updated, Notice: notice, Form: c.formState()}, nil
}

// SetFilter selects and persists the displayed group.
func (c *Controller) SetFilter(ctx context.Context, f models.Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filter = f
	if err := c.filters.SaveFilter(ctx, f); err != nil {
		return err
	}
	if c.pub != nil {
		c.pub.Publish(models.ChangeEvent{Type: models.EventFilter, Filter: f, At: c.now().UTC()})
	}
	return nil
}

func (c *Controller) Filter() models.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Search sets the title search text. It is never persisted.
func (c *Controller) Search(text string) {
	c.mu.Lock()
	c.search = strings.TrimSpace(text)
	c.mu.Unlock()
}

// View projects the current collection, filter, search and form.
func (c *Controller) View() render.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := query.Visible(c.store.List(), c.filter, c.search)
	v := render.Project(res, c.filter, c.search, c.editing)
	v.Form = c.formState()
	return v
}

func (c *Controller) noop() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Outcome{Form: c.formState()}
}

// caller holds c.mu
func (c *Controller) resetForm() {
	c.editing = ""
	c.form = Submission{}
}

// caller holds c.mu
func (c *Controller) formState() render.Form {
	f := render.Form{
		Title:       c.form.Title,
		Author:      c.form.Author,
		Year:        c.form.Year,
		IsComplete:  c.form.IsComplete,
		EditingID:   c.editing,
		SubmitLabel: render.LabelSave,
	}
	if c.editing != "" {
		f.SubmitLabel = render.LabelUpdate
	}
	return f
}

func parseSubmission(in Submission) (books.Draft, error) {
	d := books.Draft{
		Title:      in.Title,
		Author:     in.Author,
		IsComplete: in.IsComplete,
	}
	if err := d.Validate(); err != nil {
		var verr *books.ValidationError
		// year is checked below from its text form
		if !errors.As(err, &verr) || verr.Field != "year" {
			return books.Draft{}, err
		}
	}
	year, err := books.ParseYear(in.Year)
	if err != nil {
		return books.Draft{}, err
	}
	d.Year = year
	return d, nil
}

func successNotice(title string) *render.Notice { return &render.Notice{Level: "success", Title: title} }
func infoNotice(title string) *render.Notice    { return &render.Notice{Level: "info", Title: title} }
func errorNotice(title string) *render.Notice   { return &render.Notice{Level: "error", Title: title} }
func storageNotice() *render.Notice             { return errorNotice("Could not save your bookshelf") }
