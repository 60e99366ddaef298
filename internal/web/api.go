package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookshelf/internal/books"
	"bookshelf/internal/controller"
	"bookshelf/pkg/models"
)

func (h *Handler) registerAPI(rg *gin.RouterGroup) {
	rg.GET("/books", h.listBooks)
	rg.GET("/books/:id", h.getBook)
	rg.POST("/books", h.submitBook)
	rg.PUT("/books/:id", h.updateBook)
	rg.DELETE("/books/:id", h.deleteBook)
	rg.POST("/books/:id/toggle", h.toggleBook)
	rg.POST("/books/:id/edit", h.editBook)
	rg.POST("/edit/cancel", h.cancelEditBook)
	rg.GET("/view", h.view)
	rg.GET("/filter", h.getFilter)
	rg.PUT("/filter", h.putFilter)
}

// bookReq takes year as a number or as form text.
type bookReq struct {
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Year       yearField `json:"year"`
	IsComplete bool      `json:"isComplete"`
}

func (r bookReq) submission() controller.Submission {
	return controller.Submission{
		Title:      r.Title,
		Author:     r.Author,
		Year:       string(r.Year),
		IsComplete: r.IsComplete,
	}
}

// yearField holds the year as form text. Integral numbers in any JSON
// spelling become plain digits; null becomes empty.
type yearField string

func (y *yearField) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch v := v.(type) {
	case nil:
		*y = ""
	case string:
		*y = yearField(v)
	case json.Number:
		*y = yearField(v.String())
		if n, err := v.Int64(); err == nil {
			*y = yearField(strconv.FormatInt(n, 10))
		} else if f, err := v.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1e15 {
			*y = yearField(strconv.FormatInt(int64(f), 10))
		}
	default:
		return fmt.Errorf("year must be a number or text, got %s", b)
	}
	return nil
}

type filterReq struct {
	Filter string `json:"filter"`
}

func (h *Handler) listBooks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"books": h.Store.List()})
}

func (h *Handler) getBook(c *gin.Context) {
	b, ok := h.Store.Get(models.BookID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}
	c.JSON(http.StatusOK, b)
}

// submitBook behaves like the page form: it adds a book, or updates the one
// being edited.
func (h *Handler) submitBook(c *gin.Context) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	editing := !h.Ctl.State().Idle()
	out, err := h.Ctl.Submit(c.Request.Context(), req.submission())
	if err != nil {
		h.writeError(c, err)
		return
	}
	status := http.StatusOK
	if out.Applied && !editing {
		status = http.StatusCreated
	}
	c.JSON(status, out)
}

// updateBook writes id directly, independent of the form.
func (h *Handler) updateBook(c *gin.Context) {
	var req bookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	in := req.submission()
	year, err := books.ParseYear(in.Year)
	if err != nil {
		h.writeError(c, err)
		return
	}
	draft := books.Draft{Title: in.Title, Author: in.Author, Year: year, IsComplete: in.IsComplete}

	b, err := h.Store.Update(c.Request.Context(), models.BookID(c.Param("id")), draft)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) deleteBook(c *gin.Context) {
	id := models.BookID(c.Param("id"))
	if _, ok := h.Store.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}

	out, err := h.Ctl.ClickDelete(c.Request.Context(), id, queryConfirmer(c))
	h.writeOutcome(c, out, err)
}

func (h *Handler) toggleBook(c *gin.Context) {
	id := models.BookID(c.Param("id"))
	if _, ok := h.Store.Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}

	out, err := h.Ctl.ClickToggle(c.Request.Context(), id, queryConfirmer(c))
	h.writeOutcome(c, out, err)
}

func (h *Handler) editBook(c *gin.Context) {
	out := h.Ctl.ClickEdit(models.BookID(c.Param("id")))
	if out.Book == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) cancelEditBook(c *gin.Context) {
	c.JSON(http.StatusOK, h.Ctl.CancelEdit())
}

func (h *Handler) view(c *gin.Context) {
	if q, ok := c.GetQuery("q"); ok {
		h.Ctl.Search(q)
	}
	c.JSON(http.StatusOK, h.Ctl.View())
}

func (h *Handler) getFilter(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"filter": h.Ctl.Filter()})
}

func (h *Handler) putFilter(c *gin.Context) {
	var req filterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	f, ok := models.ParseFilter(req.Filter)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filter must be one of: all, unread, read"})
		return
	}
	if err := h.Ctl.SetFilter(c.Request.Context(), f); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"filter": f})
}

func queryConfirmer(c *gin.Context) controller.Confirmer {
	return controller.Answer(strings.EqualFold(c.Query("confirm"), "yes"))
}

// writeOutcome answers 409 with the prompt when a confirmation is missing.
func (h *Handler) writeOutcome(c *gin.Context, out controller.Outcome, err error) {
	switch {
	case err != nil:
		h.writeError(c, err)
	case out.Prompt != nil:
		c.JSON(http.StatusConflict, gin.H{"error": "confirmation required", "prompt": out.Prompt})
	default:
		c.JSON(http.StatusOK, out)
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var verr *books.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, books.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "book not found"})
	default:
		h.Logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
	}
}
