// Package web serves the bookshelf page and its JSON API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bookshelf/internal/books"
	"bookshelf/internal/controller"
	"bookshelf/internal/render"
	"bookshelf/pkg/logging"
	"bookshelf/pkg/models"
)

type Handler struct {
	Ctl    *controller.Controller
	Store  *books.Store
	HTML   *render.HTML
	Logger *zap.Logger
}

func NewHandler(ctl *controller.Controller, store *books.Store, html *render.HTML, logger *zap.Logger) *Handler {
	return &Handler{Ctl: ctl, Store: store, HTML: html, Logger: logging.OrNop(logger)}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.Use(h.refreshOnRead)

	r.GET("/", h.page)
	r.GET("/search", h.search)
	r.POST("/books", h.submit)
	r.POST("/books/:id/edit", h.edit)
	r.POST("/books/:id/delete", h.remove)
	r.POST("/books/:id/toggle", h.toggle)
	r.POST("/edit/cancel", h.cancelEdit)
	r.POST("/filter", h.setFilter)

	h.registerAPI(r.Group("/api"))
}

// refreshOnRead picks up writes made by other processes, such as the CLI,
// before a GET is answered. Mutations refresh inside the store.
func (h *Handler) refreshOnRead(c *gin.Context) {
	if c.Request.Method == http.MethodGet {
		h.Store.Refresh(c.Request.Context())
	}
	c.Next()
}

// formConfirmer answers a prompt from the submitted confirm field. An empty
// field means the user has not been asked yet.
type formConfirmer struct {
	answer string
}

func (f formConfirmer) Confirm(ctx context.Context, _ controller.Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return f.answer == "yes", nil
}

func (h *Handler) page(c *gin.Context) {
	if q, ok := c.GetQuery("q"); ok {
		h.Ctl.Search(q)
	}
	h.renderPage(c, http.StatusOK, nil)
}

func (h *Handler) search(c *gin.Context) {
	h.Ctl.Search(c.Query("q"))
	h.renderPage(c, http.StatusOK, nil)
}

func (h *Handler) submit(c *gin.Context) {
	in := controller.Submission{
		Title:      c.PostForm("title"),
		Author:     c.PostForm("author"),
		Year:       c.PostForm("year"),
		IsComplete: isChecked(c.PostForm("isComplete")),
	}

	out, err := h.Ctl.Submit(c.Request.Context(), in)
	h.renderPage(c, statusFor(err), out.Notice)
}

func (h *Handler) edit(c *gin.Context) {
	out := h.Ctl.ClickEdit(models.BookID(c.Param("id")))
	h.renderPage(c, http.StatusOK, out.Notice)
}

func (h *Handler) cancelEdit(c *gin.Context) {
	h.Ctl.CancelEdit()
	h.renderPage(c, http.StatusOK, nil)
}

func (h *Handler) remove(c *gin.Context) {
	id := models.BookID(c.Param("id"))
	answer := c.PostForm("confirm")

	out, err := h.Ctl.ClickDelete(c.Request.Context(), id, formConfirmer{answer: answer})
	if out.Prompt != nil && answer == "" {
		h.renderConfirm(c, *out.Prompt, "/books/"+id.String()+"/delete")
		return
	}
	h.renderPage(c, statusFor(err), out.Notice)
}

func (h *Handler) toggle(c *gin.Context) {
	id := models.BookID(c.Param("id"))
	answer := c.PostForm("confirm")

	out, err := h.Ctl.ClickToggle(c.Request.Context(), id, formConfirmer{answer: answer})
	if out.Prompt != nil && answer == "" {
		h.renderConfirm(c, *out.Prompt, "/books/"+id.String()+"/toggle")
		return
	}
	h.renderPage(c, statusFor(err), out.Notice)
}

func (h *Handler) setFilter(c *gin.Context) {
	f, ok := models.ParseFilter(c.PostForm("filter"))
	if !ok {
		h.renderPage(c, http.StatusBadRequest, &render.Notice{Level: "error", Title: "Unknown filter"})
		return
	}
	err := h.Ctl.SetFilter(c.Request.Context(), f)
	h.renderPage(c, statusFor(err), nil)
}

func (h *Handler) renderPage(c *gin.Context, status int, notice *render.Notice) {
	v := h.Ctl.View()
	v.Notice = notice

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := h.HTML.Page(c.Writer, v); err != nil {
		h.Logger.Error("render page", zap.Error(err))
		_ = c.Error(err)
	}
}

func (h *Handler) renderConfirm(c *gin.Context, p controller.Prompt, action string) {
	var text string
	if b, ok := h.Store.Get(p.BookID); ok {
		text = fmt.Sprintf("%s by %s", b.Title, b.Author)
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "text/html; charset=utf-8")
	err := h.HTML.Confirm(c.Writer, render.ConfirmPage{
		Title:   p.Title,
		Text:    text,
		Confirm: p.ConfirmLabel,
		Cancel:  p.CancelLabel,
		Action:  action,
	})
	if err != nil {
		h.Logger.Error("render confirm", zap.Error(err))
		_ = c.Error(err)
	}
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, books.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, books.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func isChecked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}
