package controller

import (
	"context"

	"bookshelf/pkg/models"
)

const (
	PromptDelete   = "delete"
	PromptFinished = "finished"
)

// Prompt describes a question put to the user before a mutation.
type Prompt struct {
	Kind         string        `json:"kind"`
	BookID       models.BookID `json:"bookId"`
	Title        string        `json:"title"`
	ConfirmLabel string        `json:"confirmLabel"`
	CancelLabel  string        `json:"cancelLabel"`
}

// Confirmer asks the user and waits for the answer. The mutation behind a
// prompt runs only when Confirm returns true with a nil error.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// Answer is a Confirmer that always gives the same reply.
type Answer bool

func (a Answer) Confirm(ctx context.Context, _ Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return bool(a), nil
}

func deletePrompt(id models.BookID) Prompt {
	return Prompt{
		Kind:         PromptDelete,
		BookID:       id,
		Title:        "Delete this book?",
		ConfirmLabel: "Delete",
		CancelLabel:  "Cancel",
	}
}

func finishedPrompt(id models.BookID) Prompt {
	return Prompt{
		Kind:         PromptFinished,
		BookID:       id,
		Title:        "Finished reading?",
		ConfirmLabel: "Yes, finished",
		CancelLabel:  "Not yet",
	}
}
