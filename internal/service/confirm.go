package service

import "context"

// Prompt describes a confirmation dialog for a destructive action
type Prompt struct {
	Title       string
	Message     string
	CancelText  string
	ConfirmText string
	Destructive bool
}

var (
	// DeleteImagePrompt is shown before a single image is deleted
	DeleteImagePrompt = Prompt{
		Title:       "Delete Image",
		Message:     "Are you sure you want to delete this image?",
		CancelText:  "Cancel",
		ConfirmText: "Delete",
		Destructive: true,
	}

	// ClearHistoryPrompt is shown before the whole history is cleared
	ClearHistoryPrompt = Prompt{
		Title:       "Clear All History",
		Message:     "Are you sure you want to delete all images?",
		CancelText:  "Cancel",
		ConfirmText: "Clear All",
		Destructive: true,
	}
)

// Confirmer asks the user to confirm or cancel an action.
// It returns true only when the user picked the confirm action.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface
type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) {
	return f(ctx, p)
}

var (
	// AlwaysConfirm confirms every prompt
	AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, Prompt) (bool, error) { return true, nil })
	// NeverConfirm cancels every prompt
	NeverConfirm Confirmer = ConfirmFunc(func(context.Context, Prompt) (bool, error) { return false, nil })
)
