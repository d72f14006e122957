package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/basel-ax/gallery/internal/domain"
	"github.com/basel-ax/gallery/internal/logging"
)

// ErrSuperseded is returned by Focus when a newer focus event replaced the fetch before it finished
var ErrSuperseded = errors.New("history fetch superseded by a newer focus event")

// State is the visual state of the history view
type State int

const (
	StateLoading State = iota
	StateEmpty
	StatePopulated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is an immutable copy of the view state.
// Images is set only for StatePopulated, Err only for StateFailed.
type Snapshot struct {
	State  State
	Images []domain.GeneratedImage
	Err    error
	Notice string
}

// HistoryView holds the state behind the image history screen
type HistoryView struct {
	store        domain.HistoryStore
	confirmer    Confirmer
	fetchTimeout time.Duration

	mu          sync.Mutex
	seq         uint64
	cancelFetch context.CancelFunc
	state       State
	images      []domain.GeneratedImage
	err         error
	notice      string
}

// Option configures a HistoryView
type Option func(*HistoryView)

// WithFetchTimeout bounds every history fetch
func WithFetchTimeout(d time.Duration) Option {
	return func(v *HistoryView) {
		v.fetchTimeout = d
	}
}

// NewHistoryView creates a view over store; destructive actions are gated by confirmer
func NewHistoryView(store domain.HistoryStore, confirmer Confirmer, opts ...Option) *HistoryView {
	v := &HistoryView{
		store:     store,
		confirmer: confirmer,
		state:     StateLoading,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Focus handles the screen becoming visible: it fetches the full history and replaces the view state.
// A newer Focus cancels the in-flight fetch of an older one, whose result is then discarded.
func (v *HistoryView) Focus(ctx context.Context) error {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	if v.cancelFetch != nil {
		v.cancelFetch()
	}
	var (
		fetchCtx context.Context
		cancel   context.CancelFunc
	)
	if v.fetchTimeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, v.fetchTimeout)
	} else {
		fetchCtx, cancel = context.WithCancel(ctx)
	}
	v.cancelFetch = cancel
	v.state = StateLoading
	v.mu.Unlock()

	images, err := v.store.GetImageHistory(fetchCtx)
	cancel()

	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.seq {
		logging.WithField("fetch", seq).Debug("Discarding superseded history fetch")
		return ErrSuperseded
	}
	v.cancelFetch = nil

	if err != nil {
		v.state = StateFailed
		v.images = nil
		v.err = err
		logging.WithError(err).Error("Failed to load image history")
		return fmt.Errorf("load image history: %w", err)
	}

	v.images = images
	v.err = nil
	if len(images) == 0 {
		v.state = StateEmpty
	} else {
		v.state = StatePopulated
	}
	logging.WithFields(map[string]interface{}{
		"fetch":  seq,
		"images": len(images),
	}).Debug("Loaded image history")
	return nil
}

// DeleteImage asks for confirmation, deletes the image and refreshes the history.
// Cancelling leaves the view untouched.
func (v *HistoryView) DeleteImage(ctx context.Context, id string) error {
	ok, err := v.confirmer.Confirm(ctx, DeleteImagePrompt)
	if err != nil {
		return fmt.Errorf("confirm delete: %w", err)
	}
	if !ok {
		logging.WithField("image_id", id).Debug("Delete cancelled")
		return nil
	}

	if err := v.store.DeleteImageFromHistory(ctx, id); err != nil {
		logging.WithError(err).WithField("image_id", id).Error("Failed to delete image")
		v.setNotice(noticeFor(deleteAction, err))
		if errors.Is(err, domain.ErrRecordNotFound) {
			// the list on screen is stale
			v.refreshAfterFailure(ctx)
		}
		return fmt.Errorf("delete image %s: %w", id, err)
	}

	logging.WithField("image_id", id).Info("Deleted image from history")
	v.setNotice("")
	return v.refresh(ctx)
}

// ClearAll asks for confirmation, clears the history and refreshes it.
// It does nothing while there are no images on screen, as the clear control is not shown then.
func (v *HistoryView) ClearAll(ctx context.Context) error {
	v.mu.Lock()
	populated := v.state == StatePopulated
	v.mu.Unlock()
	if !populated {
		return nil
	}

	ok, err := v.confirmer.Confirm(ctx, ClearHistoryPrompt)
	if err != nil {
		return fmt.Errorf("confirm clear: %w", err)
	}
	if !ok {
		logging.Debugf("Clear history cancelled")
		return nil
	}

	if err := v.store.ClearImageHistory(ctx); err != nil {
		logging.WithError(err).Error("Failed to clear image history")
		v.setNotice(noticeFor(clearAction, err))
		return fmt.Errorf("clear image history: %w", err)
	}

	logging.Infof("Cleared image history")
	v.setNotice("")
	return v.refresh(ctx)
}

// Snapshot returns a copy of the current view state
func (v *HistoryView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	s := Snapshot{State: v.state, Notice: v.notice}
	switch v.state {
	case StatePopulated:
		s.Images = append([]domain.GeneratedImage(nil), v.images...)
	case StateFailed:
		s.Err = v.err
	}
	return s
}

// DismissNotice clears the error notice shown to the user
func (v *HistoryView) DismissNotice() {
	v.setNotice("")
}

func (v *HistoryView) setNotice(notice string) {
	v.mu.Lock()
	v.notice = notice
	v.mu.Unlock()
}

// refresh refetches after a change. A refetch superseded by a newer focus
// is not an error of the change.
func (v *HistoryView) refresh(ctx context.Context) error {
	if err := v.Focus(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		return err
	}
	return nil
}

func (v *HistoryView) refreshAfterFailure(ctx context.Context) {
	if err := v.Focus(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		logging.WithError(err).Warn("Failed to refresh history after a failed delete")
	}
}

// FailureMessage describes a failed history load for display
func FailureMessage(err error) string {
	return noticeFor(loadAction, err)
}

type action struct {
	// doing completes "Something went wrong while ..."
	doing string
	// permission completes "You don't have permission to ... your image history."
	permission string
}

var (
	loadAction   = action{doing: "loading your images", permission: "access"}
	deleteAction = action{doing: "deleting the image", permission: "change"}
	clearAction  = action{doing: "clearing your history", permission: "change"}
)

func noticeFor(a action, err error) string {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return "This image no longer exists."
	case errors.Is(err, domain.ErrPermissionDenied):
		return "You don't have permission to " + a.permission + " your image history."
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "Image history is unavailable right now. Please try again."
	default:
		return "Something went wrong while " + a.doing + "."
	}
}
