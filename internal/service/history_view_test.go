package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/basel-ax/gallery/internal/domain"
)

// memoryStore is an in-memory history collaborator
type memoryStore struct {
	mu     sync.Mutex
	images []domain.GeneratedImage
}

func (s *memoryStore) GetImageHistory(context.Context) ([]domain.GeneratedImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.GeneratedImage{}, s.images...), nil
}

func (s *memoryStore) DeleteImageFromHistory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, img := range s.images {
		if img.ID == id {
			s.images = append(s.images[:i], s.images[i+1:]...)
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

func (s *memoryStore) ClearImageHistory(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = nil
	return nil
}

// MockHistoryStore records calls to the history collaborator
type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) GetImageHistory(ctx context.Context) ([]domain.GeneratedImage, error) {
	args := m.Called(ctx)
	images, _ := args.Get(0).([]domain.GeneratedImage)
	return images, args.Error(1)
}

func (m *MockHistoryStore) DeleteImageFromHistory(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockHistoryStore) ClearImageHistory(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func history(ids ...string) []domain.GeneratedImage {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	images := make([]domain.GeneratedImage, 0, len(ids))
	for i, id := range ids {
		images = append(images, domain.GeneratedImage{
			ID:          id,
			ImageURL:    "https://cdn.example.com/" + id + ".png",
			Prompt:      "prompt " + id,
			Model:       "acme/fast-v2",
			AspectRatio: "16:9",
			CreatedAt:   base.Add(-time.Duration(i) * time.Hour),
		})
	}
	return images
}

func ids(images []domain.GeneratedImage) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		out = append(out, img.ID)
	}
	return out
}

func TestHistoryViewStartsLoading(t *testing.T) {
	v := NewHistoryView(&memoryStore{}, AlwaysConfirm)
	assert.Equal(t, StateLoading, v.Snapshot().State)
}

func TestFocusEmptyAndPopulated(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	v := NewHistoryView(store, AlwaysConfirm)

	require.NoError(t, v.Focus(ctx))
	snap := v.Snapshot()
	assert.Equal(t, StateEmpty, snap.State)
	assert.Empty(t, snap.Images)

	store.images = history("1", "2")
	require.NoError(t, v.Focus(ctx))
	snap = v.Snapshot()
	assert.Equal(t, StatePopulated, snap.State)
	assert.Equal(t, []string{"1", "2"}, ids(snap.Images))
}

func TestFocusReplacesStateUnconditionally(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{images: history("1", "2", "3")}
	v := NewHistoryView(store, AlwaysConfirm)
	require.NoError(t, v.Focus(ctx))

	store.images = history("9")
	require.NoError(t, v.Focus(ctx))
	assert.Equal(t, []string{"9"}, ids(v.Snapshot().Images))
}

func TestFocusFailure(t *testing.T) {
	store := new(MockHistoryStore)
	storageErr := errors.Join(domain.ErrStorageUnavailable, errors.New("disk gone"))
	store.On("GetImageHistory", mock.Anything).Return(nil, storageErr).Once()

	v := NewHistoryView(store, AlwaysConfirm)
	err := v.Focus(context.Background())
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)

	snap := v.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.ErrorIs(t, snap.Err, domain.ErrStorageUnavailable)
	assert.Nil(t, snap.Images)
	assert.Equal(t, "Image history is unavailable right now. Please try again.", FailureMessage(snap.Err))
	store.AssertExpectations(t)
}

func TestFocusLatestWins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var staleCtxErr error

	calls := 0
	var mu sync.Mutex
	slow := storeFunc(func(ctx context.Context) ([]domain.GeneratedImage, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
			staleCtxErr = ctx.Err()
			return history("stale"), nil
		}
		return history("fresh"), nil
	})

	v := NewHistoryView(slow, AlwaysConfirm)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- v.Focus(ctx) }()
	<-started

	require.NoError(t, v.Focus(ctx))
	close(release)

	assert.ErrorIs(t, <-first, ErrSuperseded)
	assert.ErrorIs(t, staleCtxErr, context.Canceled)
	assert.Equal(t, []string{"fresh"}, ids(v.Snapshot().Images))
}

func TestFocusTimeout(t *testing.T) {
	store := storeFunc(func(ctx context.Context) ([]domain.GeneratedImage, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	v := NewHistoryView(store, AlwaysConfirm, WithFetchTimeout(10*time.Millisecond))
	err := v.Focus(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateFailed, v.Snapshot().State)
}

func TestDeleteImageConfirmed(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{images: history("1", "2", "3")}
	v := NewHistoryView(store, AlwaysConfirm)
	require.NoError(t, v.Focus(ctx))

	require.NoError(t, v.DeleteImage(ctx, "2"))
	snap := v.Snapshot()
	assert.Equal(t, StatePopulated, snap.State)
	assert.Equal(t, []string{"1", "3"}, ids(snap.Images))
}

func TestDeleteImageCancelled(t *testing.T) {
	ctx := context.Background()
	store := new(MockHistoryStore)
	store.On("GetImageHistory", mock.Anything).Return(history("1"), nil).Once()

	var asked Prompt
	confirmer := ConfirmFunc(func(_ context.Context, p Prompt) (bool, error) {
		asked = p
		return false, nil
	})

	v := NewHistoryView(store, confirmer)
	require.NoError(t, v.Focus(ctx))
	before := v.Snapshot()

	require.NoError(t, v.DeleteImage(ctx, "1"))
	assert.Equal(t, before, v.Snapshot())
	assert.Equal(t, DeleteImagePrompt, asked)
	store.AssertNotCalled(t, "DeleteImageFromHistory", mock.Anything, mock.Anything)
	store.AssertNumberOfCalls(t, "GetImageHistory", 1)
}

func TestDeleteImageConfirmError(t *testing.T) {
	store := new(MockHistoryStore)
	confirmer := ConfirmFunc(func(context.Context, Prompt) (bool, error) {
		return false, context.Canceled
	})

	v := NewHistoryView(store, confirmer)
	assert.ErrorIs(t, v.DeleteImage(context.Background(), "1"), context.Canceled)
	store.AssertNotCalled(t, "DeleteImageFromHistory", mock.Anything, mock.Anything)
}

func TestDeleteImageFailureSetsNotice(t *testing.T) {
	ctx := context.Background()
	store := new(MockHistoryStore)
	store.On("GetImageHistory", mock.Anything).Return(history("1"), nil).Once()
	store.On("DeleteImageFromHistory", mock.Anything, "1").Return(domain.ErrPermissionDenied).Once()

	v := NewHistoryView(store, AlwaysConfirm)
	require.NoError(t, v.Focus(ctx))

	err := v.DeleteImage(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	snap := v.Snapshot()
	assert.Equal(t, StatePopulated, snap.State)
	assert.Equal(t, []string{"1"}, ids(snap.Images))
	assert.Equal(t, "You don't have permission to change your image history.", snap.Notice)

	v.DismissNotice()
	assert.Empty(t, v.Snapshot().Notice)
	store.AssertExpectations(t)
}

func TestDeleteMissingImageRefreshes(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{images: history("1", "2")}
	v := NewHistoryView(store, AlwaysConfirm)
	require.NoError(t, v.Focus(ctx))

	// removed elsewhere while the screen was showing it
	store.images = history("2")

	err := v.DeleteImage(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	snap := v.Snapshot()
	assert.Equal(t, []string{"2"}, ids(snap.Images))
	assert.Equal(t, "This image no longer exists.", snap.Notice)
}

func TestSuccessfulDeleteClearsNotice(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{images: history("1", "2")}
	v := NewHistoryView(store, AlwaysConfirm)
	require.NoError(t, v.Focus(ctx))

	require.ErrorIs(t, v.DeleteImage(ctx, "missing"), domain.ErrRecordNotFound)
	require.Equal(t, "This image no longer exists.", v.Snapshot().Notice)

	require.NoError(t, v.DeleteImage(ctx, "1"))
	snap := v.Snapshot()
	assert.Empty(t, snap.Notice)
	assert.Equal(t, []string{"2"}, ids(snap.Images))
}

func TestSuccessfulClearClearsNotice(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{images: history("1")}
	v := NewHistoryView(store, AlwaysConfirm)
	require.NoError(t, v.Focus(ctx))

	require.Error(t, v.DeleteImage(ctx, "missing"))
	require.NotEmpty(t, v.Snapshot().Notice)

	require.NoError(t, v.ClearAll(ctx))
	snap := v.Snapshot()
	assert.Empty(t, snap.Notice)
	assert.Equal(t, StateEmpty, snap.State)
}

// blockingStore holds the nth history fetch until release is closed
type blockingStore struct {
	*memoryStore
	block   int
	started chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (s *blockingStore) GetImageHistory(ctx context.Context) ([]domain.GeneratedImage, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	if n == s.block {
		close(s.started)
		<-s.release
	}
	return s.memoryStore.GetImageHistory(ctx)
}

func TestChangeSucceedsWhenRefetchIsSuperseded(t *testing.T) {
	tests := []struct {
		name   string
		change func(context.Context, *HistoryView) error
	}{
		{name: "delete", change: func(ctx context.Context, v *HistoryView) error { return v.DeleteImage(ctx, "1") }},
		{name: "clear", change: func(ctx context.Context, v *HistoryView) error { return v.ClearAll(ctx) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := &blockingStore{
				memoryStore: &memoryStore{images: history("1")},
				block:       2,
				started:     make(chan struct{}),
				release:     make(chan struct{}),
			}
			v := NewHistoryView(store, AlwaysConfirm)
			require.NoError(t, v.Focus(ctx))

			done := make(chan error, 1)
			go func() { done <- tt.change(ctx, v) }()
			<-store.started

			// a focus event arrives while the refetch is in flight
			require.NoError(t, v.Focus(ctx))
			close(store.release)

			assert.NoError(t, <-done)
			assert.Equal(t, StateEmpty, v.Snapshot().State)
		})
	}
}

func TestFailureMessageForLoads(t *testing.T) {
	assert.Equal(t, "You don't have permission to access your image history.", FailureMessage(domain.ErrPermissionDenied))
	assert.Equal(t, "Something went wrong while loading your images.", FailureMessage(errors.New("boom")))
}

func TestClearAllConfirmed(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{images: history("1", "2")}

	var asked Prompt
	confirmer := ConfirmFunc(func(_ context.Context, p Prompt) (bool, error) {
		asked = p
		return true, nil
	})

	v := NewHistoryView(store, confirmer)
	require.NoError(t, v.Focus(ctx))
	require.NoError(t, v.ClearAll(ctx))

	assert.Equal(t, ClearHistoryPrompt, asked)
	assert.Equal(t, StateEmpty, v.Snapshot().State)
	images, _ := store.GetImageHistory(ctx)
	assert.Empty(t, images)
}

func TestClearAllCancelled(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{images: history("1", "2")}
	v := NewHistoryView(store, NeverConfirm)
	require.NoError(t, v.Focus(ctx))

	require.NoError(t, v.ClearAll(ctx))
	assert.Equal(t, []string{"1", "2"}, ids(v.Snapshot().Images))
}

func TestClearAllOnEmptyHistoryIsNoop(t *testing.T) {
	ctx := context.Background()
	store := new(MockHistoryStore)
	store.On("GetImageHistory", mock.Anything).Return([]domain.GeneratedImage{}, nil).Once()

	prompted := false
	confirmer := ConfirmFunc(func(context.Context, Prompt) (bool, error) {
		prompted = true
		return true, nil
	})

	v := NewHistoryView(store, confirmer)
	require.NoError(t, v.Focus(ctx))
	require.NoError(t, v.ClearAll(ctx))

	assert.False(t, prompted)
	store.AssertNotCalled(t, "ClearImageHistory", mock.Anything)
}

func TestClearAllFailure(t *testing.T) {
	ctx := context.Background()
	store := new(MockHistoryStore)
	store.On("GetImageHistory", mock.Anything).Return(history("1"), nil).Once()
	store.On("ClearImageHistory", mock.Anything).Return(errors.New("boom")).Once()

	v := NewHistoryView(store, AlwaysConfirm)
	require.NoError(t, v.Focus(ctx))

	assert.Error(t, v.ClearAll(ctx))
	snap := v.Snapshot()
	assert.Equal(t, StatePopulated, snap.State)
	assert.Equal(t, "Something went wrong while clearing your history.", snap.Notice)
	store.AssertExpectations(t)
}

func TestScenarioSingleImageDeleted(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{images: []domain.GeneratedImage{{
		ID:          "1",
		ImageURL:    "https://cdn.example.com/1.png",
		Prompt:      "a cat",
		Model:       "acme/fast-v2",
		AspectRatio: "16:9",
		CreatedAt:   time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
	}}}
	v := NewHistoryView(store, AlwaysConfirm)

	require.NoError(t, v.Focus(ctx))
	snap := v.Snapshot()
	require.Len(t, snap.Images, 1)
	assert.Equal(t, "fast-v2 • 16:9", snap.Images[0].Label())

	require.NoError(t, v.DeleteImage(ctx, "1"))
	assert.Equal(t, StateEmpty, v.Snapshot().State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "populated", StatePopulated.String())
	assert.Equal(t, "State(9)", State(9).String())
}

// storeFunc serves GetImageHistory from a function; deletes are not expected
type storeFunc func(ctx context.Context) ([]domain.GeneratedImage, error)

func (f storeFunc) GetImageHistory(ctx context.Context) ([]domain.GeneratedImage, error) {
	return f(ctx)
}

func (f storeFunc) DeleteImageFromHistory(context.Context, string) error {
	return errors.New("unexpected delete")
}

func (f storeFunc) ClearImageHistory(context.Context) error {
	return errors.New("unexpected clear")
}
