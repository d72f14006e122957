package repository

import (
	"context"
	"errors"

	"github.com/basel-ax/gallery/internal/domain"
	"github.com/basel-ax/gallery/internal/logging"
	"github.com/basel-ax/gallery/internal/objectstore"
)

// ObjectRemover removes the stored file behind an image URL
type ObjectRemover interface {
	RemoveObject(ctx context.Context, imageURL string) error
}

// CleanupRepository removes image objects after their history records are deleted.
// Object removal is best effort and never fails the history operation.
type CleanupRepository struct {
	domain.HistoryRepository
	remover ObjectRemover
}

// NewCleanupRepository wraps next so deletes also remove the backing image objects
func NewCleanupRepository(next domain.HistoryRepository, remover ObjectRemover) *CleanupRepository {
	return &CleanupRepository{HistoryRepository: next, remover: remover}
}

// DeleteImageFromHistory deletes the record, then its image object
func (r *CleanupRepository) DeleteImageFromHistory(ctx context.Context, id string) error {
	img, err := r.HistoryRepository.GetImage(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrRecordNotFound) {
		logging.WithError(err).WithField("image_id", id).Warn("Failed to look up image before delete")
	}

	if err := r.HistoryRepository.DeleteImageFromHistory(ctx, id); err != nil {
		return err
	}

	if img != nil {
		r.remove(ctx, *img)
	}
	return nil
}

// ClearImageHistory clears the history, then removes every image object it held
func (r *CleanupRepository) ClearImageHistory(ctx context.Context) error {
	images, err := r.HistoryRepository.GetImageHistory(ctx)
	if err != nil {
		logging.WithError(err).Warn("Failed to list images before clearing history")
	}

	if err := r.HistoryRepository.ClearImageHistory(ctx); err != nil {
		return err
	}

	for _, img := range images {
		r.remove(ctx, img)
	}
	return nil
}

func (r *CleanupRepository) remove(ctx context.Context, img domain.GeneratedImage) {
	err := r.remover.RemoveObject(ctx, img.ImageURL)
	switch {
	case err == nil:
	case errors.Is(err, objectstore.ErrForeignObject):
		logging.WithField("image_id", img.ID).Debug("Image object is not managed here, skipping removal")
	default:
		logging.WithError(err).WithField("image_id", img.ID).Warn("Failed to remove image object")
	}
}
