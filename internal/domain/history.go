package domain

import (
	"context"
)

// HistoryStore defines the storage collaborator the gallery view depends on
type HistoryStore interface {
	// GetImageHistory returns all stored records, newest first
	GetImageHistory(ctx context.Context) ([]GeneratedImage, error)

	// DeleteImageFromHistory removes one record by its identifier
	DeleteImageFromHistory(ctx context.Context, id string) error

	// ClearImageHistory removes all records
	ClearImageHistory(ctx context.Context) error
}

// HistoryRepository extends HistoryStore with the operations used by the generation flow
type HistoryRepository interface {
	HistoryStore

	// SaveImageToHistory stores a new record, assigning an ID and creation time when missing
	SaveImageToHistory(ctx context.Context, img *GeneratedImage) error

	// GetImage returns a single record by its identifier
	GetImage(ctx context.Context, id string) (*GeneratedImage, error)
}
