package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/basel-ax/gallery/internal/domain"
)

const (
	imageColumns = "id, image_url, prompt, model, aspect_ratio, created_at"
	historyOrder = "ORDER BY created_at DESC, id ASC"
)

// prepareImage fills in the identifier and creation time of a new record and validates it.
// Creation times are kept at millisecond precision so every store round-trips them unchanged.
func prepareImage(img *domain.GeneratedImage, now func() time.Time) error {
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = now()
	}
	img.CreatedAt = img.CreatedAt.UTC().Truncate(time.Millisecond)
	return img.Validate()
}
