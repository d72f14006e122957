package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/basel-ax/gallery/internal/domain"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS image_history (
		id           TEXT PRIMARY KEY,
		image_url    TEXT NOT NULL,
		prompt       TEXT NOT NULL DEFAULT '',
		model        TEXT NOT NULL,
		aspect_ratio TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_image_history_created_at ON image_history (created_at DESC);
`

// PostgresHistoryRepository implements domain.HistoryRepository for PostgreSQL
type PostgresHistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresHistoryRepository creates a new PostgreSQL history repository
func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db, now: time.Now}
}

// EnsureSchema creates the history table when it does not exist yet
func (r *PostgresHistoryRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, postgresSchema)
	return classify("create image_history schema", err)
}

// GetImageHistory retrieves all records, newest first
func (r *PostgresHistoryRepository) GetImageHistory(ctx context.Context) ([]domain.GeneratedImage, error) {
	query := `SELECT ` + imageColumns + ` FROM image_history ` + historyOrder

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("query image history", err)
	}
	defer rows.Close()

	images := []domain.GeneratedImage{}
	for rows.Next() {
		var img domain.GeneratedImage
		if err := rows.Scan(&img.ID, &img.ImageURL, &img.Prompt, &img.Model, &img.AspectRatio, &img.CreatedAt); err != nil {
			return nil, classify("scan image history", err)
		}
		img.CreatedAt = img.CreatedAt.UTC()
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate image history", err)
	}

	return images, nil
}

// GetImage retrieves a single record
func (r *PostgresHistoryRepository) GetImage(ctx context.Context, id string) (*domain.GeneratedImage, error) {
	query := `SELECT ` + imageColumns + ` FROM image_history WHERE id = $1`

	var img domain.GeneratedImage
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&img.ID,
		&img.ImageURL,
		&img.Prompt,
		&img.Model,
		&img.AspectRatio,
		&img.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, classify("get image", err)
	}

	img.CreatedAt = img.CreatedAt.UTC()
	return &img, nil
}

// SaveImageToHistory inserts a new record
func (r *PostgresHistoryRepository) SaveImageToHistory(ctx context.Context, img *domain.GeneratedImage) error {
	if err := prepareImage(img, r.now); err != nil {
		return err
	}

	query := `
		INSERT INTO image_history (id, image_url, prompt, model, aspect_ratio, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query, img.ID, img.ImageURL, img.Prompt, img.Model, img.AspectRatio, img.CreatedAt)
	return classify("save image", err)
}

// DeleteImageFromHistory removes a record, failing with domain.ErrRecordNotFound when it does not exist
func (r *PostgresHistoryRepository) DeleteImageFromHistory(ctx context.Context, id string) error {
	query := `DELETE FROM image_history WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return classify("delete image", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return classify("delete image", err)
	}
	if affected == 0 {
		return notFound(id)
	}
	return nil
}

// ClearImageHistory removes all records
func (r *PostgresHistoryRepository) ClearImageHistory(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM image_history`)
	return classify("clear image history", err)
}
