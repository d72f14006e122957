package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/basel-ax/gallery/internal/domain"
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS image_history (
		id           TEXT PRIMARY KEY,
		image_url    TEXT NOT NULL,
		prompt       TEXT NOT NULL DEFAULT '',
		model        TEXT NOT NULL,
		aspect_ratio TEXT NOT NULL,
		created_at   INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_image_history_created_at ON image_history (created_at DESC);
`

// SQLiteHistoryRepository implements domain.HistoryRepository on a local SQLite file.
// created_at is stored as unix milliseconds.
type SQLiteHistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteHistoryRepository opens (creating if needed) the database at path and its schema
func NewSQLiteHistoryRepository(ctx context.Context, path string) (*SQLiteHistoryRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, classify("open sqlite database", err)
	}
	// a single connection serialises writers and keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, classify("configure sqlite database", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, classify("create image_history schema", err)
	}

	return &SQLiteHistoryRepository{db: db, now: time.Now}, nil
}

// Close closes the underlying database
func (r *SQLiteHistoryRepository) Close() error {
	return r.db.Close()
}

// GetImageHistory retrieves all records, newest first
func (r *SQLiteHistoryRepository) GetImageHistory(ctx context.Context) ([]domain.GeneratedImage, error) {
	query := `SELECT ` + imageColumns + ` FROM image_history ` + historyOrder

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify("query image history", err)
	}
	defer rows.Close()

	images := []domain.GeneratedImage{}
	for rows.Next() {
		var (
			img       domain.GeneratedImage
			createdAt int64
		)
		if err := rows.Scan(&img.ID, &img.ImageURL, &img.Prompt, &img.Model, &img.AspectRatio, &createdAt); err != nil {
			return nil, classify("scan image history", err)
		}
		img.CreatedAt = time.UnixMilli(createdAt).UTC()
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate image history", err)
	}

	return images, nil
}

// GetImage retrieves a single record
func (r *SQLiteHistoryRepository) GetImage(ctx context.Context, id string) (*domain.GeneratedImage, error) {
	query := `SELECT ` + imageColumns + ` FROM image_history WHERE id = ?`

	var (
		img       domain.GeneratedImage
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&img.ID, &img.ImageURL, &img.Prompt, &img.Model, &img.AspectRatio, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, classify("get image", err)
	}

	img.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &img, nil
}

// SaveImageToHistory inserts a new record
func (r *SQLiteHistoryRepository) SaveImageToHistory(ctx context.Context, img *domain.GeneratedImage) error {
	if err := prepareImage(img, r.now); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO image_history (id, image_url, prompt, model, aspect_ratio, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.ID, img.ImageURL, img.Prompt, img.Model, img.AspectRatio, img.CreatedAt.UnixMilli(),
	)
	return classify("save image", err)
}

// DeleteImageFromHistory removes a record, failing with domain.ErrRecordNotFound when it does not exist
func (r *SQLiteHistoryRepository) DeleteImageFromHistory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM image_history WHERE id = ?`, id)
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
func (r *SQLiteHistoryRepository) ClearImageHistory(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM image_history`)
	return classify("clear image history", err)
}
