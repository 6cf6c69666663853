package postgres

import (
	"context"
	"fmt"

	"github.com/yearbook-api/internal/domain"
)

// ImageRepo reads the polymorphic image attachments. Writes happen
// inside MemoryRepo.CreateWithAssets so they share the publish
// transaction.
type ImageRepo struct {
	db *DB
}

func NewImageRepo(db *DB) *ImageRepo { return &ImageRepo{db: db} }

func (r *ImageRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.Image, error) {
	m, err := r.ListByEntities(ctx, entityType, []string{entityID})
	if err != nil {
		return nil, err
	}
	return m[entityID], nil
}

// ListByEntities fetches the images of all given entities in one query,
// grouped by entity ID with sort order preserved.
func (r *ImageRepo) ListByEntities(ctx context.Context, entityType string, entityIDs []string) (map[string][]domain.Image, error) {
	if len(entityIDs) == 0 {
		return map[string][]domain.Image{}, nil
	}
	query := `
		SELECT id, entity_type, entity_id, photo_url, sort_order, created_at
		FROM images
		WHERE entity_type = $1 AND entity_id IN (` + inPlaceholders(2, len(entityIDs)) + `)
		ORDER BY entity_id, sort_order ASC`
	args := make([]any, 0, len(entityIDs)+1)
	args = append(args, entityType)
	for _, id := range entityIDs {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.Image)
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ImageID, &img.EntityType, &img.EntityID, &img.PhotoURL,
			&img.SortOrder, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out[img.EntityID] = append(out[img.EntityID], img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
