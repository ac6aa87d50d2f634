package feedbacks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/croplabs/picstore/internal/dbx"
	"github.com/croplabs/picstore/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.Feedback) error {
	doc, err := json.Marshal(f.Document)
	if err != nil {
		return fmt.Errorf("serializing feedback: %w", err)
	}

	query :=
		`INSERT INTO feedbacks (id, document, picture_id)
		 VALUES ($1, $2, $3)
		 `

	if _, err := r.db.ExecContext(ctx, query, f.ID, doc, f.PictureID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByPicture(ctx context.Context, pictureID uuid.UUID) ([]*models.Feedback, error) {
	query :=
		`SELECT id, document, picture_id, created_at FROM feedbacks
		 WHERE picture_id = $1
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, pictureID)
	if err != nil {
		return nil, fmt.Errorf("failed to select feedbacks: %w", err)
	}
	defer rows.Close()

	var result []*models.Feedback
	for rows.Next() {
		item := &models.Feedback{}
		var doc []byte
		if err := rows.Scan(&item.ID, &doc, &item.PictureID, &item.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(doc, &item.Document); err != nil {
			return nil, fmt.Errorf("decoding feedback: %w", err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
