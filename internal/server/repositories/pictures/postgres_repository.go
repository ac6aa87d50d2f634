package pictures

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/croplabs/picstore/internal/common"
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

func (r *PostgresRepository) Create(ctx context.Context, p *models.Picture) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("serializing picture: %w", err)
	}

	query :=
		`INSERT INTO pictures (id, document, index_id, crop_parent_id)
		 VALUES ($1, $2, $3, $4)
		 `

	var cropParent any
	if p.CropParentID != nil {
		cropParent = *p.CropParentID
	}

	res, err := r.db.ExecContext(ctx, query, p.ID, doc, p.SessionID, cropParent)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Picture, error) {
	query := `SELECT document FROM pictures WHERE id = $1`

	var doc []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p := &models.Picture{}
	if err := json.Unmarshal(doc, p); err != nil {
		return nil, fmt.Errorf("decoding picture: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM pictures WHERE index_id = $1`

	var n int64
	if err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ResolveByBase(ctx context.Context, projectID uuid.UUID, base string) (uuid.UUID, error) {
	query :=
		`SELECT p.id FROM pictures p
		 JOIN indexes i ON p.index_id = i.id
		 WHERE i.document->>'projectId' = $1
		   AND p.document->>'baseName' = $2
		 ORDER BY p.created_at DESC
		 LIMIT 1
		 `

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, projectID.String(), base).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, common.ErrorNotFound
		}
		return uuid.Nil, fmt.Errorf("db error: %w", err)
	}
	return id, nil
}
