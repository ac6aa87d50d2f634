package indexes

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

func (r *PostgresRepository) CreateProject(ctx context.Context, p *models.ProjectIndex) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("serializing project index: %w", err)
	}
	return r.insert(ctx, p.ID, doc, p.OwnerID)
}

func (r *PostgresRepository) CreateSession(ctx context.Context, s *models.SessionIndex) error {
	doc, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("serializing session index: %w", err)
	}
	return r.insert(ctx, s.ID, doc, s.OwnerID)
}

func (r *PostgresRepository) insert(ctx context.Context, id uuid.UUID, doc []byte, ownerID string) error {
	query :=
		`INSERT INTO indexes (id, document, owner_id)
		 VALUES ($1, $2, $3)
		 `

	res, err := r.db.ExecContext(ctx, query, id, doc, ownerID)
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

func (r *PostgresRepository) GetProjectByName(ctx context.Context, ownerID, name string) (*models.ProjectIndex, error) {
	query :=
		`SELECT document FROM indexes
		 WHERE owner_id = $1
		   AND document->>'kind' = 'project-index'
		   AND document->>'projectName' = $2
		 `

	var doc []byte
	err := r.db.QueryRowContext(ctx, query, ownerID, name).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p := &models.ProjectIndex{}
	if err := json.Unmarshal(doc, p); err != nil {
		return nil, fmt.Errorf("decoding project index: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) SessionCommitted(ctx context.Context, projectID uuid.UUID, sessionName string) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM indexes
		   WHERE document->>'kind' = 'session-index'
		     AND document->>'projectId' = $1
		     AND document->>'sessionName' = $2
		 )`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, projectID.String(), sessionName).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}
