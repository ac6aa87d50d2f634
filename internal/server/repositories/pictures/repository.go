// Package pictures persists picture metadata documents and their crop
// lineage foreign keys.
package pictures

import (
	"context"

	"github.com/croplabs/picstore/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *models.Picture) error

	// GetByID returns one picture or common.ErrorNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Picture, error)

	// CountBySession returns the number of committed pictures of a session.
	CountBySession(ctx context.Context, sessionID uuid.UUID) (int64, error)

	// ResolveByBase finds the most recently committed picture with the
	// given base name anywhere in the project, for cross-submission crop
	// lineage. Returns common.ErrorNotFound when no such picture exists.
	ResolveByBase(ctx context.Context, projectID uuid.UUID, base string) (uuid.UUID, error)
}
