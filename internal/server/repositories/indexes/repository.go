// Package indexes persists project and session index documents. Both kinds
// share one table; the serialized document carries the kind discriminator.
package indexes

import (
	"context"

	"github.com/croplabs/picstore/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	CreateProject(ctx context.Context, p *models.ProjectIndex) error
	CreateSession(ctx context.Context, s *models.SessionIndex) error

	// GetProjectByName returns the project index for owner+name or
	// common.ErrorNotFound.
	GetProjectByName(ctx context.Context, ownerID, name string) (*models.ProjectIndex, error)

	// SessionCommitted reports whether a session index row exists for the
	// project. Session rows are only ever written inside a successful
	// session commit, so existence means committed; the relational store
	// is the single source of truth for resubmission idempotency.
	SessionCommitted(ctx context.Context, projectID uuid.UUID, sessionName string) (bool, error)
}
