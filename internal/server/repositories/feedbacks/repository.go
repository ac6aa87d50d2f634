// Package feedbacks persists review feedback attached to committed pictures.
package feedbacks

import (
	"context"

	"github.com/croplabs/picstore/internal/server/models"
	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, f *models.Feedback) error
	ListByPicture(ctx context.Context, pictureID uuid.UUID) ([]*models.Feedback, error)
}
