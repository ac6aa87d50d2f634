// Package users persists owner records.
package users

import (
	"context"

	"github.com/croplabs/picstore/internal/server/models"
)

type Repository interface {
	// Create inserts a new owner. common.ErrorAlreadyExists is returned
	// when the identifier is already registered.
	Create(ctx context.Context, user *models.User) error

	// GetByID returns the owner or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// Exists reports whether the owner is registered.
	Exists(ctx context.Context, id string) (bool, error)
}
