// Package services contains server-side business logic: owner provisioning,
// the upload orchestrator that persists validated submissions, and picture
// retrieval with presigned download URLs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/croplabs/picstore/internal/common"
	"github.com/croplabs/picstore/internal/server/models"
	"github.com/croplabs/picstore/internal/server/objstore"
	"github.com/croplabs/picstore/internal/server/repositories/repomanager"
)

// UserService handles owner registration and lookups. Owner identifiers are
// externally issued (identity provider subject); registration assigns the
// object-store container.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objstore.Store
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, store objstore.Store) *UserService {
	return &UserService{db: db, repomanager: m, store: store}
}

// IsRegistered reports whether the owner has a user record.
func (s *UserService) IsRegistered(ctx context.Context, ownerID string) (bool, error) {
	repo := s.repomanager.Users(s.db)
	ok, err := repo.Exists(ctx, ownerID)
	if err != nil {
		return false, fmt.Errorf("error checking user: %w", err)
	}
	return ok, nil
}

// Register creates the owner record and its object-store container. The
// container is created first so a user row always points at a usable bucket.
// Registering an existing owner returns common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, ownerID, email string) (*models.User, error) {
	container := objstore.ContainerName(ownerID)

	if err := s.store.EnsureContainer(ctx, container); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorOwnerProvisioning, err)
	}

	user := &models.User{ID: ownerID, Email: email, Container: container}
	repo := s.repomanager.Users(s.db)
	if err := repo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Get returns the owner record or common.ErrorNotFound.
func (s *UserService) Get(ctx context.Context, ownerID string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	return repo.GetByID(ctx, ownerID)
}
