package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/croplabs/picstore/internal/common"
	"github.com/croplabs/picstore/internal/server/models"
	"github.com/croplabs/picstore/internal/server/objstore"
	"github.com/croplabs/picstore/internal/server/repositories/repomanager"
)

const presignValidity = 15 * time.Minute

// PictureService serves committed pictures back to their owners and attaches
// review feedback.
type PictureService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       objstore.Store
}

func NewPictureService(db *sql.DB, m repomanager.RepositoryManager, store objstore.Store) *PictureService {
	return &PictureService{db: db, repomanager: m, store: store}
}

// Get returns the canonical picture document plus a time-limited download
// URL for its blob. common.ErrorNotFound when the picture does not exist,
// common.ErrorUnauthorized when it belongs to another owner.
func (s *PictureService) Get(ctx context.Context, ownerID string, id uuid.UUID) (*models.Picture, string, error) {
	pic, err := s.repomanager.Pictures(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if pic.OwnerID != ownerID {
		return nil, "", common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		return nil, "", fmt.Errorf("error loading owner: %w", err)
	}

	// Never presign a key that holds nothing; a row without its blob reads
	// as not found.
	ok, err := s.store.Exists(ctx, user.Container, pic.ObjectKey)
	if err != nil {
		return nil, "", fmt.Errorf("error checking stored object: %w", err)
	}
	if !ok {
		return nil, "", fmt.Errorf("%w: stored object %s is missing", common.ErrorNotFound, pic.ObjectKey)
	}

	url, err := s.store.PresignGet(ctx, user.Container, pic.ObjectKey, presignValidity)
	if err != nil {
		return nil, "", fmt.Errorf("error presigning download: %w", err)
	}
	return pic, url, nil
}

// AddFeedback attaches a feedback document to a committed picture.
func (s *PictureService) AddFeedback(ctx context.Context, ownerID string, pictureID uuid.UUID, f *models.Feedback) error {
	pic, err := s.repomanager.Pictures(s.db).GetByID(ctx, pictureID)
	if err != nil {
		return err
	}
	if pic.OwnerID != ownerID {
		return common.ErrorUnauthorized
	}

	f.ID = uuid.New()
	f.PictureID = pictureID
	f.CreatedAt = time.Now()
	return s.repomanager.Feedbacks(s.db).Create(ctx, f)
}

// ListFeedback returns the feedback attached to one picture.
func (s *PictureService) ListFeedback(ctx context.Context, ownerID string, pictureID uuid.UUID) ([]*models.Feedback, error) {
	pic, err := s.repomanager.Pictures(s.db).GetByID(ctx, pictureID)
	if err != nil {
		return nil, err
	}
	if pic.OwnerID != ownerID {
		return nil, common.ErrorUnauthorized
	}
	return s.repomanager.Feedbacks(s.db).ListByPicture(ctx, pictureID)
}
