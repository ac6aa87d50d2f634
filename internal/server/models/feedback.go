package models

import (
	"time"

	"github.com/croplabs/picstore/internal/document"
	"github.com/google/uuid"
)

// Feedback is a free-form structured record attached to a committed picture
// by downstream review processes.
type Feedback struct {
	ID        uuid.UUID      `json:"id"`
	PictureID uuid.UUID      `json:"pictureId"`
	Document  document.Value `json:"document"`
	CreatedAt time.Time      `json:"createdAt"`
}
