package models

import (
	"time"

	"github.com/croplabs/picstore/internal/document"
	"github.com/google/uuid"
)

// Document kind discriminators stored inside the serialized records.
const (
	DocKindProjectIndex    = "project-index"
	DocKindSessionIndex    = "session-index"
	DocKindPictureMetadata = "picture-metadata"
)

// ProjectIndex is the canonical record derived from the project-level
// structured file. Identifier and ownership fields are system-assigned;
// they are never read from user input.
type ProjectIndex struct {
	ID            uuid.UUID      `json:"id"`
	Kind          string         `json:"kind"`
	OwnerID       string         `json:"ownerId"`
	Name          string         `json:"projectName"`
	OwnerEmail    string         `json:"ownerEmail,omitempty"`
	Sessions      []string       `json:"sessions"`
	Description   string         `json:"description,omitempty"`
	SchemaVersion int            `json:"schemaVersion"`
	UploadedAt    time.Time      `json:"uploadedAt"`
	Extra         document.Value `json:"extra"`
}

// SessionIndex is the canonical record derived from one per-session
// structured file.
type SessionIndex struct {
	ID            uuid.UUID      `json:"id"`
	Kind          string         `json:"kind"`
	ProjectID     uuid.UUID      `json:"projectId"`
	OwnerID       string         `json:"ownerId"`
	Name          string         `json:"sessionName"`
	PictureCount  int64          `json:"pictureCount"`
	CapturedAt    *time.Time     `json:"capturedAt,omitempty"`
	Camera        document.Value `json:"camera"`
	Notes         string         `json:"notes,omitempty"`
	SchemaVersion int            `json:"schemaVersion"`
	UploadedAt    time.Time      `json:"uploadedAt"`
	// Partial is set when the committed picture rows diverge from the
	// declared count, so the store never silently under-reports a session.
	Partial bool           `json:"partial"`
	Extra   document.Value `json:"extra"`
}
