package models

import (
	"time"

	"github.com/croplabs/picstore/internal/document"
	"github.com/google/uuid"
)

// Picture is the canonical record for one picture: user-declared annotation
// fields plus system enrichment. The storage key is always derived from
// system identifiers, never from the user filename.
type Picture struct {
	ID               uuid.UUID      `json:"id"`
	Kind             string         `json:"kind"`
	SessionID        uuid.UUID      `json:"sessionId"`
	OwnerID          string         `json:"ownerId"`
	Base             string         `json:"baseName"`
	OriginalFilename string         `json:"originalFilename"`
	Species          string         `json:"species"`
	CapturedAt       *time.Time     `json:"capturedAt,omitempty"`
	Lighting         string         `json:"lighting,omitempty"`
	Zoom             int64          `json:"zoom,omitempty"`
	ObjectKey        string         `json:"objectKey"`
	SchemaVersion    int            `json:"schemaVersion"`
	UploadedAt       time.Time      `json:"uploadedAt"`
	Extra            document.Value `json:"extra"`

	// Crop lineage. CropParentBase is the user-declared reference (base
	// name of the parent picture); CropParentID is the resolved foreign
	// key. Lineage is a strict forest: a picture is never its own ancestor.
	CropParentBase string     `json:"cropParent,omitempty"`
	CropParentID   *uuid.UUID `json:"cropParentId,omitempty"`

	// MediaPath is the payload's path inside the submission tree. It is
	// transient and never persisted.
	MediaPath string `json:"-"`
}
