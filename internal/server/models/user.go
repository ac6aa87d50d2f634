// Package models holds the canonical records the ingestion pipeline
// produces: the system's internal, schema-validated representation of the
// user-authored structured files, plus the owning user.
package models

import "time"

// User is one registered owner. The identifier is externally issued and
// stable; the container is the owner's object-store bucket.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Container string    `json:"container"`
	CreatedAt time.Time `json:"createdAt"`
}
