// Package objstore persists picture payloads in an S3-compatible backend.
// Each owner gets a dedicated container (bucket); object keys are derived
// from system identifiers only.
package objstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// containerNamespace seeds deterministic container naming so repeated
// provisioning of the same owner lands in the same bucket.
var containerNamespace = uuid.MustParse("7a1c3c86-9d70-4c52-b9a2-5a4f2e8d1c0b")

// Store is the object storage surface the upload orchestrator depends on.
type Store interface {
	// EnsureContainer creates the owner container if it does not exist yet.
	EnsureContainer(ctx context.Context, container string) error
	// Put writes one object. Implementations retry transient failures a
	// bounded number of times before giving up.
	Put(ctx context.Context, container, key string, body io.Reader) error
	// Exists reports whether an object is already present.
	Exists(ctx context.Context, container, key string) (bool, error)
	// PresignGet returns a time-limited download URL for an object.
	PresignGet(ctx context.Context, container, key string, expires time.Duration) (string, error)
}

// ContainerName derives the bucket name for an owner. The result is stable
// across submissions and valid as an S3 bucket name.
func ContainerName(ownerID string) string {
	return fmt.Sprintf("c-%s", uuid.NewSHA1(containerNamespace, []byte(ownerID)))
}
