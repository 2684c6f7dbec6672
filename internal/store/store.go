// Package store persists build-attached diagnostic result sets.
//
// Attachment is write-once, read-many: a build key accepts exactly one
// result set, and reads after attachment need no locks on the set
// itself since it is immutable. The file-backed implementation keeps a
// single JSON index written atomically (tmp + rename), so a crashed
// write never corrupts previously attached results.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/doctord/internal/diagnostic"
)

// Errors for store operations.
var (
	// ErrAlreadyAttached is returned when a build already has a result
	// set. Attachment is one-shot per build.
	ErrAlreadyAttached = errors.New("result set already attached to build")

	// ErrNotFound is returned when a build has no attached result set.
	ErrNotFound = errors.New("no result set attached to build")

	// ErrCorrupted is returned when the persisted index cannot be read.
	ErrCorrupted = errors.New("store file corrupted")
)

// BuildKey identifies one build record.
func BuildKey(jobName string, buildNumber int) string {
	return fmt.Sprintf("%s#%d", jobName, buildNumber)
}

// Store attaches result sets to builds and serves them back.
type Store interface {
	// Attach stores the result set for the build key. Returns
	// ErrAlreadyAttached if the key already has one.
	Attach(ctx context.Context, key string, set *diagnostic.ResultSet) error

	// Get returns the attached result set or ErrNotFound.
	Get(ctx context.Context, key string) (*diagnostic.ResultSet, error)

	// Keys returns all build keys with attached result sets.
	Keys(ctx context.Context) ([]string, error)
}
