package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/medivue-api/internal/domain"
)

// TagStore defines the interface for tag data persistence.
//
// Tag names are globally unique. The store exposes a plain check-then-create
// surface; reconciling names to rows (including recovering from the
// concurrent-create race on the unique name index) is the caller's job.
type TagStore interface {
	// GetByName retrieves a tag by its exact name (case-sensitive).
	// Returns ErrTagNotFound if no tag with that name exists.
	GetByName(ctx context.Context, name string) (*domain.Tag, error)

	// Create saves a new tag. Returns ErrTagNameExists if a tag with the
	// same name already exists; callers racing on the same name should
	// re-fetch and reuse the existing row.
	Create(ctx context.Context, tag *domain.Tag) error

	// WithTx returns a new TagStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) TagStore
}
