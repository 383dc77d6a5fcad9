package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/medivue-api/internal/domain"
)

// TaskListFilter describes the predicate and pagination window for listing
// tasks. Nil pointer fields mean "no filter on this attribute". When TagNames
// is non-empty a task must carry every named tag to match (AND semantics).
type TaskListFilter struct {
	Completed *bool
	Priority  *int
	TagNames  []string
	Offset    int
	Limit     int
}

// TaskStore defines the interface for task data persistence.
//
// All read operations exclude soft-deleted tasks: a deleted task behaves
// exactly like one that never existed and surfaces as ErrTaskNotFound.
type TaskStore interface {
	// Create saves a new task row together with its tag associations.
	// The task's Tags must already be persisted Tag rows (see TagStore);
	// Create only writes the join rows. Run this within a transaction via
	// WithTx and RunInTransaction so the task and its links land atomically.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID with its tags resolved.
	// Returns ErrTaskNotFound if the task does not exist or is soft-deleted.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// List retrieves tasks matching the filter, tags resolved, in a stable
	// order (creation time, then ID). Returns an empty slice when nothing
	// matches.
	List(ctx context.Context, filter TaskListFilter) ([]*domain.Task, error)

	// Update persists the task's scalar fields and visibility state.
	// It does not touch tag associations; use ReplaceTags for those.
	// Returns ErrTaskNotFound if the task does not exist or is already
	// soft-deleted, which makes repeated soft deletes surface as not-found.
	Update(ctx context.Context, task *domain.Task) error

	// ReplaceTags overwrites the task's entire tag association set with the
	// given tags. An empty slice leaves the task with zero tags. The tags
	// themselves are never deleted. Run within a transaction alongside
	// Update for all-or-nothing semantics.
	ReplaceTags(ctx context.Context, taskID uuid.UUID, tags []domain.Tag) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller,
	// typically through RunInTransaction.
	WithTx(tx *sql.Tx) TaskStore
}
