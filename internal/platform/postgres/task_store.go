package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/medivue-api/internal/domain"
	"github.com/phrazzld/medivue-api/internal/platform/logger"
	"github.com/phrazzld/medivue-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
// It returns a new store instance backed by the given transaction.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.TaskStore.Create
// It saves a new task row and its tag association rows.
// Returns validation errors from the domain Task if data is invalid.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, title, description, priority, due_date, completed, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.Title,
		nullableText(task.Description),
		task.Priority,
		task.DueDate,
		task.Completed,
		task.IsDeleted(),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := s.insertTagLinks(ctx, task.ID, task.Tags); err != nil {
		log.Error("failed to link tags during task creation",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.Int("tag_count", len(task.Tags)))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// It retrieves a task by its unique ID with its tags resolved.
// Returns store.ErrTaskNotFound if the task does not exist or is soft-deleted.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving task by ID", slog.String("task_id", id.String()))

	query := `
		SELECT id, title, description, priority, due_date, completed, created_at, updated_at
		FROM tasks
		WHERE id = $1 AND is_deleted = FALSE
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}

	tags, err := s.tagsForTask(ctx, id)
	if err != nil {
		log.Error("failed to load tags for task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, err
	}
	task.Tags = tags

	return task, nil
}

// List implements store.TaskStore.List
// It retrieves tasks matching the filter with their tags resolved, excluding
// soft-deleted tasks, ordered by creation time then ID so pagination is
// stable across calls. Returns an empty slice if no tasks match.
func (s *PostgresTaskStore) List(ctx context.Context, filter store.TaskListFilter) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args := buildListQuery(filter)

	log.Debug("listing tasks",
		slog.Int("offset", filter.Offset),
		slog.Int("limit", filter.Limit),
		slog.Int("tag_filter_count", len(filter.TagNames)))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.attachTags(ctx, tasks); err != nil {
		return nil, err
	}

	// Return empty slice instead of nil if no tasks found
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	log.Debug("listed tasks", slog.Int("count", len(tasks)))
	return tasks, nil
}

// Update implements store.TaskStore.Update
// It persists the task's scalar fields and visibility state. Tag associations
// are left untouched; use ReplaceTags for those.
// Returns store.ErrTaskNotFound if the task does not exist or is already
// soft-deleted, so a second soft delete reads as not-found.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during update",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, priority = $3, due_date = $4,
		    completed = $5, is_deleted = $6, updated_at = $7
		WHERE id = $8 AND is_deleted = FALSE
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		task.Title,
		nullableText(task.Description),
		task.Priority,
		task.DueDate,
		task.Completed,
		task.IsDeleted(),
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		log.Debug("task not found for update",
			slog.String("task_id", task.ID.String()))
		return store.ErrTaskNotFound
	}

	log.Info("task updated successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("visibility", string(task.Visibility)))
	return nil
}

// ReplaceTags implements store.TaskStore.ReplaceTags
// It overwrites the task's entire tag association set; an empty slice leaves
// the task with zero tags. The tag rows themselves are never deleted.
func (s *PostgresTaskStore) ReplaceTags(ctx context.Context, taskID uuid.UUID, tags []domain.Tag) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	_, err := s.db.ExecContext(ctx, `DELETE FROM task_tags WHERE task_id = $1`, taskID)
	if err != nil {
		log.Error("failed to clear tag links",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return MapError(err)
	}

	if err := s.insertTagLinks(ctx, taskID, tags); err != nil {
		log.Error("failed to insert tag links",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID.String()))
		return err
	}

	log.Debug("replaced tag links",
		slog.String("task_id", taskID.String()),
		slog.Int("tag_count", len(tags)))
	return nil
}

// insertTagLinks writes one task_tags row per tag.
func (s *PostgresTaskStore) insertTagLinks(ctx context.Context, taskID uuid.UUID, tags []domain.Tag) error {
	for _, tag := range tags {
		_, err := s.db.ExecContext(
			ctx,
			`INSERT INTO task_tags (task_id, tag_id) VALUES ($1, $2)`,
			taskID,
			tag.ID,
		)
		if err != nil {
			return MapError(err)
		}
	}
	return nil
}

// tagsForTask loads the tags associated with a single task, ordered by name
// for determinism.
func (s *PostgresTaskStore) tagsForTask(ctx context.Context, taskID uuid.UUID) ([]domain.Tag, error) {
	query := `
		SELECT tg.id, tg.name
		FROM tags tg
		JOIN task_tags tt ON tt.tag_id = tg.id
		WHERE tt.task_id = $1
		ORDER BY tg.name
	`

	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tags := []domain.Tag{}
	for rows.Next() {
		var tag domain.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// attachTags loads tags for all listed tasks in a single query and attaches
// them, avoiding a per-task round trip.
func (s *PostgresTaskStore) attachTags(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Task, len(tasks))
	placeholders := make([]string, 0, len(tasks))
	args := make([]any, 0, len(tasks))
	for i, task := range tasks {
		task.Tags = []domain.Tag{}
		byID[task.ID] = task
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, task.ID)
	}

	query := fmt.Sprintf(`
		SELECT tt.task_id, tg.id, tg.name
		FROM tags tg
		JOIN task_tags tt ON tt.tag_id = tg.id
		WHERE tt.task_id IN (%s)
		ORDER BY tg.name
	`, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var taskID uuid.UUID
		var tag domain.Tag
		if err := rows.Scan(&taskID, &tag.ID, &tag.Name); err != nil {
			return err
		}
		if task, ok := byID[taskID]; ok {
			task.Tags = append(task.Tags, tag)
		}
	}
	return rows.Err()
}

// buildListQuery assembles the filtered, paginated list query. Tag filters
// become one EXISTS subquery per name so a task must carry every named tag.
func buildListQuery(filter store.TaskListFilter) (string, []any) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT id, title, description, priority, due_date, completed, created_at, updated_at
		FROM tasks t
		WHERE t.is_deleted = FALSE`)

	var args []any
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		fmt.Fprintf(&sb, " AND t.completed = $%d", len(args))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		fmt.Fprintf(&sb, " AND t.priority = $%d", len(args))
	}
	for _, name := range filter.TagNames {
		args = append(args, name)
		fmt.Fprintf(&sb,
			" AND EXISTS (SELECT 1 FROM task_tags tt JOIN tags tg ON tg.id = tt.tag_id"+
				" WHERE tt.task_id = t.id AND tg.name = $%d)", len(args))
	}

	sb.WriteString(" ORDER BY t.created_at ASC, t.id ASC")

	args = append(args, filter.Limit)
	fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	fmt.Fprintf(&sb, " OFFSET $%d", len(args))

	return sb.String(), args
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one tasks row into a domain.Task. The query is expected to
// have excluded soft-deleted rows, so visibility is always active here.
func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var description sql.NullString

	err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&task.Priority,
		&task.DueDate,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = &description.String
	}
	task.Visibility = domain.VisibilityActive

	return &task, nil
}

// nullableText converts an optional string to its SQL representation.
func nullableText(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
