package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/medivue-api/internal/domain"
	"github.com/phrazzld/medivue-api/internal/platform/logger"
	"github.com/phrazzld/medivue-api/internal/store"
)

// TaskService provides the task repository operations exposed to the API
// layer. Every returned task is fully materialized with its resolved tags;
// no lazy loading leaks across this boundary.
//
// Soft-deleted tasks are invisible through this interface: reads, updates,
// and repeated deletes on a deleted ID all report store.ErrTaskNotFound,
// indistinguishable from an ID that never existed.
type TaskService interface {
	// CreateTask validates the payload, reconciles its tag names, and
	// persists a new active task with its tag associations.
	// Returns a *ValidationError when the payload is invalid.
	CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error)

	// GetTask retrieves a task by ID with its tags resolved.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListTasks retrieves a page of tasks matching the filters, in a stable
	// order. Limit defaults to 10 and Skip to 0 when unset.
	ListTasks(ctx context.Context, params ListTasksParams) ([]*domain.Task, error)

	// UpdateTask applies a partial update: only fields present in the
	// payload change. A present tags field (even empty) replaces the task's
	// entire tag set.
	UpdateTask(ctx context.Context, id uuid.UUID, params UpdateTaskParams) (*domain.Task, error)

	// DeleteTask soft-deletes the task, removing it from all subsequent
	// reads while retaining it in storage. The returned task reflects the
	// state just before it disappeared from visibility.
	DeleteTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)
}

// taskServiceImpl implements the TaskService interface.
type taskServiceImpl struct {
	db         *sql.DB
	taskStore  store.TaskStore
	reconciler *TagReconciler
	logger     *slog.Logger

	// Seams for tests: wall clock and transaction runner.
	now     func() time.Time
	runInTx func(ctx context.Context, db *sql.DB, fn store.TxFn) error
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	db *sql.DB,
	taskStore store.TaskStore,
	tagStore store.TagStore,
	logger *slog.Logger,
) (TaskService, error) {
	if taskStore == nil {
		return nil, fmt.Errorf("task store cannot be nil")
	}
	if tagStore == nil {
		return nil, fmt.Errorf("tag store cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	reconciler, err := NewTagReconciler(tagStore, logger)
	if err != nil {
		return nil, err
	}

	return &taskServiceImpl{
		db:         db,
		taskStore:  taskStore,
		reconciler: reconciler,
		logger:     logger.With(slog.String("component", "task_service")),
		now:        time.Now,
		runInTx:    store.RunInTransaction,
	}, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	dueDate, verr := params.Validate(s.now())
	if verr != nil {
		log.Debug("task payload failed validation",
			slog.Int("field_errors", len(verr.Fields)))
		return nil, verr
	}

	task, err := domain.NewTask(params.Title, params.Description, params.Priority, dueDate, params.Completed)
	if err != nil {
		return nil, NewTaskServiceError("create_task", "invalid task", err)
	}

	// Tags are reconciled outside the task transaction; see TagReconciler.
	tags, err := s.reconciler.Reconcile(ctx, params.Tags)
	if err != nil {
		return nil, NewTaskServiceError("create_task", "failed to reconcile tags", err)
	}
	task.Tags = tags

	// The task row and its tag links land atomically
	err = s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.Int("tag_count", len(task.Tags)))
	return task, nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := s.taskStore.GetByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, err
		}
		log.Error("failed to retrieve task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}

	return task, nil
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(ctx context.Context, params ListTasksParams) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	params.normalize()
	filter := store.TaskListFilter{
		Completed: params.Completed,
		Priority:  params.Priority,
		TagNames:  params.tagNames(),
		Offset:    params.Skip,
		Limit:     params.Limit,
	}

	tasks, err := s.taskStore.List(ctx, filter)
	if err != nil {
		log.Error("failed to list tasks", slog.String("error", err.Error()))
		return nil, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}

	return tasks, nil
}

// UpdateTask implements TaskService.UpdateTask
// Validation happens before any mutation; a payload that fails validation
// leaves the task untouched.
func (s *taskServiceImpl) UpdateTask(ctx context.Context, id uuid.UUID, params UpdateTaskParams) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	dueDate, verr := params.Validate(s.now())
	if verr != nil {
		log.Debug("task update payload failed validation",
			slog.String("task_id", id.String()),
			slog.Int("field_errors", len(verr.Fields)))
		return nil, verr
	}

	// Tags are reconciled outside the task transaction; see TagReconciler.
	var newTags []domain.Tag
	if params.Tags != nil {
		tags, err := s.reconciler.Reconcile(ctx, *params.Tags)
		if err != nil {
			return nil, NewTaskServiceError("update_task", "failed to reconcile tags", err)
		}
		newTags = tags
	}

	var task *domain.Task
	err := s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.taskStore.WithTx(tx)

		current, err := txTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}

		// Partial semantics: absent fields keep their prior values
		if params.Title != nil {
			current.Title = *params.Title
		}
		if params.Description != nil {
			current.Description = params.Description
		}
		if params.Priority != nil {
			current.Priority = *params.Priority
		}
		if dueDate != nil {
			current.DueDate = *dueDate
		}
		if params.Completed != nil {
			current.Completed = *params.Completed
		}
		current.UpdatedAt = s.now().UTC()

		if err := txTasks.Update(ctx, current); err != nil {
			return err
		}

		if params.Tags != nil {
			// A present tags field replaces the whole set; empty clears it
			if err := txTasks.ReplaceTags(ctx, current.ID, newTags); err != nil {
				return err
			}
			current.Tags = newTags
		}

		task = current
		return nil
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found for update", slog.String("task_id", id.String()))
			return nil, err
		}
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, NewTaskServiceError("update_task", "failed to update task", err)
	}

	log.Info("task updated", slog.String("task_id", id.String()))
	return task, nil
}

// DeleteTask implements TaskService.DeleteTask
// The visibility flip is one-way; a second delete on the same ID reports
// not-found rather than a second success.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var task *domain.Task
	err := s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txTasks := s.taskStore.WithTx(tx)

		current, err := txTasks.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if err := current.MarkDeleted(); err != nil {
			// GetByID excludes deleted tasks, so this only trips on a
			// concurrent delete; report it the same way as any missing task.
			return store.ErrTaskNotFound
		}

		if err := txTasks.Update(ctx, current); err != nil {
			return err
		}

		task = current
		return nil
	})
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("task not found for delete", slog.String("task_id", id.String()))
			return nil, err
		}
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	log.Info("task soft-deleted", slog.String("task_id", id.String()))
	return task, nil
}
