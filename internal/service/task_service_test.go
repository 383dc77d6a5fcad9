package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/medivue-api/internal/domain"
	"github.com/phrazzld/medivue-api/internal/store"
)

// fakeTaskStore is an in-memory TaskStore. It honors the soft-delete
// contract: reads and updates see only active tasks.
type fakeTaskStore struct {
	tasks map[uuid.UUID]*domain.Task

	lastFilter   store.TaskListFilter
	listResult   []*domain.Task
	replaceCalls map[uuid.UUID][]domain.Tag
	failCreate   error
	failUpdate   error
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{
		tasks:        map[uuid.UUID]*domain.Task{},
		replaceCalls: map[uuid.UUID][]domain.Tag{},
	}
}

func (f *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	task, ok := f.tasks[id]
	if !ok || task.IsDeleted() {
		return nil, store.ErrTaskNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskStore) List(_ context.Context, filter store.TaskListFilter) ([]*domain.Task, error) {
	f.lastFilter = filter
	return f.listResult, nil
}

func (f *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	current, ok := f.tasks[task.ID]
	if !ok || current.IsDeleted() {
		return store.ErrTaskNotFound
	}
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskStore) ReplaceTags(_ context.Context, taskID uuid.UUID, tags []domain.Tag) error {
	f.replaceCalls[taskID] = tags
	if task, ok := f.tasks[taskID]; ok {
		task.Tags = tags
	}
	return nil
}

func (f *fakeTaskStore) WithTx(_ *sql.Tx) store.TaskStore { return f }

// newTestService wires a TaskService around fakes, with the transaction
// runner stubbed to invoke the callback directly and a fixed clock.
func newTestService(t *testing.T, tasks *fakeTaskStore, tags *fakeTagStore) TaskService {
	t.Helper()

	svc, err := NewTaskService(nil, tasks, tags, nil)
	require.NoError(t, err)

	impl := svc.(*taskServiceImpl)
	impl.now = func() time.Time { return fixedNow }
	impl.runInTx = func(ctx context.Context, _ *sql.DB, fn store.TxFn) error {
		return fn(ctx, nil)
	}
	return svc
}

func seedTask(t *testing.T, tasks *fakeTaskStore) *domain.Task {
	t.Helper()

	desc := "check potassium levels"
	task, err := domain.NewTask("Review labs", &desc, 2, fixedNow.AddDate(0, 0, 5), false)
	require.NoError(t, err)
	require.NoError(t, tasks.Create(context.Background(), task))
	return task
}

func TestNewTaskService(t *testing.T) {
	t.Parallel()

	t.Run("nil task store rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewTaskService(nil, nil, newFakeTagStore(), nil)
		assert.Error(t, err)
	})

	t.Run("nil tag store rejected", func(t *testing.T) {
		t.Parallel()
		_, err := NewTaskService(nil, newFakeTaskStore(), nil, nil)
		assert.Error(t, err)
	})
}

func TestCreateTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("persists task with reconciled tags", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		tags := newFakeTagStore()
		svc := newTestService(t, tasks, tags)

		task, err := svc.CreateTask(ctx, CreateTaskParams{
			Title:    "Schedule follow-up",
			Priority: 4,
			DueDate:  "2025-06-30",
			Tags:     []string{"cardiology", "follow-up"},
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, "Schedule follow-up", task.Title)
		assert.False(t, task.Completed)
		require.Len(t, task.Tags, 2)
		assert.Equal(t, "cardiology", task.Tags[0].Name)
		assert.Contains(t, tasks.tasks, task.ID)
	})

	t.Run("invalid payload returns ValidationError without persisting", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		svc := newTestService(t, tasks, newFakeTagStore())

		_, err := svc.CreateTask(ctx, CreateTaskParams{Title: "", Priority: 0, DueDate: ""})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Fields, 3)
		assert.Empty(t, tasks.tasks)
	})

	t.Run("store failure wrapped in service error", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		tasks.failCreate = errors.New("connection reset")
		svc := newTestService(t, tasks, newFakeTagStore())

		_, err := svc.CreateTask(ctx, CreateTaskParams{
			Title: "X", Priority: 1, DueDate: "2025-06-30",
		})

		var serr *TaskServiceError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, "create_task", serr.Operation)
	})
}

func TestGetTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("returns stored task", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		seeded := seedTask(t, tasks)
		svc := newTestService(t, tasks, newFakeTagStore())

		task, err := svc.GetTask(ctx, seeded.ID)

		require.NoError(t, err)
		assert.Equal(t, seeded.ID, task.ID)
		assert.Equal(t, "Review labs", task.Title)
	})

	t.Run("unknown id surfaces not-found", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t, newFakeTaskStore(), newFakeTagStore())

		_, err := svc.GetTask(ctx, uuid.New())

		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestListTasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("filter built from params", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		svc := newTestService(t, tasks, newFakeTagStore())

		completed := true
		priority := 3
		_, err := svc.ListTasks(ctx, ListTasksParams{
			Skip:      20,
			Limit:     5,
			Completed: &completed,
			Priority:  &priority,
			Tags:      "urgent, cardiology",
		})

		require.NoError(t, err)
		assert.Equal(t, 20, tasks.lastFilter.Offset)
		assert.Equal(t, 5, tasks.lastFilter.Limit)
		assert.Equal(t, &completed, tasks.lastFilter.Completed)
		assert.Equal(t, &priority, tasks.lastFilter.Priority)
		assert.Equal(t, []string{"urgent", "cardiology"}, tasks.lastFilter.TagNames)
	})

	t.Run("pagination defaults applied", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		svc := newTestService(t, tasks, newFakeTagStore())

		_, err := svc.ListTasks(ctx, ListTasksParams{})

		require.NoError(t, err)
		assert.Equal(t, 0, tasks.lastFilter.Offset)
		assert.Equal(t, 10, tasks.lastFilter.Limit)
	})
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	strPtr := func(s string) *string { return &s }
	intPtr := func(i int) *int { return &i }
	boolPtr := func(b bool) *bool { return &b }

	t.Run("only present fields change", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		seeded := seedTask(t, tasks)
		svc := newTestService(t, tasks, newFakeTagStore())

		updated, err := svc.UpdateTask(ctx, seeded.ID, UpdateTaskParams{
			Completed: boolPtr(true),
		})

		require.NoError(t, err)
		assert.True(t, updated.Completed)
		// Everything else survives untouched
		assert.Equal(t, seeded.Title, updated.Title)
		assert.Equal(t, seeded.Priority, updated.Priority)
		assert.Equal(t, seeded.DueDate, updated.DueDate)
		require.NotNil(t, updated.Description)
		assert.Equal(t, *seeded.Description, *updated.Description)
	})

	t.Run("all fields change when present", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		seeded := seedTask(t, tasks)
		svc := newTestService(t, tasks, newFakeTagStore())

		updated, err := svc.UpdateTask(ctx, seeded.ID, UpdateTaskParams{
			Title:       strPtr("  Re-review labs  "),
			Description: strPtr("repeat in the morning"),
			Priority:    intPtr(5),
			DueDate:     strPtr("2025-07-10"),
			Completed:   boolPtr(true),
		})

		require.NoError(t, err)
		assert.Equal(t, "Re-review labs", updated.Title)
		assert.Equal(t, "repeat in the morning", *updated.Description)
		assert.Equal(t, 5, updated.Priority)
		assert.Equal(t, time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC), updated.DueDate)
		assert.True(t, updated.Completed)
	})

	t.Run("present tags replace the whole set", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		seeded := seedTask(t, tasks)
		svc := newTestService(t, tasks, newFakeTagStore())

		newTags := []string{"stat", "nephrology"}
		updated, err := svc.UpdateTask(ctx, seeded.ID, UpdateTaskParams{Tags: &newTags})

		require.NoError(t, err)
		require.Len(t, updated.Tags, 2)
		assert.Equal(t, "stat", updated.Tags[0].Name)
		assert.Contains(t, tasks.replaceCalls, seeded.ID)
	})

	t.Run("empty tags clears associations", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		seeded := seedTask(t, tasks)
		svc := newTestService(t, tasks, newFakeTagStore())

		empty := []string{}
		updated, err := svc.UpdateTask(ctx, seeded.ID, UpdateTaskParams{Tags: &empty})

		require.NoError(t, err)
		assert.Empty(t, updated.Tags)
		replaced, ok := tasks.replaceCalls[seeded.ID]
		require.True(t, ok)
		assert.Empty(t, replaced)
	})

	t.Run("omitted tags leave associations untouched", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		seeded := seedTask(t, tasks)
		svc := newTestService(t, tasks, newFakeTagStore())

		_, err := svc.UpdateTask(ctx, seeded.ID, UpdateTaskParams{Completed: boolPtr(true)})

		require.NoError(t, err)
		assert.NotContains(t, tasks.replaceCalls, seeded.ID)
	})

	t.Run("validation runs before lookup", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t, newFakeTaskStore(), newFakeTagStore())

		// Unknown ID plus a bad payload: the payload error wins
		_, err := svc.UpdateTask(ctx, uuid.New(), UpdateTaskParams{Title: strPtr("")})

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("unknown id surfaces not-found", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t, newFakeTaskStore(), newFakeTagStore())

		_, err := svc.UpdateTask(ctx, uuid.New(), UpdateTaskParams{
			Completed: boolPtr(true),
		})

		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestDeleteTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("soft-deleted task disappears from reads", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		seeded := seedTask(t, tasks)
		svc := newTestService(t, tasks, newFakeTagStore())

		deleted, err := svc.DeleteTask(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, deleted.ID)

		// The row still exists in storage but is invisible
		require.Contains(t, tasks.tasks, seeded.ID)
		_, err = svc.GetTask(ctx, seeded.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("second delete reports not-found", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		seeded := seedTask(t, tasks)
		svc := newTestService(t, tasks, newFakeTagStore())

		_, err := svc.DeleteTask(ctx, seeded.ID)
		require.NoError(t, err)

		_, err = svc.DeleteTask(ctx, seeded.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("update after delete reports not-found", func(t *testing.T) {
		t.Parallel()
		tasks := newFakeTaskStore()
		seeded := seedTask(t, tasks)
		svc := newTestService(t, tasks, newFakeTagStore())

		_, err := svc.DeleteTask(ctx, seeded.ID)
		require.NoError(t, err)

		completed := true
		_, err = svc.UpdateTask(ctx, seeded.ID, UpdateTaskParams{Completed: &completed})
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("unknown id surfaces not-found", func(t *testing.T) {
		t.Parallel()
		svc := newTestService(t, newFakeTaskStore(), newFakeTagStore())

		_, err := svc.DeleteTask(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}
