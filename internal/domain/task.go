package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxTitleLength is the maximum number of characters allowed in a task title.
const MaxTitleLength = 200

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskTitleEmpty is returned when a task's title is empty.
	ErrTaskTitleEmpty = errors.New("task title cannot be empty")

	// ErrTaskTitleTooLong is returned when a task's title exceeds MaxTitleLength.
	ErrTaskTitleTooLong = errors.New("task title cannot exceed 200 characters")

	// ErrTaskPriorityOutOfRange is returned when a task's priority is outside 1-5.
	ErrTaskPriorityOutOfRange = errors.New("task priority must be between 1 and 5")

	// ErrTaskDueDateEmpty is returned when a task has no due date.
	ErrTaskDueDateEmpty = errors.New("task due date cannot be empty")

	// ErrTaskAlreadyDeleted is returned when attempting to delete an
	// already-deleted task.
	ErrTaskAlreadyDeleted = errors.New("task is already deleted")
)

// Visibility represents the read-visibility state of a task.
type Visibility string

// Possible visibility values. A task starts active and can only ever move
// to deleted; there is no transition back.
const (
	VisibilityActive  Visibility = "active"
	VisibilityDeleted Visibility = "deleted"
)

// Task represents a unit of work tracked by the system. Deleted tasks stay
// physically stored but are invisible to normal reads; the Visibility field
// carries that state and maps to the is_deleted column in storage.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    int        `json:"priority"`
	DueDate     time.Time  `json:"due_date"`
	Completed   bool       `json:"completed"`
	Visibility  Visibility `json:"-"`
	Tags        []Tag      `json:"tags"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a new active Task with the given attributes.
// It generates a new UUID for the task ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewTask(
	title string,
	description *string,
	priority int,
	dueDate time.Time,
	completed bool,
) (*Task, error) {
	task := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Priority:    priority,
		DueDate:     dueDate,
		Completed:   completed,
		Visibility:  VisibilityActive,
		Tags:        []Tag{},
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if len([]rune(t.Title)) > MaxTitleLength {
		return ErrTaskTitleTooLong
	}

	if t.Priority < 1 || t.Priority > 5 {
		return ErrTaskPriorityOutOfRange
	}

	if t.DueDate.IsZero() {
		return ErrTaskDueDateEmpty
	}

	return nil
}

// IsDeleted reports whether the task has been soft-deleted.
func (t *Task) IsDeleted() bool {
	return t.Visibility == VisibilityDeleted
}

// MarkDeleted transitions the task to the deleted state and updates the
// UpdatedAt timestamp. The transition is one-way: once deleted, a task can
// never become active again. Returns ErrTaskAlreadyDeleted if the task is
// already deleted.
func (t *Task) MarkDeleted() error {
	if t.Visibility == VisibilityDeleted {
		return ErrTaskAlreadyDeleted
	}

	t.Visibility = VisibilityDeleted
	t.UpdatedAt = time.Now().UTC()
	return nil
}
