package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is the reference clock for date validation tests.
var fixedNow = time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)

func validCreateParams() CreateTaskParams {
	return CreateTaskParams{
		Title:    "Write discharge summary",
		Priority: 3,
		DueDate:  "2025-06-20",
	}
}

func TestCreateTaskParamsValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid payload parses due date", func(t *testing.T) {
		t.Parallel()
		params := validCreateParams()

		dueDate, verr := params.Validate(fixedNow)

		require.Nil(t, verr)
		assert.Equal(t, time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC), dueDate)
	})

	t.Run("title is trimmed before validation", func(t *testing.T) {
		t.Parallel()
		params := validCreateParams()
		params.Title = "  Review labs  "

		_, verr := params.Validate(fixedNow)

		require.Nil(t, verr)
		assert.Equal(t, "Review labs", params.Title)
	})

	t.Run("whitespace-only title fails required", func(t *testing.T) {
		t.Parallel()
		params := validCreateParams()
		params.Title = "   "

		_, verr := params.Validate(fixedNow)

		require.NotNil(t, verr)
		assert.Equal(t, "title is required", verr.Fields["title"])
	})

	t.Run("title over 200 characters fails", func(t *testing.T) {
		t.Parallel()
		params := validCreateParams()
		long := make([]byte, 201)
		for i := range long {
			long[i] = 'a'
		}
		params.Title = string(long)

		_, verr := params.Validate(fixedNow)

		require.NotNil(t, verr)
		assert.Equal(t, "title must be at most 200 characters", verr.Fields["title"])
	})

	t.Run("priority bounds", func(t *testing.T) {
		t.Parallel()
		for _, priority := range []int{-1, 6, 100} {
			params := validCreateParams()
			params.Priority = priority

			_, verr := params.Validate(fixedNow)

			require.NotNil(t, verr, "priority %d should fail", priority)
			assert.Equal(t, "priority must be between 1 and 5", verr.Fields["priority"])
		}
		for _, priority := range []int{1, 5} {
			params := validCreateParams()
			params.Priority = priority

			_, verr := params.Validate(fixedNow)
			assert.Nil(t, verr, "priority %d should pass", priority)
		}
	})

	t.Run("zero priority reports required", func(t *testing.T) {
		t.Parallel()
		params := validCreateParams()
		params.Priority = 0

		_, verr := params.Validate(fixedNow)

		require.NotNil(t, verr)
		assert.Equal(t, "priority is required", verr.Fields["priority"])
	})

	t.Run("malformed due date", func(t *testing.T) {
		t.Parallel()
		params := validCreateParams()
		params.DueDate = "20-06-2025"

		_, verr := params.Validate(fixedNow)

		require.NotNil(t, verr)
		assert.Equal(t, "due_date must be a valid date in YYYY-MM-DD format", verr.Fields["due_date"])
	})

	t.Run("past due date rejected", func(t *testing.T) {
		t.Parallel()
		params := validCreateParams()
		params.DueDate = "2025-06-14"

		_, verr := params.Validate(fixedNow)

		require.NotNil(t, verr)
		assert.Equal(t, "due date cannot be in the past", verr.Fields["due_date"])
	})

	t.Run("due date of today accepted", func(t *testing.T) {
		t.Parallel()
		params := validCreateParams()
		params.DueDate = "2025-06-15"

		dueDate, verr := params.Validate(fixedNow)

		require.Nil(t, verr)
		assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), dueDate)
	})

	t.Run("all failures accumulate in one error", func(t *testing.T) {
		t.Parallel()
		params := CreateTaskParams{
			Title:    "",
			Priority: 9,
			DueDate:  "yesterday",
		}

		_, verr := params.Validate(fixedNow)

		require.NotNil(t, verr)
		assert.Len(t, verr.Fields, 3)
		assert.Contains(t, verr.Fields, "title")
		assert.Contains(t, verr.Fields, "priority")
		assert.Contains(t, verr.Fields, "due_date")
	})
}

func TestUpdateTaskParamsValidate(t *testing.T) {
	t.Parallel()

	strPtr := func(s string) *string { return &s }
	intPtr := func(i int) *int { return &i }

	t.Run("empty payload is valid", func(t *testing.T) {
		t.Parallel()
		params := UpdateTaskParams{}

		dueDate, verr := params.Validate(fixedNow)

		assert.Nil(t, verr)
		assert.Nil(t, dueDate)
	})

	t.Run("present title cannot be empty", func(t *testing.T) {
		t.Parallel()
		params := UpdateTaskParams{Title: strPtr("   ")}

		_, verr := params.Validate(fixedNow)

		require.NotNil(t, verr)
		assert.Equal(t, "title cannot be empty", verr.Fields["title"])
	})

	t.Run("present title is trimmed", func(t *testing.T) {
		t.Parallel()
		params := UpdateTaskParams{Title: strPtr("  Order MRI  ")}

		_, verr := params.Validate(fixedNow)

		require.Nil(t, verr)
		assert.Equal(t, "Order MRI", *params.Title)
	})

	t.Run("present priority out of range fails", func(t *testing.T) {
		t.Parallel()
		params := UpdateTaskParams{Priority: intPtr(0)}

		_, verr := params.Validate(fixedNow)

		require.NotNil(t, verr)
		assert.Equal(t, "priority must be between 1 and 5", verr.Fields["priority"])
	})

	t.Run("present due date parses", func(t *testing.T) {
		t.Parallel()
		params := UpdateTaskParams{DueDate: strPtr("2025-07-01")}

		dueDate, verr := params.Validate(fixedNow)

		require.Nil(t, verr)
		require.NotNil(t, dueDate)
		assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), *dueDate)
	})

	t.Run("present past due date fails", func(t *testing.T) {
		t.Parallel()
		params := UpdateTaskParams{DueDate: strPtr("2024-01-01")}

		_, verr := params.Validate(fixedNow)

		require.NotNil(t, verr)
		assert.Equal(t, "due date cannot be in the past", verr.Fields["due_date"])
	})
}

func TestListTasksParamsNormalize(t *testing.T) {
	t.Parallel()

	t.Run("defaults applied", func(t *testing.T) {
		t.Parallel()
		params := ListTasksParams{}
		params.normalize()

		assert.Equal(t, 0, params.Skip)
		assert.Equal(t, defaultListLimit, params.Limit)
	})

	t.Run("negative values clamped", func(t *testing.T) {
		t.Parallel()
		params := ListTasksParams{Skip: -3, Limit: -1}
		params.normalize()

		assert.Equal(t, 0, params.Skip)
		assert.Equal(t, defaultListLimit, params.Limit)
	})

	t.Run("explicit values kept", func(t *testing.T) {
		t.Parallel()
		params := ListTasksParams{Skip: 20, Limit: 50}
		params.normalize()

		assert.Equal(t, 20, params.Skip)
		assert.Equal(t, 50, params.Limit)
	})
}

func TestListTasksParamsTagNames(t *testing.T) {
	t.Parallel()

	t.Run("empty string yields nil", func(t *testing.T) {
		t.Parallel()
		params := ListTasksParams{}
		assert.Nil(t, params.tagNames())
	})

	t.Run("names trimmed and empties dropped", func(t *testing.T) {
		t.Parallel()
		params := ListTasksParams{Tags: " urgent , cardiology ,, "}
		assert.Equal(t, []string{"urgent", "cardiology"}, params.tagNames())
	})
}

func TestValidationErrorMessage(t *testing.T) {
	t.Parallel()

	verr := &ValidationError{Fields: map[string]string{
		"title":    "title is required",
		"priority": "priority must be between 1 and 5",
	}}

	// Fields render in sorted order regardless of map iteration
	assert.Equal(t,
		"validation failed: priority: priority must be between 1 and 5; title: title is required",
		verr.Error())
}
