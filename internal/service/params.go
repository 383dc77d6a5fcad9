package service

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/medivue-api/internal/domain"
)

// dateLayout is the wire format for due dates.
const dateLayout = "2006-01-02"

// validate is the shared validator instance for payload structs.
// Field names in validation errors follow the json tags so error maps can be
// returned to clients verbatim.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateTaskParams is the payload for creating a task. Tags are free-text
// names; missing tags are created during reconciliation.
type CreateTaskParams struct {
	Title       string   `json:"title"       validate:"required,max=200"`
	Description *string  `json:"description"`
	Priority    int      `json:"priority"    validate:"required,min=1,max=5"`
	DueDate     string   `json:"due_date"    validate:"required"`
	Completed   bool     `json:"completed"`
	Tags        []string `json:"tags"`
}

// Validate normalizes the payload and checks every field, accumulating all
// failures instead of stopping at the first. On success it returns the parsed
// due date; otherwise a ValidationError keyed by JSON field name.
func (p *CreateTaskParams) Validate(now time.Time) (time.Time, *ValidationError) {
	p.Title = strings.TrimSpace(p.Title)

	fields := map[string]string{}
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fieldMessage(fe.Field(), fe.Tag())
			}
		}
	}

	var dueDate time.Time
	if p.DueDate != "" {
		parsed, msg := parseDueDate(p.DueDate, now)
		if msg != "" {
			fields["due_date"] = msg
		} else {
			dueDate = parsed
		}
	}

	if len(fields) > 0 {
		return time.Time{}, &ValidationError{Fields: fields}
	}
	return dueDate, nil
}

// UpdateTaskParams is the payload for a partial task update. Nil pointer
// fields are absent and leave the current value untouched. A present Tags
// field replaces the task's entire tag set, even when empty.
type UpdateTaskParams struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Priority    *int      `json:"priority"`
	DueDate     *string   `json:"due_date"`
	Completed   *bool     `json:"completed"`
	Tags        *[]string `json:"tags"`
}

// Validate checks every present field against the same rules as creation,
// accumulating all failures. On success it returns the parsed due date when
// one was supplied, or nil.
func (p *UpdateTaskParams) Validate(now time.Time) (*time.Time, *ValidationError) {
	fields := map[string]string{}

	if p.Title != nil {
		trimmed := strings.TrimSpace(*p.Title)
		p.Title = &trimmed
		if trimmed == "" {
			fields["title"] = "title cannot be empty"
		} else if len([]rune(trimmed)) > domain.MaxTitleLength {
			fields["title"] = "title must be at most 200 characters"
		}
	}

	if p.Priority != nil && (*p.Priority < 1 || *p.Priority > 5) {
		fields["priority"] = "priority must be between 1 and 5"
	}

	var dueDate *time.Time
	if p.DueDate != nil {
		parsed, msg := parseDueDate(*p.DueDate, now)
		if msg != "" {
			fields["due_date"] = msg
		} else {
			dueDate = &parsed
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	return dueDate, nil
}

// ListTasksParams describes the pagination window and optional filters for
// listing tasks. Tags is a comma-separated list of names the task must all
// carry.
type ListTasksParams struct {
	Skip      int
	Limit     int
	Completed *bool
	Priority  *int
	Tags      string
}

// defaultListLimit is the page size applied when the caller does not supply one.
const defaultListLimit = 10

// normalize clamps the pagination window to sane values.
func (p *ListTasksParams) normalize() {
	if p.Limit <= 0 {
		p.Limit = defaultListLimit
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
}

// tagNames splits the comma-separated tag filter into trimmed names,
// dropping empties.
func (p *ListTasksParams) tagNames() []string {
	if p.Tags == "" {
		return nil
	}

	var names []string
	for _, raw := range strings.Split(p.Tags, ",") {
		if name := strings.TrimSpace(raw); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// parseDueDate parses a wire-format date and checks it is not in the past.
// Returns a non-empty message on failure. The comparison is against the
// calendar date, so "today" is always acceptable.
func parseDueDate(value string, now time.Time) (time.Time, string) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, "due_date must be a valid date in YYYY-MM-DD format"
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if parsed.Before(today) {
		return time.Time{}, "due date cannot be in the past"
	}
	return parsed, ""
}

// fieldMessage maps a failed validation tag to a client-facing message.
func fieldMessage(field, tag string) string {
	switch field {
	case "title":
		if tag == "required" {
			return "title is required"
		}
		return "title must be at most 200 characters"
	case "priority":
		if tag == "required" {
			return "priority is required"
		}
		return "priority must be between 1 and 5"
	case "due_date":
		return "due_date is required"
	default:
		return "invalid value"
	}
}
