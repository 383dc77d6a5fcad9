package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Tag-specific validation errors
var (
	// ErrTagIDEmpty is returned when a tag ID is empty or nil.
	ErrTagIDEmpty = errors.New("tag ID cannot be empty")

	// ErrTagNameEmpty is returned when a tag's name is empty.
	ErrTagNameEmpty = errors.New("tag name cannot be empty")
)

// Tag represents a label that can be attached to any number of tasks.
// Tag names are globally unique; tags are created lazily on first reference
// and are never deleted, even once no task references them.
type Tag struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NewTag creates a new Tag with the given name.
// It generates a new UUID for the tag ID.
// Returns an error if validation fails.
func NewTag(name string) (*Tag, error) {
	tag := &Tag{
		ID:   uuid.New(),
		Name: name,
	}

	if err := tag.Validate(); err != nil {
		return nil, err
	}

	return tag, nil
}

// Validate checks if the Tag has valid data.
// Returns an error if any field fails validation.
func (t *Tag) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTagIDEmpty
	}

	if t.Name == "" {
		return ErrTagNameEmpty
	}

	return nil
}
