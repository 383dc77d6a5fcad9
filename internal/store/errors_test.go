package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"generic not found", ErrNotFound, true},
		{"task not found", ErrTaskNotFound, true},
		{"tag not found", ErrTagNotFound, true},
		{"wrapped task not found", fmt.Errorf("get failed: %w", ErrTaskNotFound), true},
		{"duplicate", ErrDuplicate, false},
		{"unrelated", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsNotFoundError(tc.err); got != tc.want {
				t.Errorf("IsNotFoundError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"generic duplicate", ErrDuplicate, true},
		{"tag name exists", ErrTagNameExists, true},
		{"wrapped tag name exists", fmt.Errorf("create failed: %w", ErrTagNameExists), true},
		{"not found", ErrTaskNotFound, false},
		{"nil", nil, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsDuplicateError(tc.err); got != tc.want {
				t.Errorf("IsDuplicateError(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
