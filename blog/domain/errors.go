package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrMalformedPost = errors.New("malformed post")
)

// MissingFieldError is returned when a required frontmatter key is absent or blank.
type MissingFieldError struct {
	Slug  string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("post %s: missing required field %q", e.Slug, e.Field)
}

// Unwrap lets errors.Is(err, ErrMalformedPost) match missing fields.
func (e *MissingFieldError) Unwrap() error {
	return ErrMalformedPost
}
