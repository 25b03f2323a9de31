package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidQuery = errors.New("invalid query")
)

var ErrTeamNotFound = NotFound("team not found")

type notFoundError string

func (e notFoundError) Error() string { return string(e) }

func (e notFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns an error with the given message that matches ErrNotFound.
func NotFound(msg string) error {
	return notFoundError(msg)
}
