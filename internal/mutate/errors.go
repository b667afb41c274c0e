package mutate

import (
	"errors"
	"fmt"
)

// ErrNoChange is returned by the planners when an operation would not change anything.
var ErrNoChange = errors.New("no change")

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func errNotLoaded(boardID string) error {
	return NotFoundError{Kind: "board (not loaded)", ID: boardID}
}
