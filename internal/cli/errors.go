package cli

import (
	"errors"
	"fmt"
)

type notFoundError struct {
	kind string
	ref  string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.ref)
}

func errNotFound(kind, ref string) error {
	return notFoundError{kind: kind, ref: ref}
}

var errNoBoard = errors.New("no board selected; pass --board, set KANBAN_BOARD or add board: to config.yaml")

var errDeclined = errors.New("aborted")
