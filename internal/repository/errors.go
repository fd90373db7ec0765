package repository

import "errors"

// ErrNotFound is returned (wrapped) when a record id is absent from its table.
var ErrNotFound = errors.New("not found")
