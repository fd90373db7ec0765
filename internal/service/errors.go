package service

import "errors"

// ErrInvalidPatch is returned when a patch would end an entry before it started.
var ErrInvalidPatch = errors.New("invalid time entry patch")
