package data

import "errors"

// ErrStatusConflict is returned when a status write races a concurrent writer and retries are exhausted.
var ErrStatusConflict = errors.New("publish status write conflict")
