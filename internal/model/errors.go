package model

import "errors"

// ErrNotFound is returned by lookups when the item does not exist upstream.
var ErrNotFound = errors.New("not found")
