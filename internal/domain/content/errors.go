package content

import "errors"

// ErrNotFound is returned when a post, account or analysis record does not exist.
var ErrNotFound = errors.New("content: not found")

// ErrAlreadyExists is returned by CreateAnalysis when the post already has a record.
var ErrAlreadyExists = errors.New("content: analysis already exists")
