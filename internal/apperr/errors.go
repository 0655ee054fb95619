// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrCorpusEmpty   = errors.New("corpus is empty or unavailable")
	ErrNoConvergence = errors.New("importance computation did not converge")
)
