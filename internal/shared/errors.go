// Package shared provides sentinel errors and small utility functions used
// by both the client and the server. Callers should use errors.Is to match
// the sentinel values.
package shared

import "errors"

var (

	// common errors
	ErrorNotFound = errors.New("not found")
	ErrorInternal = errors.New("internal error")

	// validation errors
	ErrorValidation = errors.New("validation error")
	ErrorNoUserID   = errors.New("no user id")
)
