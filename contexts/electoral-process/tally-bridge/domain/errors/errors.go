package errors

import "errors"

var (
	ErrMalformedEvent = errors.New("judgment event payload is malformed")
)
