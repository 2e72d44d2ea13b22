package types

import "errors"

var (
	// ErrMalformedInput marks a message that could not be decoded or had the wrong shape.
	ErrMalformedInput = errors.New("malformed input")
	// ErrLookupUnavailable marks a failed identity or profile store read.
	ErrLookupUnavailable = errors.New("lookup unavailable")
	// ErrIncompleteRecord marks a profile entry missing one of its numeric fields.
	ErrIncompleteRecord = errors.New("incomplete record")
	// ErrMissingConfig marks a required startup parameter that was not provided.
	ErrMissingConfig = errors.New("missing required configuration")
)
