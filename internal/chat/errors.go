package chat

import "errors"

var (
	// ErrInvalidInput means the inbound conversation was malformed. It is
	// raised before any model or tool call.
	ErrInvalidInput = errors.New("invalid conversation")

	// ErrRequestTimeout means the overall request deadline expired and the
	// in-flight generation was cancelled.
	ErrRequestTimeout = errors.New("request deadline exceeded")
)
