package resolver

import "errors"

var (
	// ErrMaxDepth is returned when resolving an unglued NS hostname would
	// nest recursive descent deeper than Config.MaxDepth.
	ErrMaxDepth = errors.New("resolver: max recursion depth exceeded")

	// ErrNoQuestion describes a request that carries zero questions. No
	// function in this module returns it; the server answers such a
	// request with FORMERR directly.
	ErrNoQuestion = errors.New("resolver: request has no question")

	// ErrResponseMismatch is returned when a response's transaction ID,
	// echoed question, or 0x20-cased name doesn't match the query that
	// was sent for it.
	ErrResponseMismatch = errors.New("resolver: response does not match query")
)
