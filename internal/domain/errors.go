package domain

import "errors"

// Error kinds returned by an update run. Callers match them with errors.Is.
var (
	ErrAuthentication = errors.New("authentication error")
	ErrFetch          = errors.New("fetch error")
	ErrSerialization  = errors.New("serialization error")
	ErrWrite          = errors.New("write error")
)
