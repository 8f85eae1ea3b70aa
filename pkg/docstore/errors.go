package docstore

import "errors"

var (
	// ErrNotFound is returned when no document has the requested id
	ErrNotFound = errors.New("document not found")

	// ErrExists is returned by Create when the id is already taken
	ErrExists = errors.New("document already exists")

	// ErrInvalidField is returned for filter or order fields that are not plain identifiers
	ErrInvalidField = errors.New("invalid document field")

	// ErrInvalidCursor is returned when a page cursor cannot be decoded
	ErrInvalidCursor = errors.New("invalid page cursor")
)
