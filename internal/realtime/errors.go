package realtime

import "errors"

var (
	// ErrAbort is returned by an UpdateFunc to abandon a transaction. The
	// node is left unchanged and Transaction returns ErrAbort.
	ErrAbort = errors.New("realtime: transaction aborted")

	// ErrNilReference is returned when an operation is given a nil Reference.
	ErrNilReference = errors.New("realtime: reference is nil")

	// ErrNoDatabase is returned by New when no Database is supplied.
	ErrNoDatabase = errors.New("realtime: database is nil")
)
