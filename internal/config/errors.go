package config

import "errors"

var (
	// ErrIncompleteConfig is returned when required connection fields are
	// blank, as with the empty placeholder record.
	ErrIncompleteConfig = errors.New("incomplete firebase configuration")
	// ErrInvalidDatabaseURL is returned when databaseURL is not an absolute
	// https URL.
	ErrInvalidDatabaseURL = errors.New("invalid firebase database URL")
	// ErrInvalidSetting is returned for out-of-range process settings.
	ErrInvalidSetting = errors.New("invalid setting")
)
