package database

import "errors"

var (
	// ErrNotFound is returned when a lookup matches no stored item.
	ErrNotFound = errors.New("database: item not found")

	// ErrDatabaseNotExist is returned when opening without the
	// create-if-missing option and no database file exists.
	ErrDatabaseNotExist = errors.New("database: database file does not exist")

	// ErrEmptyURL is returned when an item without a URL is committed.
	ErrEmptyURL = errors.New("database: item URL is empty")
)
