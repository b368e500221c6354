package config

import "errors"

var (
	ErrInvalidWorkers    = errors.New("workers must be at least 1")
	ErrInvalidIterations = errors.New("iterations must be at least 1")
	ErrInvalidReaders    = errors.New("readers cannot be negative")
	ErrUnknownLock       = errors.New("unknown lock kind")
	ErrReadersWithMutex  = errors.New("readers need the rwlock lock kind")
	ErrInvalidLogLevel   = errors.New("invalid log level")
)
