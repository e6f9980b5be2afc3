package db

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResult is returned when a collection or filter yields no records.
	// Callers show it as "no results" rather than as a failure.
	ErrEmptyResult = errors.New("query returned 0 results")
	// ErrNotFound is returned when a key lookup misses.
	ErrNotFound = errors.New("record not found")
	// ErrDocumentMissing is returned by a Store when a document does not exist.
	ErrDocumentMissing = errors.New("document missing")
)

// LoadError reports that startup data could not be read or parsed.
type LoadError struct {
	Source string // "courses" or "students"
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("unable to load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write of the students document.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("error writing students document: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
