package store

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("dataset not found")
	ErrMalformed = errors.New("dataset malformed")
)

// LoadKind classifies why a dataset could not be loaded.
type LoadKind int

const (
	KindNotFound LoadKind = iota + 1
	KindMalformed
)

func (k LoadKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// LoadError reports a dataset that is absent or cannot be decoded.
type LoadError struct {
	Kind   LoadKind
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load %s: %s", e.Source, e.Kind)
	}
	return fmt.Sprintf("load %s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrMalformed:
		return e.Kind == KindMalformed
	}
	return false
}
