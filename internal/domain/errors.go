package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrTransient  = errors.New("transient failure")
	ErrValidation = errors.New("validation failed")
)

type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("customer %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// TransientError is a simulated backend failure. Retrying is left to the user.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrTransient)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrTransient, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

func (e *TransientError) Is(target error) bool { return target == ErrTransient }

type ValidationError struct {
	Fields map[Field]FieldError
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
