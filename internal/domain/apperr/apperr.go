// Package apperr defines the error kinds shared by every domain service:
// missing entities, rejected input and storage failures. The HTTP layer maps
// each kind to a status code; services never retry any of them.
package apperr

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// Entity kinds reported by NotFoundError.
const (
	KindClient   = "Client"
	KindProduct  = "Product"
	KindCategory = "Category"
	KindOrder    = "Order"
)

// NotFoundError reports that an entity referenced by key does not exist.
type NotFoundError struct {
	Kind string
	Key  string
}

// NotFound returns a NotFoundError for the given entity kind and key.
func NotFound(kind string, key any) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: fmt.Sprint(key)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", strings.ToLower(e.Kind), e.Key)
}

// FieldError describes a single rejected input field.
type FieldError struct {
	Field  string
	Reason string
}

// InvalidArgumentError reports one or more rejected input fields.
type InvalidArgumentError struct {
	Fields []FieldError
}

// InvalidArgument returns an InvalidArgumentError with a single field.
func InvalidArgument(field, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

// Add appends a field violation.
func (e *InvalidArgumentError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// OrNil returns e when it carries at least one field, nil otherwise.
func (e *InvalidArgumentError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *InvalidArgumentError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Reason
	}
	return "invalid argument: " + strings.Join(parts, "; ")
}

// StorageError wraps a failed storage operation. Integrity is set when the
// database rejected the write because of a constraint (unique key, foreign
// key, check); such failures are caused by the request, not the backend.
// Constraint names the violated constraint, when known.
type StorageError struct {
	Op         string
	Integrity  bool
	Constraint string
	Err        error
}

func (e *StorageError) Error() string {
	if e.Integrity {
		if e.Constraint != "" {
			return fmt.Sprintf("%s: violates %s", e.Op, e.Constraint)
		}
		return fmt.Sprintf("%s: integrity violation: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError. A nil err yields nil.
func Storage(op string, integrity bool, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Integrity: integrity, Err: err}
}

// IsNotFound reports whether err is a NotFoundError of the given kind. An
// empty kind matches any NotFoundError.
func IsNotFound(err error, kind string) bool {
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		return false
	}
	return kind == "" || nf.Kind == kind
}

// IsInvalidArgument reports whether err is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	var ia *InvalidArgumentError
	return errors.As(err, &ia)
}

// IsIntegrity reports whether err is a StorageError caused by a constraint.
func IsIntegrity(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Integrity
}
