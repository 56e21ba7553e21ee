// Package routeerr defines the failure kinds surfaced by the routing core.
package routeerr

import (
	"errors"
	"fmt"
)

// Failure kinds. Match them with errors.Is.
var (
	// ErrInvalidCoordinate means a longitude or latitude is outside its valid range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrMalformedGraph means a graph key or neighbor is not a two-number pair.
	ErrMalformedGraph = errors.New("malformed graph")
	// ErrEmptyGraph means the graph has no nodes to resolve against.
	ErrEmptyGraph = errors.New("empty graph")
)

// Error is a failure of a routing operation, tagged with its kind.
type Error struct {
	Kind   error  // one of the Err* sentinels
	Op     string // operation that detected the failure, e.g. "geo.Distance"
	Detail string
}

// New returns an *Error of the given kind.
func New(kind error, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

// Detail returns the detail message of a routing failure, or err's full
// message for any other error.
func Detail(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Detail
	}
	return err.Error()
}

// KindOf returns the failure kind carried by err, or nil if err is not a
// routing failure.
func KindOf(err error) error {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	for _, kind := range []error{ErrInvalidCoordinate, ErrMalformedGraph, ErrEmptyGraph} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
