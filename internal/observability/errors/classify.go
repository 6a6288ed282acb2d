// Package errors derives low-cardinality error classes for metric tags and log attributes.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"
)

// Classifier lets an error name its own class, e.g. "http_503" or "schema_invalid".
type Classifier interface {
	ErrorClass() string
}

// Classify returns a normalised class for err, or "" for nil.
// Errors that implement Classifier anywhere in the chain win; context errors come next;
// otherwise the innermost concrete type name is used.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var c Classifier
	if goerrors.As(err, &c) {
		if class := strings.TrimSpace(c.ErrorClass()); class != "" {
			return class
		}
	}

	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}

	for {
		next := goerrors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
