package errs

import (
	"context"
	"errors"
)

// ContextProvider supplies extra context key/values to attach to an
// error captured by Boundary once the Mapper has mapped it. Called once
// per mapped panic/error, not per call; errors re-raised as-is are not
// given the extra context.
type ContextProvider func() map[string]any

// Mapper turns an arbitrary error into a library error. Returning nil
// means "re-raise as-is".
type Mapper func(error) *Error

// Boundary wraps fn, capturing any error it returns (or panics with) and
// running it through ctxProvider/mapper before re-raising.
// Cancellation (context.Canceled / context.DeadlineExceeded) is never
// swallowed or mapped.
func Boundary(ctxProvider ContextProvider, mapper Mapper, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if panicErr, ok := r.(error); ok {
				err = finalize(panicErr, ctxProvider, mapper)
				return
			}
			err = finalize(New(CodeGeneric, "panic in boundary").With("panic", r), ctxProvider, mapper)
		}
	}()

	if err = fn(); err != nil {
		err = finalize(err, ctxProvider, mapper)
	}
	return err
}

func finalize(err error, ctxProvider ContextProvider, mapper Mapper) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var mapped *Error
	if mapper != nil {
		mapped = mapper(err)
	}
	if mapped == nil {
		return err
	}
	if mapped.Cause == nil {
		mapped.Cause = err
	}
	if ctxProvider != nil {
		for k, v := range ctxProvider() {
			mapped.With(k, v)
		}
	}
	return mapped
}

// As is a typed convenience around errors.As for *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
