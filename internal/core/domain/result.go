package domain

// Result is the outcome of a call that crossed a process boundary.
// Exactly one of three states holds: a value, a no-content success, or an error.
type Result[T any] struct {
	value     T
	err       error
	noContent bool
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// NoContent is a success that carried no body.
func NoContent[T any]() Result[T] {
	return Result[T]{noContent: true}
}

// Fail wraps an error. A nil error is replaced by ErrUnknown so a failed
// Result can never look successful.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = ErrUnknown
	}
	return Result[T]{err: err}
}

// IsOk reports whether the call succeeded, with or without a body.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// IsNoContent reports a success without a body.
func (r Result[T]) IsNoContent() bool {
	return r.err == nil && r.noContent
}

// Value returns the decoded value. It is the zero value on failure or no-content.
func (r Result[T]) Value() T {
	return r.value
}

// Err returns the failure cause, nil on success.
func (r Result[T]) Err() error {
	return r.err
}

// Unwrap splits the Result into the usual Go pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// Map converts the value of a successful Result. Failures and no-content
// successes pass through unchanged.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	switch {
	case r.err != nil:
		return Fail[U](r.err)
	case r.noContent:
		return NoContent[U]()
	default:
		return Ok(fn(r.value))
	}
}
