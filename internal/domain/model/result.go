package model

// Result is the outcome of one validation step: either a value or a
// user-safe failure message. Expected failures never surface as errors.
type Result[T any] struct {
	value T
	err   string
	ok    bool
}

func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

func Fail[T any](msg string) Result[T] {
	return Result[T]{err: msg}
}

func (r Result[T]) IsOK() bool { return r.ok }

// Value returns the success value, or the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure message, or "" on success.
func (r Result[T]) Err() string { return r.err }

// Map transforms a successful value and passes failures through unchanged.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if !r.ok {
		return Fail[U](r.err)
	}
	return Ok(f(r.value))
}

// Bind chains a dependent step; f only runs when r succeeded.
func Bind[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if !r.ok {
		return Fail[U](r.err)
	}
	return f(r.value)
}

// Combine collects all values, stopping at the first failure.
func Combine[T any](results ...Result[T]) Result[[]T] {
	values := make([]T, 0, len(results))
	for _, r := range results {
		if !r.ok {
			return Fail[[]T](r.err)
		}
		values = append(values, r.value)
	}
	return Ok(values)
}
