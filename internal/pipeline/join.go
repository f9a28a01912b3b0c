package pipeline

// Result is the settled outcome of one fallible operation.
type Result[T any] struct {
	Value T
	Err   error
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Failed wraps an error.
func Failed[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Join3 combines three settled results. If any failed, the first failure in
// argument order is returned and no values are.
func Join3[A, B, C any](a Result[A], b Result[B], c Result[C]) (A, B, C, error) {
	var (
		za A
		zb B
		zc C
	)
	switch {
	case a.Err != nil:
		return za, zb, zc, a.Err
	case b.Err != nil:
		return za, zb, zc, b.Err
	case c.Err != nil:
		return za, zb, zc, c.Err
	}
	return a.Value, b.Value, c.Value, nil
}
