package reactor

// Dispatch is a dispatch callback with an identity. Bindings compare
// dispatchers by pointer: passing the same *Dispatch on every pass keeps the
// subscription, passing a new one replaces it.
type Dispatch[T any] struct {
	fn func(T)
}

func NewDispatch[T any](fn func(T)) *Dispatch[T] {
	return &Dispatch[T]{fn: fn}
}

// Call invokes the callback. It does nothing on a nil Dispatch.
func (d *Dispatch[T]) Call(v T) {
	if d == nil || d.fn == nil {
		return
	}

	d.fn(v)
}
