package tensor

import "github.com/born-ml/tt/internal/storage"

// Accessor is the policy that turns a data handle and a linear offset into
// an element reference. H is the handle type the policy understands.
type Accessor[T any, H any] interface {
	// Access returns a reference to the element off positions past h.
	Access(h H, off Index) *T

	// Offset returns a handle delta elements further into the same storage,
	// with the same ownership semantics as h.
	Offset(h H, delta Index) H

	// Name identifies the policy, e.g. "Shared".
	Name() string
}

// SharedAccessor reaches elements through an owning storage.Shared handle.
type SharedAccessor[T Element] struct{}

// Access dereferences h directly.
func (SharedAccessor[T]) Access(h storage.Shared[T], off Index) *T {
	return h.Ptr(int(off))
}

// Offset returns a new owner aliasing the same buffer. The caller must
// release it.
func (SharedAccessor[T]) Offset(h storage.Shared[T], delta Index) storage.Shared[T] {
	return h.Offset(int(delta))
}

// Name returns "Shared".
func (SharedAccessor[T]) Name() string { return "Shared" }

// WeakAccessor reaches elements through a non-owning storage.Weak handle.
// Every call locks the handle for its own duration. Using a handle whose
// buffer was already released violates the accessor's contract and panics
// with ErrExpired; stale data is never returned.
type WeakAccessor[T Element] struct{}

// Access locks h and dereferences it.
func (WeakAccessor[T]) Access(h storage.Weak[T], off Index) *T {
	s, ok := h.Lock()
	if !ok {
		violate("access", ErrExpired, "weak handle outlived its storage")
	}
	defer s.Release()
	return s.Ptr(int(off))
}

// Offset returns a weak handle delta elements further in.
func (WeakAccessor[T]) Offset(h storage.Weak[T], delta Index) storage.Weak[T] {
	w, ok := h.Offset(int(delta))
	if !ok {
		violate("offset", ErrExpired, "weak handle outlived its storage")
	}
	return w
}

// Name returns "Weak".
func (WeakAccessor[T]) Name() string { return "Weak" }
