// Package storage provides reference-counted element buffers and the
// owning (Shared) and non-owning (Weak) handles that reach them.
//
// Memory itself is reclaimed by the garbage collector. The reference count
// governs logical lifetime: once the last Shared handle is released the
// buffer is dropped and every Weak handle to it is expired. Copying a Shared
// value does not take a reference; use Clone for that.
package storage

import (
	"errors"
	"fmt"
	"sync/atomic"
)

var (
	// ErrExpired is returned (or panicked with) when a buffer is used after
	// its last owner released it.
	ErrExpired = errors.New("storage: allocation expired")

	// ErrOverRelease is panicked with when a buffer is released more times
	// than references were taken.
	ErrOverRelease = errors.New("storage: release without matching reference")

	// ErrOutOfRange is panicked with when an offset falls outside the buffer.
	ErrOutOfRange = errors.New("storage: offset out of range")
)

// buffer is a reference-counted allocation shared by Shared and Weak handles.
type buffer[T any] struct {
	data     []T
	refCount atomic.Int64
}

// newBuffer wraps data with refCount = 1.
func newBuffer[T any](data []T) *buffer[T] {
	buf := &buffer[T]{data: data}
	buf.refCount.Store(1)
	return buf
}

// tryAddRef increments the reference count unless it already reached zero.
// A zero count is final: a dropped buffer is never resurrected.
func (b *buffer[T]) tryAddRef() bool {
	for {
		n := b.refCount.Load()
		if n <= 0 {
			return false
		}
		if b.refCount.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release decrements the reference count and drops the data at zero.
func (b *buffer[T]) release() {
	for {
		n := b.refCount.Load()
		if n <= 0 {
			panic(ErrOverRelease)
		}
		if b.refCount.CompareAndSwap(n, n-1) {
			if n == 1 {
				b.data = nil
			}
			return
		}
	}
}

// Make allocates n value-initialized (zero) elements.
func Make[T any](n int) Shared[T] {
	return Shared[T]{buf: newBuffer(make([]T, n))}
}

// MakeFilled allocates n elements set to value.
func MakeFilled[T any](n int, value T) Shared[T] {
	data := make([]T, n)
	for i := range data {
		data[i] = value
	}
	return Shared[T]{buf: newBuffer(data)}
}

// MakeForOverwrite allocates n elements the caller promises to overwrite
// before reading. Go zeroes every allocation, so only the fill pass of
// MakeFilled is skipped.
func MakeForOverwrite[T any](n int) Shared[T] {
	return Shared[T]{buf: newBuffer(make([]T, n))}
}

// Wrap adopts data as a new buffer with one owner. The caller must not
// keep using data through other paths if it relies on expiry semantics.
func Wrap[T any](data []T) Shared[T] {
	return Shared[T]{buf: newBuffer(data)}
}

// Shared is an owning handle: a buffer plus an element offset into it.
// The zero value owns nothing.
type Shared[T any] struct {
	buf *buffer[T]
	off int
}

// Valid reports whether the handle refers to a buffer that is still alive.
func (s Shared[T]) Valid() bool {
	return s.buf != nil && s.buf.refCount.Load() > 0
}

// RefCount returns the number of live owners of the underlying buffer.
func (s Shared[T]) RefCount() int64 {
	if s.buf == nil {
		return 0
	}
	return s.buf.refCount.Load()
}

// Len returns the number of elements reachable from the handle's offset.
func (s Shared[T]) Len() int {
	if s.buf == nil {
		return 0
	}
	return max(len(s.buf.data)-s.off, 0)
}

// Slice returns the elements reachable from the handle's offset.
// The slice aliases the buffer (zero-copy).
// Panics with ErrExpired if the buffer was already dropped.
func (s Shared[T]) Slice() []T {
	if s.buf == nil || s.buf.data == nil {
		panic(ErrExpired)
	}
	return s.buf.data[s.off:]
}

// Ptr returns a pointer to the element i positions past the handle's offset.
func (s Shared[T]) Ptr(i int) *T {
	data := s.Slice()
	if i < 0 || i >= len(data) {
		panic(fmt.Errorf("%w: element %d of %d", ErrOutOfRange, i, len(data)))
	}
	return &data[i]
}

// Clone takes a new reference to the same buffer and offset.
// Each Clone must be balanced by a Release.
func (s Shared[T]) Clone() Shared[T] {
	if s.buf == nil || !s.buf.tryAddRef() {
		panic(ErrExpired)
	}
	return s
}

// Offset returns a new owning handle that aliases the same buffer, delta
// elements further in. The result keeps the whole buffer alive and must be
// released independently.
func (s Shared[T]) Offset(delta int) Shared[T] {
	if delta < 0 || delta > s.Len() {
		panic(fmt.Errorf("%w: offset %d of %d", ErrOutOfRange, delta, s.Len()))
	}
	c := s.Clone()
	c.off += delta
	return c
}

// Release drops this owner's reference. When the last owner releases,
// the buffer is dropped and every Weak handle to it expires.
func (s Shared[T]) Release() {
	if s.buf == nil {
		return
	}
	s.buf.release()
}

// Downgrade returns a non-owning handle to the same buffer and offset.
func (s Shared[T]) Downgrade() Weak[T] {
	return Weak[T]{buf: s.buf, off: s.off}
}

// Weak is a non-owning handle. It must be locked into a Shared handle
// before the buffer can be reached.
type Weak[T any] struct {
	buf *buffer[T]
	off int
}

// Lock tries to take a temporary owning reference. It fails once the last
// Shared owner has released the buffer. A successful Lock must be balanced
// by a Release of the returned handle.
func (w Weak[T]) Lock() (Shared[T], bool) {
	if w.buf == nil || !w.buf.tryAddRef() {
		return Shared[T]{}, false
	}
	return Shared[T]{buf: w.buf, off: w.off}, true
}

// Expired reports whether the buffer has been dropped.
func (w Weak[T]) Expired() bool {
	return w.buf == nil || w.buf.refCount.Load() <= 0
}

// Offset returns a weak handle delta elements further into the same buffer.
// It reports false if the buffer has expired.
func (w Weak[T]) Offset(delta int) (Weak[T], bool) {
	s, ok := w.Lock()
	if !ok {
		return Weak[T]{}, false
	}
	defer s.Release()

	if delta < 0 || delta > s.Len() {
		panic(fmt.Errorf("%w: offset %d of %d", ErrOutOfRange, delta, s.Len()))
	}
	return Weak[T]{buf: w.buf, off: w.off + delta}, true
}
