package tensor

import (
	"errors"
	"fmt"

	"github.com/born-ml/tt/internal/storage"
)

// Contract violations. Operations in this package panic with a
// *ContractError wrapping one of these; callers that need recoverable
// errors pre-validate (see CheckReshape) or recover and use errors.Is.
var (
	ErrRank     = errors.New("rank mismatch")
	ErrArity    = errors.New("wrong number of indices")
	ErrIndex    = errors.New("index out of range")
	ErrSpanSize = errors.New("required span size exceeds storage")
	ErrTile     = errors.New("tile extent must be a non-zero power of two")
	ErrStrides  = errors.New("strides do not describe a unique mapping")
	ErrExpired  = storage.ErrExpired
)

// ContractError describes a violated precondition.
type ContractError struct {
	Op     string // Operation that detected the violation, e.g. "reshape".
	Detail string // Human-readable specifics.
	Err    error  // One of the Err* sentinels.
}

func (e *ContractError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("tensor: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tensor: %s: %v: %s", e.Op, e.Err, e.Detail)
}

func (e *ContractError) Unwrap() error {
	return e.Err
}

// violate panics with a *ContractError.
func violate(op string, err error, format string, args ...any) {
	panic(&ContractError{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)})
}

// Recover converts a panic carrying a *ContractError into an error stored in
// *errp. Other panics propagate. Intended for use in a deferred call at the
// boundary between this package and code that reports errors to users:
//
//	func safeReshape(...) (out T, err error) {
//	    defer tensor.Recover(&err)
//	    return tensor.Reshape(t, e), nil
//	}
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	if ce, ok := r.(*ContractError); ok {
		*errp = ce
		return
	}
	panic(r)
}
