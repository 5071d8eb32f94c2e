package tensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// requireViolation asserts that fn panics with a *ContractError wrapping want.
func requireViolation(t *testing.T, want error, fn func()) {
	t.Helper()
	var err error
	func() {
		defer Recover(&err)
		fn()
	}()
	require.Error(t, err, "expected a contract violation")
	var ce *ContractError
	require.True(t, errors.As(err, &ce), "got %T", err)
	require.ErrorIs(t, err, want)
}
