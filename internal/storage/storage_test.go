package storage

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestMake(t *testing.T) {
	s := Make[float32](8)
	defer s.Release()

	require.Equal(t, 8, s.Len())
	assert.True(t, s.Valid())
	assert.EqualValues(t, 1, s.RefCount())
	for _, v := range s.Slice() {
		assert.Zero(t, v)
	}
}

func TestMakeFilled(t *testing.T) {
	s := MakeFilled(5, int32(7))
	defer s.Release()

	assert.Equal(t, []int32{7, 7, 7, 7, 7}, s.Slice())
}

func TestMakeForOverwrite(t *testing.T) {
	s := MakeForOverwrite[uint8](3)
	defer s.Release()

	assert.Equal(t, 3, s.Len())
}

func TestWrap_Aliases(t *testing.T) {
	data := []int64{1, 2, 3}
	s := Wrap(data)
	defer s.Release()

	*s.Ptr(1) = 42
	assert.Equal(t, int64(42), data[1])
}

func TestZeroValue(t *testing.T) {
	var s Shared[float64]
	assert.False(t, s.Valid())
	assert.Zero(t, s.Len())
	assert.Zero(t, s.RefCount())
	assert.NotPanics(t, s.Release)

	var w Weak[float64]
	assert.True(t, w.Expired())
	_, ok := w.Lock()
	assert.False(t, ok)
}

func TestClone_SharesBuffer(t *testing.T) {
	a := Make[int32](4)
	b := a.Clone()

	assert.EqualValues(t, 2, a.RefCount())

	*a.Ptr(2) = 9
	assert.Equal(t, int32(9), *b.Ptr(2))

	a.Release()
	assert.True(t, b.Valid(), "buffer must outlive the first owner")
	assert.Equal(t, int32(9), b.Slice()[2])

	b.Release()
	assert.False(t, b.Valid())
}

func TestOffset_AliasesAndOwns(t *testing.T) {
	a := Make[int32](10)
	for i := range a.Slice() {
		a.Slice()[i] = int32(i)
	}

	b := a.Offset(4)
	assert.Equal(t, 6, b.Len())
	assert.Equal(t, int32(4), *b.Ptr(0))
	assert.EqualValues(t, 2, a.RefCount())

	a.Release()
	assert.Equal(t, int32(9), *b.Ptr(5), "offset handle keeps the whole buffer alive")
	b.Release()

	assert.Panics(t, func() { b.Slice() })
}

func TestOffset_OutOfRangePanics(t *testing.T) {
	a := Make[int32](3)
	defer a.Release()

	assert.Panics(t, func() { a.Offset(4) })
	assert.Panics(t, func() { a.Ptr(3) })
	assert.NotPanics(t, func() { a.Offset(3).Release() })
}

func TestRelease_OverReleasePanics(t *testing.T) {
	a := Make[int32](1)
	a.Release()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.ErrorIs(t, r.(error), ErrOverRelease)
	}()
	a.Release()
}

func TestClone_AfterReleasePanics(t *testing.T) {
	a := Make[int32](1)
	a.Release()

	assert.PanicsWithValue(t, ErrExpired, func() { a.Clone() })
}

func TestWeak_LockWhileAlive(t *testing.T) {
	a := Make[float32](4)
	w := a.Downgrade()

	assert.False(t, w.Expired())

	s, ok := w.Lock()
	require.True(t, ok)
	assert.EqualValues(t, 2, a.RefCount())
	*s.Ptr(0) = 1.5
	s.Release()

	assert.EqualValues(t, 1, a.RefCount())
	assert.Equal(t, float32(1.5), a.Slice()[0])
	a.Release()
}

func TestWeak_ExpiresWithLastOwner(t *testing.T) {
	a := Make[float32](4)
	b := a.Clone()
	w := a.Downgrade()

	a.Release()
	assert.False(t, w.Expired())

	b.Release()
	assert.True(t, w.Expired())

	_, ok := w.Lock()
	assert.False(t, ok)

	_, ok = w.Offset(1)
	assert.False(t, ok)
}

func TestWeak_Offset(t *testing.T) {
	a := Wrap([]int32{10, 20, 30, 40})
	defer a.Release()

	w, ok := a.Downgrade().Offset(2)
	require.True(t, ok)

	s, ok := w.Lock()
	require.True(t, ok)
	defer s.Release()

	assert.Equal(t, []int32{30, 40}, s.Slice())
}

// TestWeak_LockRacesRelease checks that a racing lock either sees the
// buffer alive for the whole access or fails; it never observes a dropped
// buffer through a successful lock.
func TestWeak_LockRacesRelease(t *testing.T) {
	for round := 0; round < 200; round++ {
		owner := MakeFilled(16, int32(1))
		w := owner.Downgrade()

		var locked, refused atomic.Int32
		var g errgroup.Group
		for i := 0; i < 8; i++ {
			g.Go(func() error {
				s, ok := w.Lock()
				if !ok {
					refused.Add(1)
					return nil
				}
				defer s.Release()
				locked.Add(1)
				if s.Slice()[15] != 1 {
					t.Errorf("locked handle observed dropped data")
				}
				return nil
			})
		}
		g.Go(func() error {
			owner.Release()
			return nil
		})
		require.NoError(t, g.Wait())

		assert.EqualValues(t, 8, locked.Load()+refused.Load())
		assert.True(t, w.Expired(), "round %d", round)
	}
}

func TestRefCount_ConcurrentCloneRelease(t *testing.T) {
	owner := Make[int64](1)

	var g errgroup.Group
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			c := owner.Clone()
			c.Release()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 1, owner.RefCount())
	owner.Release()
	assert.False(t, owner.Valid())
}
