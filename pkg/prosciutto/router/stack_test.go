package router

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panicVM struct{}

func (panicVM) Dispose() { panic("dispose exploded") }

func stackKeys(s *BackStack) []Key {
	var keys []Key
	for _, e := range s.Entries() {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestStackPushPop(t *testing.T) {
	j := &journal{}
	s := NewStack()
	a := testEntry("a", &trackedVM{name: "a", j: j})
	b := testEntry("b", &trackedVM{name: "b", j: j})

	assert.True(t, s.IsEmpty())
	assert.Nil(t, s.Peek())

	s.Push(a)
	assert.Equal(t, StateActivated, a.State())

	s.Push(b)
	assert.Equal(t, StateDeactivated, a.State())
	assert.Equal(t, StateActivated, b.State())
	assert.Same(t, b, s.Peek())
	assert.Same(t, a, s.Below())
	assert.Same(t, a, s.Root())
	assert.Same(t, b, s.Active())
	assert.Equal(t, 2, s.Len())

	popped, err := s.Pop()
	require.NoError(t, err)
	assert.Same(t, b, popped)
	assert.Equal(t, StateDisposed, b.State())
	assert.Equal(t, StateActivated, a.State())
	assert.Equal(t, []string{"b:disposed"}, j.all())
}

func TestStackPopEmpty(t *testing.T) {
	s := NewStack()
	_, err := s.Pop()
	assert.ErrorIs(t, err, ErrEmptyStack)
	assert.True(t, s.IsEmpty())
}

func TestStackReplace(t *testing.T) {
	s := NewStack()
	a := testEntry("a", nil)
	b := testEntry("b", nil)

	var changes []StateChange
	s.Subscribe(func(c StateChange) { changes = append(changes, c) })

	assert.Nil(t, s.Replace(a), "replace on an empty stack pushes")
	changes = nil

	old := s.Replace(b)
	assert.Same(t, a, old)
	assert.Equal(t, []Key{"b"}, stackKeys(s))

	// The replaced entry goes straight to Disposed.
	assert.Equal(t, []StateChange{
		{Entry: a, From: StateActivated, To: StateDisposed},
		{Entry: b, From: StateCreated, To: StateActivated},
	}, changes)
}

func TestStackClear(t *testing.T) {
	j := &journal{}
	s := NewStack()
	for _, k := range []string{"a", "b", "c"} {
		s.Push(testEntry(Key(k), &trackedVM{name: k, j: j}))
	}

	disposed := s.Clear(false)
	require.Len(t, disposed, 3)
	assert.Equal(t, []string{"c:disposed", "b:disposed", "a:disposed"}, j.all())
	assert.True(t, s.IsEmpty())
	assert.Empty(t, s.Clear(false))
}

func TestStackClearKeepRoot(t *testing.T) {
	s := NewStack()
	root := testEntry("root", nil)
	s.Push(root)
	s.Push(testEntry("a", nil))
	s.Push(testEntry("b", nil))

	disposed := s.Clear(true)
	assert.Len(t, disposed, 2)
	assert.Equal(t, []Key{"root"}, stackKeys(s))
	assert.Equal(t, StateActivated, root.State())
}

func TestStackMaxDepth(t *testing.T) {
	s := NewStack(WithMaxDepth(2))
	a, b, c := testEntry("a", nil), testEntry("b", nil), testEntry("c", nil)
	s.Push(a)
	s.Push(b)
	s.Push(c)

	assert.Equal(t, []Key{"b", "c"}, stackKeys(s))
	assert.Equal(t, StateDisposed, a.State())

	s.SetMaxDepth(1)
	assert.Equal(t, []Key{"c"}, stackKeys(s))
	assert.Equal(t, StateDisposed, b.State())

	s.SetMaxDepth(-3)
	assert.Zero(t, s.MaxDepth())
}

func TestStackSubscribe(t *testing.T) {
	s := NewStack()
	count := 0
	unsubscribe := s.Subscribe(func(StateChange) { count++ })

	s.Push(testEntry("a", nil))
	assert.Equal(t, 1, count)

	unsubscribe()
	s.Push(testEntry("b", nil))
	assert.Equal(t, 1, count)
}

func TestStackListenerPanicContinues(t *testing.T) {
	s := NewStack()
	s.Subscribe(func(StateChange) { panic("listener exploded") })
	count := 0
	s.Subscribe(func(StateChange) { count++ })

	a := testEntry("a", nil)
	assert.NotPanics(t, func() { s.Push(a) })
	assert.Equal(t, 1, count)
	assert.Equal(t, StateActivated, a.State())
	assert.Same(t, a, s.Peek())
}

func TestStackDisposePanicContinues(t *testing.T) {
	s := NewStack()
	j := &journal{}
	s.Push(testEntry("ok", &trackedVM{name: "ok", j: j}))
	s.Push(testEntry("bad", panicVM{}))

	disposed := s.Clear(false)
	assert.Len(t, disposed, 2)
	assert.Equal(t, []string{"ok:disposed"}, j.all())
	assert.True(t, s.IsEmpty())
}

func TestEntryDisposeIdempotent(t *testing.T) {
	j := &journal{}
	e := testEntry("a", &trackedVM{name: "a", j: j})

	require.NoError(t, e.dispose())
	require.NoError(t, e.dispose())
	assert.Equal(t, []string{"a:disposed"}, j.all())

	assert.ErrorContains(t, testEntry("bad", panicVM{}).dispose(), "dispose exploded")
}

// TestStackInvariants drives random operations and checks that at most one
// entry is active, and that it is always the top.
func TestStackInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for round := range 50 {
		s := NewStack(WithMaxDepth(rng.IntN(5)))
		var all []*Entry

		for range 100 {
			switch rng.IntN(4) {
			case 0, 1:
				e := testEntry("e", nil)
				all = append(all, e)
				s.Push(e)
			case 2:
				_, _ = s.Pop()
			case 3:
				e := testEntry("r", nil)
				all = append(all, e)
				s.Replace(e)
			}

			active := 0
			for _, e := range s.Entries() {
				require.NotEqual(t, StateDisposed, e.State(), "round %d", round)
				if e.State() == StateActivated {
					active++
				}
			}
			if s.IsEmpty() {
				require.Zero(t, active, "round %d", round)
				continue
			}
			require.Equal(t, 1, active, "round %d", round)
			require.Equal(t, StateActivated, s.Peek().State(), "round %d", round)
			if s.MaxDepth() > 0 {
				require.LessOrEqual(t, s.Len(), s.MaxDepth(), "round %d", round)
			}
		}

		s.Clear(false)
		for _, e := range all {
			require.Equal(t, StateDisposed, e.State(), "round %d", round)
		}
	}
}
