package fiber

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func incr(by int) Updater {
	return func(prev State, _ Props) State {
		return State{"n": prev["n"].(int) + by}
	}
}

func TestProcessUpdateQueueFoldsInOrder(t *testing.T) {
	tests := []struct {
		name     string
		payloads []any
		want     State
	}{
		{"patch then updater then patch", []any{State{"n": 1}, incr(1), State{"n": 3}}, State{"n": 3}},
		{"updater sees folded state", []any{State{"n": 1}, incr(1), incr(10)}, State{"n": 12}},
		{"plain maps merge", []any{map[string]any{"m": "x"}}, State{"n": 0, "m": "x"}},
		{"nil payload keeps state", []any{nil}, State{"n": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createFiber(ClassComponentKind, nil, nil)
			f.memoizedState = State{"n": 0}
			for _, p := range tt.payloads {
				u := createUpdate()
				u.Payload = p
				enqueueUpdate(f, u)
			}

			s := &workSession{}
			s.processUpdateQueue(f, f.updateQueue, nil)
			assert.Equal(t, tt.want, f.memoizedState)
			assert.Nil(t, f.updateQueue.firstUpdate)
			assert.Equal(t, noWork, f.expirationTime)
		})
	}
}

func TestReplaceAndForce(t *testing.T) {
	f := createFiber(ClassComponentKind, nil, nil)
	f.memoizedState = State{"a": 1, "b": 2}

	u := createUpdate()
	u.tag = updateReplace
	u.Payload = State{"c": 3}
	enqueueUpdate(f, u)

	force := createUpdate()
	force.tag = updateForce
	enqueueUpdate(f, force)

	s := &workSession{}
	s.processUpdateQueue(f, f.updateQueue, nil)
	assert.Equal(t, State{"c": 3}, f.memoizedState)
	assert.True(t, s.forceUpdate)
}

// updates land on both buffers, and processing the work-in-progress queue
// leaves the committed one untouched
func TestEnqueueUpdateBothBuffers(t *testing.T) {
	current := createFiber(ClassComponentKind, nil, nil)
	current.memoizedState = State{"n": 0}
	wip := createWorkInProgress(current, nil)

	var calls int
	u := createUpdate()
	u.Payload = State{"n": 1}
	u.Callback = func() { calls++ }
	enqueueUpdate(current, u)

	require.NotNil(t, current.updateQueue)
	require.NotNil(t, wip.updateQueue)
	assert.Same(t, u, current.updateQueue.firstUpdate)
	assert.Same(t, u, wip.updateQueue.firstUpdate)

	s := &workSession{}
	s.processUpdateQueue(wip, wip.updateQueue, nil)
	assert.Equal(t, State{"n": 1}, wip.memoizedState)
	assert.NotZero(t, wip.flags&fCallback)
	assert.Same(t, u, wip.updateQueue.firstEffect)
	assert.Same(t, u, current.updateQueue.firstUpdate)
	assert.Zero(t, calls)
}

func TestCheckPayload(t *testing.T) {
	assert.NoError(t, checkPayload(nil))
	assert.NoError(t, checkPayload(State{}))
	assert.NoError(t, checkPayload(map[string]any{}))
	assert.NoError(t, checkPayload(incr(1)))
	assert.NoError(t, checkPayload(func(State, Props) State { return nil }))
	assert.ErrorIs(t, checkPayload(42), ErrUnsupportedPayload)
	assert.ErrorIs(t, checkPayload("x"), ErrUnsupportedPayload)
}
