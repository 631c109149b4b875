package fiber

import (
	"fmt"
	"maps"
)

// Updater computes a state patch from the accumulated state and the latest
// props.
type Updater func(prev State, props Props) State

// Update is one queued state change. Payload is a State patch or an Updater.
type Update struct {
	tag      updateTag
	Payload  any
	Callback func()

	next       *Update
	nextEffect *Update
}

type updateQueue struct {
	baseState   State
	firstUpdate *Update
	lastUpdate  *Update
	// updates with callbacks, consumed by the layout pass
	firstEffect *Update
	lastEffect  *Update
}

func createUpdate() *Update {
	return &Update{tag: updateMerge}
}

func createUpdateQueue(baseState State) *updateQueue {
	return &updateQueue{baseState: baseState}
}

func cloneUpdateQueue(q *updateQueue) *updateQueue {
	return &updateQueue{
		baseState:   q.baseState,
		firstUpdate: q.firstUpdate,
		lastUpdate:  q.lastUpdate,
	}
}

func checkPayload(payload any) error {
	switch payload.(type) {
	case nil, State, map[string]any, Updater, func(State, Props) State:
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedPayload, payload)
}

func ensureUpdateQueue(f *Fiber) *updateQueue {
	if f.updateQueue != nil {
		return f.updateQueue
	}
	if f.alternate != nil && f.alternate.updateQueue != nil {
		return cloneUpdateQueue(f.alternate.updateQueue)
	}
	s, _ := f.memoizedState.(State)
	return createUpdateQueue(s)
}

func (q *updateQueue) append(u *Update) {
	if q.lastUpdate == nil {
		q.firstUpdate = u
	} else {
		q.lastUpdate.next = u
	}
	q.lastUpdate = u
}

// enqueueUpdate appends u to the queues of both buffers so it survives
// whichever one ends up committed.
func enqueueUpdate(f *Fiber, u *Update) {
	q1 := ensureUpdateQueue(f)
	f.updateQueue = q1

	var q2 *updateQueue
	if alt := f.alternate; alt != nil {
		q2 = ensureUpdateQueue(alt)
		alt.updateQueue = q2
	}

	q1.append(u)
	if q2 != nil && q2 != q1 {
		q2.append(u)
	}
}

// ensureCloneQueue gives the work-in-progress fiber its own queue before it
// is mutated, so the committed queue stays intact.
func ensureCloneQueue(wip *Fiber, q *updateQueue) *updateQueue {
	if current := wip.alternate; current != nil && q == current.updateQueue {
		q = cloneUpdateQueue(q)
		wip.updateQueue = q
	}
	return q
}

// processUpdateQueue folds every queued update, in enqueue order, into a new
// state and memoizes it on wip.
func (s *workSession) processUpdateQueue(wip *Fiber, q *updateQueue, props Props) {
	q = ensureCloneQueue(wip, q)

	result := q.baseState
	for u := q.firstUpdate; u != nil; u = u.next {
		result = s.stateFromUpdate(u, result, props)
		if u.Callback != nil {
			wip.flags |= fCallback
			u.nextEffect = nil
			if q.lastEffect == nil {
				q.firstEffect = u
			} else {
				q.lastEffect.nextEffect = u
			}
			q.lastEffect = u
		}
	}

	q.baseState = result
	q.firstUpdate = nil
	q.lastUpdate = nil

	wip.memoizedState = result
	wip.expirationTime = noWork
}

func (s *workSession) stateFromUpdate(u *Update, prev State, props Props) State {
	var partial State
	switch p := u.Payload.(type) {
	case nil:
	case State:
		partial = p
	case map[string]any:
		partial = p
	case Updater:
		partial = p(prev, props)
	case func(State, Props) State:
		partial = p(prev, props)
	default:
		panic(fmt.Errorf("%w: %T", ErrUnsupportedPayload, u.Payload))
	}

	switch u.tag {
	case updateReplace:
		return maps.Clone(partial)
	case updateForce:
		s.forceUpdate = true
		return prev
	}

	next := make(State, len(prev)+len(partial))
	maps.Copy(next, prev)
	maps.Copy(next, partial)
	return next
}
