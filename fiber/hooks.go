package fiber

import (
	"math"
	"reflect"
)

type hook struct {
	memoizedState any
	baseState     any
	queue         *hookQueue
	next          *hook
}

type hookUpdate struct {
	action any
	next   *hookUpdate
}

type hookQueue struct {
	first, last *hookUpdate
	// dispatch is the typed handle handed to the component; it is created
	// on mount and returned unchanged by every later render.
	dispatch            any
	lastRenderedReducer func(state, action any) any
	lastRenderedState   any
}

func (q *hookQueue) push(action any) {
	u := &hookUpdate{action: action}
	if q.last == nil {
		q.first = u
	} else {
		q.last.next = u
	}
	q.last = u
}

type dispatcher struct {
	useReducer func(h *Hooks, reducer func(state, action any) any, initial any, newHandle func(*hookQueue) any) (any, any)
}

var (
	mountDispatcher  = dispatcher{useReducer: mountReducer}
	updateDispatcher = dispatcher{useReducer: updateReducer}
)

// Hooks is the cursor over one function component's hook list for a single
// render. It is only valid while the component's render function runs.
type Hooks struct {
	session    *workSession
	fiber      *Fiber
	dispatcher *dispatcher

	nextCurrent *hook
	first, last *hook
	done        bool
}

func (s *workSession) renderWithHooks(current, wip *Fiber, comp *FunctionComponent, props Props) Node {
	h := &Hooks{session: s, fiber: wip, dispatcher: &mountDispatcher}
	if current != nil {
		if prev, ok := current.memoizedState.(*hook); ok && prev != nil {
			h.nextCurrent = prev
			h.dispatcher = &updateDispatcher
		}
	}

	children := comp.Render(h, props)
	h.done = true

	if h.first != nil {
		wip.memoizedState = h.first
	} else {
		wip.memoizedState = nil
	}
	wip.expirationTime = noWork
	wip.updateQueue = nil
	return children
}

func (s *workSession) bailoutHooks(current, wip *Fiber) {
	wip.updateQueue = current.updateQueue
	wip.flags &^= fUpdate
	if current.expirationTime <= s.renderExpirationTime {
		current.expirationTime = noWork
	}
}

func (h *Hooks) check() {
	if h.done {
		panic(structural("hooks", ErrHookOrder, "hook called outside of render of %s", h.fiber.name()))
	}
}

func (h *Hooks) appendHook(hk *hook) *hook {
	if h.last == nil {
		h.first = hk
	} else {
		h.last.next = hk
	}
	h.last = hk
	return hk
}

func (h *Hooks) mountWorkInProgressHook() *hook {
	return h.appendHook(&hook{})
}

// updateWorkInProgressHook clones the hook in the same position of the
// previous render forward into this render's list.
func (h *Hooks) updateWorkInProgressHook() *hook {
	cur := h.nextCurrent
	if cur == nil {
		panic(structural("hooks", ErrHookOrder, "%s rendered more hooks than during the previous render", h.fiber.name()))
	}
	h.nextCurrent = cur.next
	return h.appendHook(&hook{
		memoizedState: cur.memoizedState,
		baseState:     cur.baseState,
		queue:         cur.queue,
	})
}

func mountReducer(h *Hooks, reducer func(state, action any) any, initial any, newHandle func(*hookQueue) any) (any, any) {
	hk := h.mountWorkInProgressHook()
	hk.memoizedState = initial
	hk.baseState = initial
	q := &hookQueue{lastRenderedReducer: reducer, lastRenderedState: initial}
	hk.queue = q
	q.dispatch = newHandle(q)
	return hk.memoizedState, q.dispatch
}

func updateReducer(h *Hooks, reducer func(state, action any) any, _ any, _ func(*hookQueue) any) (any, any) {
	hk := h.updateWorkInProgressHook()
	q := hk.queue
	q.lastRenderedReducer = reducer

	next := hk.baseState
	for u := q.first; u != nil; u = u.next {
		next = reducer(next, u.action)
	}
	q.first, q.last = nil, nil

	if !sameValue(next, hk.memoizedState) {
		h.session.didReceiveUpdate = true
	}

	hk.memoizedState = next
	hk.baseState = next
	q.lastRenderedState = next
	return hk.memoizedState, q.dispatch
}

// Dispatcher enqueues reducer actions for a UseReducer hook. The same
// pointer is returned on every render of the owning component.
type Dispatcher[A any] struct {
	r     *Reconciler
	fiber *Fiber
	queue *hookQueue
}

func (d *Dispatcher[A]) Dispatch(action A) {
	d.r.dispatchAction(d.fiber, d.queue, action)
}

func (d *Dispatcher[A]) enqueue(r *Reconciler, patch any, callback func()) error {
	if r != d.r {
		return ErrForeignTarget
	}
	if callback != nil {
		return ErrHookCallback
	}
	a, ok := patch.(A)
	if !ok && patch != nil {
		return ErrUnsupportedPayload
	}
	d.Dispatch(a)
	return nil
}

// Setter updates a UseState hook. The same pointer is returned on every
// render of the owning component.
type Setter[S any] struct {
	r     *Reconciler
	fiber *Fiber
	queue *hookQueue
}

// Set replaces the state with v.
func (s *Setter[S]) Set(v S) {
	s.r.dispatchAction(s.fiber, s.queue, v)
}

// Update replaces the state with fn applied to the state folded so far.
func (s *Setter[S]) Update(fn func(prev S) S) {
	s.r.dispatchAction(s.fiber, s.queue, fn)
}

func (s *Setter[S]) enqueue(r *Reconciler, patch any, callback func()) error {
	if r != s.r {
		return ErrForeignTarget
	}
	if callback != nil {
		return ErrHookCallback
	}
	switch p := patch.(type) {
	case S:
		s.Set(p)
	case func(S) S:
		s.Update(p)
	default:
		return ErrUnsupportedPayload
	}
	return nil
}

func (r *Reconciler) dispatchAction(f *Fiber, q *hookQueue, action any) {
	q.push(action)
	r.scheduleWork(f, sync)
}

// UseReducer returns the current state of a reducer hook and its stable
// dispatcher. On mount the state is initial.
func UseReducer[S, A any](h *Hooks, reducer func(state S, action A) S, initial S) (S, *Dispatcher[A]) {
	h.check()
	r := func(state, action any) any {
		return reducer(as[S](state), as[A](action))
	}
	newHandle := func(q *hookQueue) any {
		return &Dispatcher[A]{r: h.session.r, fiber: h.fiber, queue: q}
	}
	state, handle := h.dispatcher.useReducer(h, r, initial, newHandle)
	d, ok := handle.(*Dispatcher[A])
	if !ok {
		panic(structural("UseReducer", ErrHookOrder, "%s: hook slot holds %T", h.fiber.name(), handle))
	}
	return as[S](state), d
}

// UseState returns the current value of a state hook and its stable setter.
func UseState[S any](h *Hooks, initial S) (S, *Setter[S]) {
	h.check()
	newHandle := func(q *hookQueue) any {
		return &Setter[S]{r: h.session.r, fiber: h.fiber, queue: q}
	}
	state, handle := h.dispatcher.useReducer(h, stateReducer[S], initial, newHandle)
	setter, ok := handle.(*Setter[S])
	if !ok {
		panic(structural("UseState", ErrHookOrder, "%s: hook slot holds %T", h.fiber.name(), handle))
	}
	return as[S](state), setter
}

// UseStateFunc is UseState with a lazily computed initial value; init only
// runs on mount.
func UseStateFunc[S any](h *Hooks, init func() S) (S, *Setter[S]) {
	var initial S
	if h.dispatcher == &mountDispatcher {
		initial = init()
	}
	return UseState(h, initial)
}

func stateReducer[S any](state, action any) any {
	if fn, ok := action.(func(S) S); ok {
		return fn(as[S](state))
	}
	return action
}

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// sameValue compares like Object.is: comparable values by ==, with NaN equal
// to itself and signed zeros distinct, reference types by identity. Funcs
// only match when both are nil; a func value's code pointer is shared by
// every closure built from the same literal.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	switch ta.Kind() {
	case reflect.Float32, reflect.Float64:
		fa, fb := reflect.ValueOf(a).Float(), reflect.ValueOf(b).Float()
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		return fa == fb && math.Signbit(fa) == math.Signbit(fb)
	case reflect.Func:
		return reflect.ValueOf(a).IsNil() && reflect.ValueOf(b).IsNil()
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}

	if !ta.Comparable() {
		return false
	}
	return equalComparable(a, b)
}

func equalComparable(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
