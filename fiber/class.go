package fiber

import "maps"

// Component is a stateful class component instance. Implementations embed
// Base, which supplies the unexported half of the interface.
type Component interface {
	Render() Node
	base() *Base
}

// Optional lifecycle interfaces a Component may implement.
type (
	DidMounter interface {
		DidMount()
	}
	DidUpdater interface {
		DidUpdate(prevProps Props, prevState State, snapshot any)
	}
	WillUnmounter interface {
		WillUnmount()
	}
	ShouldUpdater interface {
		ShouldUpdate(nextProps Props, nextState State) bool
	}
	SnapshotGetter interface {
		SnapshotBeforeUpdate(prevProps Props, prevState State) any
	}
	WillUpdater interface {
		WillUpdate(nextProps Props, nextState State)
	}
)

// Base carries the props, state and fiber binding of a class component.
type Base struct {
	props    Props
	state    State
	fiber    *Fiber
	r        *Reconciler
	snapshot any
}

func (b *Base) base() *Base { return b }

func (b *Base) Props() Props { return b.props }
func (b *Base) State() State { return b.state }

// SetInitialState sets the state before the component mounts. It is meant
// to be called from the constructor passed to NewClass.
func (b *Base) SetInitialState(s State) { b.state = s }

// SetState enqueues a merge of patch, a State or an Updater, into the state.
// callback runs after the resulting commit.
func (b *Base) SetState(patch any, callback func()) error {
	return b.enqueueUpdate(updateMerge, patch, callback)
}

// ReplaceState enqueues a replacement of the whole state.
func (b *Base) ReplaceState(s State, callback func()) error {
	return b.enqueueUpdate(updateReplace, s, callback)
}

// ForceUpdate re-renders the component even if ShouldUpdate would refuse.
func (b *Base) ForceUpdate(callback func()) error {
	return b.enqueueUpdate(updateForce, nil, callback)
}

func (b *Base) enqueue(r *Reconciler, patch any, callback func()) error {
	if b.r != nil && b.r != r {
		return ErrForeignTarget
	}
	return b.enqueueUpdate(updateMerge, patch, callback)
}

func (b *Base) enqueueUpdate(tag updateTag, payload any, callback func()) error {
	if err := checkPayload(payload); err != nil {
		return err
	}
	if b.fiber == nil || b.r == nil || rootOf(b.fiber) == nil {
		return ErrNotMounted
	}

	u := createUpdate()
	u.tag = tag
	u.Payload = payload
	u.Callback = callback
	enqueueUpdate(b.fiber, u)
	b.r.scheduleWork(b.fiber, sync)
	return nil
}

// ClassComponent is the element type of a stateful component.
type ClassComponent struct {
	Name   string
	ctor   func(props Props) Component
	derive func(props Props, prev State) State
}

type ClassOption func(*ClassComponent)

// WithDerivedState installs a function that computes a state patch from the
// incoming props before every render.
func WithDerivedState(fn func(props Props, prev State) State) ClassOption {
	return func(c *ClassComponent) {
		c.derive = fn
	}
}

func NewClass(name string, ctor func(props Props) Component, opts ...ClassOption) *ClassComponent {
	c := &ClassComponent{Name: name, ctor: ctor}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (s *workSession) updateClassComponent(current, wip *Fiber) *Fiber {
	cls := wip.elementType.(*ClassComponent)
	props, _ := wip.pendingProps.(Props)
	s.forceUpdate = false

	var shouldUpdate bool
	if wip.stateNode == nil {
		if current != nil {
			// a committed fiber without an instance, mount it as new
			current.alternate = nil
			wip.alternate = nil
			wip.flags |= fPlacement
		}
		s.constructClassInstance(wip, cls, props)
		s.mountClassInstance(wip, cls, props)
		shouldUpdate = true
	} else {
		shouldUpdate = s.updateClassInstance(current, wip, cls, props)
	}
	return s.finishClassComponent(current, wip, shouldUpdate)
}

func (s *workSession) constructClassInstance(wip *Fiber, cls *ClassComponent, props Props) {
	inst := cls.ctor(props)
	if inst == nil {
		panic(structural("constructClassInstance", ErrUnknownElementType, "%s constructor returned nil", cls.Name))
	}
	b := inst.base()
	b.props = props
	b.fiber = wip
	b.r = s.r

	if b.state != nil {
		wip.memoizedState = b.state
	} else {
		wip.memoizedState = nil
	}
	wip.stateNode = inst
}

func (s *workSession) mountClassInstance(wip *Fiber, cls *ClassComponent, props Props) {
	inst := wip.stateNode.(Component)
	b := inst.base()
	b.state, _ = wip.memoizedState.(State)
	b.props = props

	if q := wip.updateQueue; q != nil {
		s.processUpdateQueue(wip, q, props)
		b.state, _ = wip.memoizedState.(State)
	}
	if cls.derive != nil {
		s.applyDerivedState(wip, cls, props)
		b.state, _ = wip.memoizedState.(State)
	}

	if _, ok := inst.(DidMounter); ok {
		wip.markUpdate()
	}
}

func (s *workSession) updateClassInstance(current, wip *Fiber, cls *ClassComponent, props Props) bool {
	inst := wip.stateNode.(Component)
	b := inst.base()

	prevProps, _ := wip.memoizedProps.(Props)
	b.props = prevProps
	oldState, _ := wip.memoizedState.(State)
	newState := oldState
	b.state = oldState

	if q := wip.updateQueue; q != nil {
		s.processUpdateQueue(wip, q, props)
		newState, _ = wip.memoizedState.(State)
	}

	if sameValue(prevProps, props) && sameValue(oldState, newState) && !s.forceUpdate {
		if current != nil && (!sameValue(prevProps, current.memoizedProps) || !sameValue(oldState, current.memoizedState)) {
			if _, ok := inst.(DidUpdater); ok {
				wip.markUpdate()
			}
			if _, ok := inst.(SnapshotGetter); ok {
				wip.flags |= fSnapshot
			}
		}
		return false
	}

	if cls.derive != nil {
		s.applyDerivedState(wip, cls, props)
		newState, _ = wip.memoizedState.(State)
	}

	shouldUpdate := true
	if su, ok := inst.(ShouldUpdater); ok && !s.forceUpdate {
		shouldUpdate = su.ShouldUpdate(props, newState)
	}

	if shouldUpdate {
		if wu, ok := inst.(WillUpdater); ok {
			wu.WillUpdate(props, newState)
		}
		if _, ok := inst.(DidUpdater); ok {
			wip.markUpdate()
		}
		if _, ok := inst.(SnapshotGetter); ok {
			wip.flags |= fSnapshot
		}
	}

	b.props = props
	b.state = newState
	return shouldUpdate
}

func (s *workSession) applyDerivedState(wip *Fiber, cls *ClassComponent, props Props) {
	prev, _ := wip.memoizedState.(State)
	partial := cls.derive(props, prev)

	next := make(State, len(prev)+len(partial))
	maps.Copy(next, prev)
	maps.Copy(next, partial)
	wip.memoizedState = next

	if q := wip.updateQueue; q != nil && wip.expirationTime == noWork {
		q.baseState = next
	}
}

func (s *workSession) finishClassComponent(current, wip *Fiber, shouldUpdate bool) *Fiber {
	if !shouldUpdate {
		return s.bailoutOnAlreadyFinishedWork(current, wip)
	}

	inst := wip.stateNode.(Component)
	children := inst.Render()
	wip.markPerformedWork()
	s.reconcileChildren(current, wip, children)
	wip.memoizedState = inst.base().state
	return wip.child
}
