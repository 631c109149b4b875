package fiber

import "github.com/delaneyj/fibertree/host"

// Fiber is one unit of reconciliation work. Each tree position owns at most
// two fibers, the committed one and the work-in-progress one, linked through
// alternate.
type Fiber struct {
	kind        Kind
	elementType any
	// host.Node for host kinds, Component for class components and *Root for
	// the host root.
	stateNode any
	index     int
	key       any

	pendingProps  any
	memoizedProps any
	// State for class components and the host root, *hook for function
	// components.
	memoizedState any
	updateQueue   *updateQueue
	updatePayload []host.AttributeChange

	parent    *Fiber
	child     *Fiber
	sibling   *Fiber
	alternate *Fiber

	flags effectFlags

	firstEffect *Fiber
	nextEffect  *Fiber
	lastEffect  *Fiber

	expirationTime      expirationTime
	childExpirationTime expirationTime
}

func (f *Fiber) Kind() Kind     { return f.kind }
func (f *Fiber) Key() any       { return f.key }
func (f *Fiber) Type() any      { return f.elementType }
func (f *Fiber) Parent() *Fiber { return f.parent }

// HostNode returns the drawable node for host element and host text fibers.
func (f *Fiber) HostNode() host.Node {
	switch f.kind {
	case HostElementKind, HostTextKind:
		return f.stateNode
	}
	return nil
}

// Props returns the props the fiber last rendered with.
func (f *Fiber) Props() Props {
	p, _ := f.memoizedProps.(Props)
	return p
}

func (f *Fiber) name() string {
	switch t := f.elementType.(type) {
	case string:
		return t
	case *FunctionComponent:
		return t.Name
	case *ClassComponent:
		return t.Name
	}
	switch f.kind {
	case HostTextKind:
		return "#text"
	case HostRootKind:
		return "#root"
	}
	return f.kind.String()
}

func createFiber(kind Kind, pendingProps any, key any) *Fiber {
	return &Fiber{
		kind:         kind,
		key:          key,
		pendingProps: pendingProps,
	}
}

func createFiberFromElement(el *Element) *Fiber {
	var kind Kind
	switch el.Type.(type) {
	case string:
		kind = HostElementKind
	case *ClassComponent:
		kind = ClassComponentKind
	case *FunctionComponent:
		kind = FunctionComponentKind
	default:
		panic(structural("createFiberFromElement", ErrUnknownElementType, "%T", el.Type))
	}

	f := createFiber(kind, el.Props, el.Key)
	f.elementType = el.Type
	return f
}

func createFiberFromText(text string) *Fiber {
	return createFiber(HostTextKind, text, nil)
}

// createWorkInProgress returns the alternate of f refreshed for a new pass,
// allocating and linking one the first time a position is updated.
func createWorkInProgress(f *Fiber, pendingProps any) *Fiber {
	wip := f.alternate
	if wip == nil {
		wip = createFiber(f.kind, pendingProps, f.key)
		wip.elementType = f.elementType
		wip.alternate = f
		f.alternate = wip
	} else {
		wip.pendingProps = pendingProps
		wip.flags = fNoEffect
		wip.firstEffect = nil
		wip.lastEffect = nil
		wip.nextEffect = nil
	}

	wip.stateNode = f.stateNode
	wip.childExpirationTime = f.childExpirationTime
	wip.expirationTime = f.expirationTime
	wip.child = f.child
	wip.sibling = f.sibling
	wip.index = f.index
	wip.memoizedProps = f.memoizedProps
	wip.memoizedState = f.memoizedState
	wip.updateQueue = f.updateQueue
	wip.updatePayload = nil

	return wip
}

// detachFiber severs a removed fiber and its alternate from the tree.
func detachFiber(f *Fiber) {
	for f != nil {
		f.parent = nil
		f.child = nil
		f.sibling = nil
		f.memoizedState = nil
		f.updateQueue = nil
		f.updatePayload = nil
		alt := f.alternate
		f.alternate = nil
		f = alt
	}
}

func (f *Fiber) markUpdate()        { f.flags |= fUpdate }
func (f *Fiber) markPerformedWork() { f.flags |= fPerformedWork }
func (f *Fiber) markContentReset()  { f.flags |= fContentReset }

// enqueueEffect appends effect to the effect list owned by f.
func enqueueEffect(f, effect *Fiber) {
	if f.lastEffect == nil {
		f.firstEffect = effect
	} else {
		f.lastEffect.nextEffect = effect
	}
	f.lastEffect = effect
}

func isHostParent(f *Fiber) bool {
	return f.kind == HostElementKind || f.kind == HostRootKind
}

func findHostParent(f *Fiber) *Fiber {
	for p := f.parent; p != nil; p = p.parent {
		if isHostParent(p) {
			return p
		}
	}
	panic(structural("findHostParent", ErrNoHostParent, "%s", f.name()))
}
