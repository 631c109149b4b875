package fiber

const rootElementKey = "element"

// beginWork processes wip and returns its first child to work on next, or
// nil when the subtree under wip needs no further work.
func (s *workSession) beginWork(current, wip *Fiber) *Fiber {
	if current != nil {
		if !sameValue(current.memoizedProps, wip.pendingProps) || !sameValue(current.elementType, wip.elementType) {
			s.didReceiveUpdate = true
		} else if wip.expirationTime < s.renderExpirationTime {
			s.didReceiveUpdate = false
			return s.bailoutOnAlreadyFinishedWork(current, wip)
		} else {
			s.didReceiveUpdate = false
		}
	} else {
		s.didReceiveUpdate = false
	}

	wip.expirationTime = noWork

	switch wip.kind {
	case HostElementKind:
		return s.updateHostComponent(current, wip)
	case HostTextKind:
		return nil
	case HostRootKind:
		return s.updateHostRoot(current, wip)
	case ClassComponentKind:
		return s.updateClassComponent(current, wip)
	case FunctionComponentKind:
		return s.updateFunctionComponent(current, wip)
	}
	panic(structural("beginWork", ErrUnknownKind, "%s", wip.kind))
}

func (s *workSession) bailoutOnAlreadyFinishedWork(current, wip *Fiber) *Fiber {
	if wip.childExpirationTime < s.renderExpirationTime {
		return nil
	}
	cloneChildFibers(wip)
	return wip.child
}

// cloneChildFibers replaces the committed children wip inherited with fresh
// work-in-progress copies so they can be visited.
func cloneChildFibers(wip *Fiber) {
	old := wip.child
	if old == nil {
		return
	}

	next := createWorkInProgress(old, old.pendingProps)
	next.parent = wip
	wip.child = next
	for old.sibling != nil {
		old = old.sibling
		next.sibling = createWorkInProgress(old, old.pendingProps)
		next = next.sibling
		next.parent = wip
	}
	next.sibling = nil
}

// shouldSetTextContent reports whether a host element renders its children
// as text content instead of child nodes.
func shouldSetTextContent(props Props) bool {
	_, ok := textOf(props[childrenProp])
	return ok
}

func (s *workSession) updateHostComponent(current, wip *Fiber) *Fiber {
	props, _ := wip.pendingProps.(Props)
	next := props[childrenProp]

	if shouldSetTextContent(props) {
		next = nil
	} else if current != nil && shouldSetTextContent(current.Props()) {
		wip.markContentReset()
	}

	s.reconcileChildren(current, wip, next)
	return wip.child
}

func (s *workSession) updateHostRoot(current, wip *Fiber) *Fiber {
	prevState, _ := wip.memoizedState.(State)
	prevChildren := prevState[rootElementKey]

	if q := wip.updateQueue; q != nil {
		s.processUpdateQueue(wip, q, nil)
	}

	nextState, _ := wip.memoizedState.(State)
	nextChildren := nextState[rootElementKey]
	if sameValue(prevChildren, nextChildren) {
		return s.bailoutOnAlreadyFinishedWork(current, wip)
	}

	s.reconcileChildren(current, wip, nextChildren)
	return wip.child
}

func (s *workSession) updateFunctionComponent(current, wip *Fiber) *Fiber {
	comp := wip.elementType.(*FunctionComponent)
	props, _ := wip.pendingProps.(Props)

	children := s.renderWithHooks(current, wip, comp, props)
	if current != nil && !s.didReceiveUpdate {
		s.bailoutHooks(current, wip)
		return s.bailoutOnAlreadyFinishedWork(current, wip)
	}

	wip.markPerformedWork()
	s.reconcileChildren(current, wip, children)
	return wip.child
}
