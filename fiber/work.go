package fiber

// workSession holds the state of a single render pass over one root.
type workSession struct {
	r                    *Reconciler
	root                 *Root
	renderExpirationTime expirationTime

	// set by beginWork and by hooks whose state changed
	didReceiveUpdate bool
	// false while reconciling children of a fiber that has no committed
	// counterpart, so freshly mounted subtrees record no placements
	trackSideEffects bool
	// set while folding a ForceUpdate, consumed by the class component
	forceUpdate bool
}

func (r *Reconciler) renderRoot(root *Root) {
	s := &workSession{r: r, root: root, renderExpirationTime: sync}

	wip := createWorkInProgress(root.current, nil)
	for unit := wip; unit != nil; {
		unit = s.performUnitOfWork(unit)
	}
	r.commitRoot(root, wip)
}

func (s *workSession) performUnitOfWork(unit *Fiber) *Fiber {
	next := s.beginWork(unit.alternate, unit)
	unit.memoizedProps = unit.pendingProps
	if next == nil {
		next = s.completeUnitOfWork(unit)
	}
	return next
}

// completeUnitOfWork completes unit and then each ancestor whose children are
// all done, returning the next sibling to begin or nil at the root.
func (s *workSession) completeUnitOfWork(unit *Fiber) *Fiber {
	for wip := unit; wip != nil; wip = wip.parent {
		s.completeWork(wip.alternate, wip)
		resetChildExpirationTime(wip)
		bubbleUpEffect(wip)

		if wip.sibling != nil {
			return wip.sibling
		}
	}
	return nil
}

func resetChildExpirationTime(wip *Fiber) {
	next := noWork
	for c := wip.child; c != nil; c = c.sibling {
		next = max(next, c.expirationTime, c.childExpirationTime)
	}
	wip.childExpirationTime = next
}

// bubbleUpEffect moves the effect list of f, then f itself if it carries an
// effect, onto its parent.
func bubbleUpEffect(f *Fiber) {
	parent := f.parent
	if parent == nil {
		return
	}

	if f.firstEffect != nil {
		if parent.lastEffect != nil {
			parent.lastEffect.nextEffect = f.firstEffect
		} else {
			parent.firstEffect = f.firstEffect
		}
		parent.lastEffect = f.lastEffect
	}

	if f.flags > fPerformedWork {
		enqueueEffect(parent, f)
	}
}

func rootOf(f *Fiber) *Root {
	for f.parent != nil {
		f = f.parent
	}
	if f.kind != HostRootKind {
		return nil
	}
	root, _ := f.stateNode.(*Root)
	return root
}
