package fiber

// slotKey identifies an old child while matching a new child list against
// it: keyed children by key, unkeyed children by position.
type slotKey struct {
	keyed bool
	key   any
	index int
}

func slotFor(key any, index int) slotKey {
	if key != nil {
		return slotKey{keyed: true, key: key}
	}
	return slotKey{index: index}
}

func (s *workSession) reconcileChildren(current, wip *Fiber, next Node) {
	s.trackSideEffects = current != nil

	var currentFirst *Fiber
	if current != nil {
		currentFirst = current.child
	}
	wip.child = s.reconcileChildFibers(wip, currentFirst, next)
}

func (s *workSession) reconcileChildFibers(parent, currentFirst *Fiber, next Node) *Fiber {
	if text, ok := textOf(next); ok {
		return s.placeSingleChild(s.reconcileSingleTextNode(parent, currentFirst, text))
	}
	if el, ok := next.(*Element); ok && el != nil {
		return s.placeSingleChild(s.reconcileSingleElement(parent, currentFirst, el))
	}
	if list, ok := asNodeList(next); ok {
		return s.reconcileChildArray(parent, currentFirst, list)
	}

	s.deleteRemainingChildren(parent, currentFirst)
	return nil
}

func (s *workSession) reconcileSingleTextNode(parent, currentFirst *Fiber, text string) *Fiber {
	if currentFirst != nil && currentFirst.kind == HostTextKind {
		s.deleteRemainingChildren(parent, currentFirst.sibling)
		existing := useFiber(currentFirst, text)
		existing.parent = parent
		return existing
	}

	s.deleteRemainingChildren(parent, currentFirst)
	created := createFiberFromText(text)
	created.parent = parent
	return created
}

func (s *workSession) reconcileSingleElement(parent, currentFirst *Fiber, el *Element) *Fiber {
	for child := currentFirst; child != nil; child = child.sibling {
		if !sameValue(child.key, el.Key) {
			s.deleteChild(parent, child)
			continue
		}
		if sameValue(child.elementType, el.Type) {
			s.deleteRemainingChildren(parent, child.sibling)
			existing := useFiber(child, el.Props)
			existing.parent = parent
			return existing
		}
		s.deleteRemainingChildren(parent, child)
		break
	}

	created := createFiberFromElement(el)
	created.parent = parent
	return created
}

// reconcileChildArray matches children position by position while keys
// agree, then falls back to a map of the remaining old children.
func (s *workSession) reconcileChildArray(parent, currentFirst *Fiber, children []Node) *Fiber {
	var first, prev *Fiber
	link := func(f *Fiber) {
		if prev == nil {
			first = f
		} else {
			prev.sibling = f
		}
		prev = f
	}

	oldFiber := currentFirst
	lastPlacedIndex := 0
	newIdx := 0

	for ; oldFiber != nil && newIdx < len(children); newIdx++ {
		var nextOld *Fiber
		if oldFiber.index > newIdx {
			nextOld = oldFiber
			oldFiber = nil
		} else {
			nextOld = oldFiber.sibling
		}

		newFiber := s.updateSlot(parent, oldFiber, children[newIdx])
		if newFiber == nil {
			if oldFiber == nil {
				oldFiber = nextOld
			}
			break
		}

		if s.trackSideEffects && oldFiber != nil && newFiber.alternate == nil {
			s.deleteChild(parent, oldFiber)
		}

		lastPlacedIndex = s.placeChild(newFiber, lastPlacedIndex, newIdx)
		link(newFiber)
		oldFiber = nextOld
	}

	if newIdx == len(children) {
		s.deleteRemainingChildren(parent, oldFiber)
		return first
	}

	if oldFiber == nil {
		for ; newIdx < len(children); newIdx++ {
			newFiber := s.createChild(parent, children[newIdx])
			if newFiber == nil {
				continue
			}
			lastPlacedIndex = s.placeChild(newFiber, lastPlacedIndex, newIdx)
			link(newFiber)
		}
		return first
	}

	existing := mapRemainingChildren(oldFiber)
	for ; newIdx < len(children); newIdx++ {
		newFiber := s.updateFromMap(existing, parent, newIdx, children[newIdx])
		if newFiber == nil {
			continue
		}
		if s.trackSideEffects && newFiber.alternate != nil {
			delete(existing, slotFor(newFiber.key, newIdx))
		}
		lastPlacedIndex = s.placeChild(newFiber, lastPlacedIndex, newIdx)
		link(newFiber)
	}

	if s.trackSideEffects {
		// walk the old sibling order so deletions are deterministic
		for f := oldFiber; f != nil; f = f.sibling {
			if m, ok := existing[slotFor(f.key, f.index)]; ok && m == f {
				s.deleteChild(parent, f)
			}
		}
	}
	return first
}

func mapRemainingChildren(f *Fiber) map[slotKey]*Fiber {
	m := map[slotKey]*Fiber{}
	for ; f != nil; f = f.sibling {
		m[slotFor(f.key, f.index)] = f
	}
	return m
}

// updateSlot reuses or creates a fiber for child when its key matches the
// key of old. A nil result means the keys disagree.
func (s *workSession) updateSlot(parent, old *Fiber, child Node) *Fiber {
	var key any
	if old != nil {
		key = old.key
	}

	if text, ok := textOf(child); ok {
		if key != nil {
			return nil
		}
		return s.updateTextNode(parent, old, text)
	}
	if el, ok := child.(*Element); ok && el != nil {
		if !sameValue(el.Key, key) {
			return nil
		}
		return s.updateElement(parent, old, el)
	}
	return nil
}

func (s *workSession) updateFromMap(existing map[slotKey]*Fiber, parent *Fiber, newIdx int, child Node) *Fiber {
	if text, ok := textOf(child); ok {
		return s.updateTextNode(parent, existing[slotFor(nil, newIdx)], text)
	}
	if el, ok := child.(*Element); ok && el != nil {
		return s.updateElement(parent, existing[slotFor(el.Key, newIdx)], el)
	}
	return nil
}

func (s *workSession) updateElement(parent, current *Fiber, el *Element) *Fiber {
	var f *Fiber
	if current != nil && sameValue(current.elementType, el.Type) {
		f = useFiber(current, el.Props)
	} else {
		f = createFiberFromElement(el)
	}
	f.parent = parent
	return f
}

func (s *workSession) updateTextNode(parent, current *Fiber, text string) *Fiber {
	var f *Fiber
	if current == nil || current.kind != HostTextKind {
		f = createFiberFromText(text)
	} else {
		f = useFiber(current, text)
	}
	f.parent = parent
	return f
}

func (s *workSession) createChild(parent *Fiber, child Node) *Fiber {
	if text, ok := textOf(child); ok {
		f := createFiberFromText(text)
		f.parent = parent
		return f
	}
	if el, ok := child.(*Element); ok && el != nil {
		f := createFiberFromElement(el)
		f.parent = parent
		return f
	}
	return nil
}

func useFiber(f *Fiber, pendingProps any) *Fiber {
	wip := createWorkInProgress(f, pendingProps)
	wip.index = 0
	wip.sibling = nil
	return wip
}

func (s *workSession) deleteRemainingChildren(parent, child *Fiber) {
	if !s.trackSideEffects {
		return
	}
	for ; child != nil; child = child.sibling {
		s.deleteChild(parent, child)
	}
}

func (s *workSession) deleteChild(parent, child *Fiber) {
	if !s.trackSideEffects {
		return
	}
	child.nextEffect = nil
	child.flags = fDeletion
	enqueueEffect(parent, child)
}

func (s *workSession) placeSingleChild(f *Fiber) *Fiber {
	if s.trackSideEffects && f.alternate == nil {
		f.flags |= fPlacement
	}
	return f
}

// placeChild records the new index of f and marks it for placement when it
// is new or when its old index sits before the last one kept in place.
func (s *workSession) placeChild(f *Fiber, lastPlacedIndex, newIdx int) int {
	f.index = newIdx
	if !s.trackSideEffects {
		return lastPlacedIndex
	}

	current := f.alternate
	if current == nil || current.index < lastPlacedIndex {
		f.flags |= fPlacement
		return lastPlacedIndex
	}
	return current.index
}
