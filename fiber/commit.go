package fiber

import (
	"time"

	"github.com/delaneyj/fibertree/host"
	"go.uber.org/zap"
)

type commitPass struct {
	r     *Reconciler
	root  *Root
	stats CommitStats
}

// commitRoot applies the effect list collected under finished and makes it
// the current tree.
func (r *Reconciler) commitRoot(root *Root, finished *Fiber) {
	c := &commitPass{r: r, root: root, stats: CommitStats{Root: root.id.String()}}
	start := time.Now()

	if finished.flags > fPerformedWork {
		enqueueEffect(finished, finished)
	}
	first := finished.firstEffect

	completed := false
	defer func() {
		root.current = finished
		for e := first; e != nil; {
			next := e.nextEffect
			e.nextEffect = nil
			e = next
		}
		finished.firstEffect = nil
		finished.lastEffect = nil

		if !completed {
			return
		}
		c.stats.Duration = time.Since(start)
		r.logger.Debug("commit",
			zap.Stringer("root", root.id),
			zap.Int("placements", c.stats.Placements),
			zap.Int("updates", c.stats.Updates),
			zap.Int("deletions", c.stats.Deletions),
			zap.Int("lifecycles", c.stats.Lifecycles),
			zap.Duration("duration", c.stats.Duration),
		)
		if r.commitHook != nil {
			r.commitHook(c.stats)
		}
	}()

	c.commitBeforeMutationEffects(first)
	c.commitMutationEffects(first)
	c.commitLayoutEffects(first)
	completed = true
}

func (c *commitPass) lifecycle(phase string, f *Fiber, fn func()) {
	c.stats.Lifecycles++
	c.r.guard(phase, f, fn)
}

func (c *commitPass) commitBeforeMutationEffects(first *Fiber) {
	for e := first; e != nil; e = e.nextEffect {
		if e.flags&fSnapshot == 0 || e.kind != ClassComponentKind || e.alternate == nil {
			continue
		}
		current := e.alternate
		inst := e.stateNode.(Component)
		sg, ok := inst.(SnapshotGetter)
		if !ok {
			continue
		}
		prevProps := current.Props()
		prevState, _ := current.memoizedState.(State)
		c.lifecycle("snapshot", e, func() {
			inst.base().snapshot = sg.SnapshotBeforeUpdate(prevProps, prevState)
		})
	}
}

func (c *commitPass) commitMutationEffects(first *Fiber) {
	for e := first; e != nil; e = e.nextEffect {
		if e.flags&fContentReset != 0 {
			c.r.host.SetTextContent(e.stateNode, "")
			e.flags &^= fContentReset
		}

		switch e.flags & (fPlacement | fUpdate | fDeletion) {
		case fPlacement:
			c.commitPlacement(e)
			e.flags &^= fPlacement
		case fPlacementAndUpdate:
			c.commitPlacement(e)
			e.flags &^= fPlacement
			c.commitWork(e)
		case fUpdate:
			c.commitWork(e)
		case fDeletion:
			c.commitDeletion(e)
		}
	}
}

func (c *commitPass) commitLayoutEffects(first *Fiber) {
	for e := first; e != nil; e = e.nextEffect {
		if e.flags&(fUpdate|fCallback) != 0 {
			c.commitLifeCycles(e.alternate, e)
		}
	}
}

func (c *commitPass) commitLifeCycles(current, f *Fiber) {
	switch f.kind {
	case ClassComponentKind:
		inst := f.stateNode.(Component)
		if f.flags&fUpdate != 0 {
			if current == nil {
				if dm, ok := inst.(DidMounter); ok {
					c.lifecycle("didMount", f, dm.DidMount)
				}
			} else if du, ok := inst.(DidUpdater); ok {
				prevProps := current.Props()
				prevState, _ := current.memoizedState.(State)
				snapshot := inst.base().snapshot
				c.lifecycle("didUpdate", f, func() {
					du.DidUpdate(prevProps, prevState, snapshot)
				})
			}
		}
		if q := f.updateQueue; q != nil {
			c.commitUpdateQueue(f, q)
		}
	case HostRootKind:
		if q := f.updateQueue; q != nil {
			c.commitUpdateQueue(f, q)
		}
	case HostElementKind, HostTextKind, FunctionComponentKind:
	default:
		panic(structural("commitLifeCycles", ErrUnknownKind, "%s", f.kind))
	}
}

func (c *commitPass) commitUpdateQueue(f *Fiber, q *updateQueue) {
	for u := q.firstEffect; u != nil; u = u.nextEffect {
		if cb := u.Callback; cb != nil {
			u.Callback = nil
			c.lifecycle("callback", f, cb)
		}
	}
	q.firstEffect = nil
	q.lastEffect = nil
}

func (c *commitPass) commitWork(f *Fiber) {
	switch f.kind {
	case ClassComponentKind, FunctionComponentKind, HostRootKind:
	case HostElementKind:
		c.commitUpdate(f)
	case HostTextKind:
		text, _ := f.memoizedProps.(string)
		c.r.host.SetTextContent(f.stateNode, text)
		if rec := c.r.nodes[f.stateNode]; rec != nil {
			rec.fiber = f
		}
		c.stats.Updates++
	default:
		panic(structural("commitWork", ErrUnknownKind, "%s", f.kind))
	}
}

func (c *commitPass) commitUpdate(f *Fiber) {
	payload := f.updatePayload
	f.updatePayload = nil

	if rec := c.r.nodes[f.stateNode]; rec != nil {
		rec.fiber = f
		rec.props = f.Props()
	}

	var (
		attrs []host.AttributeChange
		text  *string
	)
	for _, ch := range payload {
		switch {
		case ch.Key == childrenProp:
			t, _ := ch.Value.(string)
			text = &t
		case c.r.events.isRegistrationName(ch.Key):
		default:
			attrs = append(attrs, ch)
		}
	}
	if len(attrs) == 0 && text == nil {
		return
	}

	if len(attrs) > 0 {
		c.r.host.ApplyAttributes(f.stateNode, attrs)
	}
	if text != nil {
		c.r.host.SetTextContent(f.stateNode, *text)
	}
	c.stats.Updates++
}

func hostNodeOf(f *Fiber) host.Node {
	switch f.kind {
	case HostElementKind:
		return f.stateNode
	case HostRootKind:
		return f.stateNode.(*Root).container
	}
	panic(structural("hostNodeOf", ErrNoHostParent, "%s is not a host parent", f.name()))
}

func (c *commitPass) commitPlacement(f *Fiber) {
	parentFiber := findHostParent(f)
	parent := hostNodeOf(parentFiber)

	if parentFiber.flags&fContentReset != 0 {
		c.r.host.SetTextContent(parent, "")
		parentFiber.flags &^= fContentReset
	}

	before := getHostSibling(f)
	c.insertOrAppendPlacementNode(f, before, parent)
	c.stats.Placements++
}

func (c *commitPass) insertOrAppendPlacementNode(f *Fiber, before, parent host.Node) {
	if f.kind == HostElementKind || f.kind == HostTextKind {
		if before != nil {
			c.r.host.InsertBefore(parent, f.stateNode, before)
		} else {
			c.r.host.AppendChild(parent, f.stateNode)
		}
		return
	}
	for child := f.child; child != nil; child = child.sibling {
		c.insertOrAppendPlacementNode(child, before, parent)
	}
}

// getHostSibling finds the first host node after f, in tree order under the
// same host parent, that is already attached and stays in place.
func getHostSibling(f *Fiber) host.Node {
	node := f
siblings:
	for {
		for node.sibling == nil {
			if node.parent == nil || isHostParent(node.parent) {
				return nil
			}
			node = node.parent
		}
		node.sibling.parent = node.parent
		node = node.sibling

		for node.kind != HostElementKind && node.kind != HostTextKind {
			if node.flags&fPlacement != 0 || node.child == nil {
				continue siblings
			}
			node.child.parent = node
			node = node.child
		}

		if node.flags&fPlacement == 0 {
			return node.stateNode
		}
	}
}

func (c *commitPass) commitDeletion(f *Fiber) {
	c.unmountHostComponents(f)
	detachFiber(f)
	c.stats.Deletions++
}

// unmountHostComponents removes the top level host nodes of the deleted
// subtree from their host parent, running unmount lifecycles for every
// stateful fiber in the subtree in pre-order.
func (c *commitPass) unmountHostComponents(deleted *Fiber) {
	parent := hostNodeOf(findHostParent(deleted))

	node := deleted
	for {
		if node.kind == HostElementKind || node.kind == HostTextKind {
			c.commitNestedUnmounts(node)
			c.r.host.RemoveChild(parent, node.stateNode)
		} else {
			c.commitUnmount(node)
			if node.child != nil {
				node.child.parent = node
				node = node.child
				continue
			}
		}

		if node == deleted {
			return
		}
		for node.sibling == nil {
			if node.parent == nil || node.parent == deleted {
				return
			}
			node = node.parent
		}
		node.sibling.parent = node.parent
		node = node.sibling
	}
}

func (c *commitPass) commitNestedUnmounts(root *Fiber) {
	node := root
	for {
		c.commitUnmount(node)
		if node.child != nil {
			node.child.parent = node
			node = node.child
			continue
		}
		if node == root {
			return
		}
		for node.sibling == nil {
			if node.parent == nil || node.parent == root {
				return
			}
			node = node.parent
		}
		node.sibling.parent = node.parent
		node = node.sibling
	}
}

func (c *commitPass) commitUnmount(f *Fiber) {
	switch f.kind {
	case ClassComponentKind:
		inst := f.stateNode.(Component)
		if wu, ok := inst.(WillUnmounter); ok {
			c.lifecycle("willUnmount", f, wu.WillUnmount)
		}
		inst.base().fiber = nil
	case HostElementKind, HostTextKind:
		delete(c.r.nodes, f.stateNode)
	case FunctionComponentKind, HostRootKind:
	default:
		panic(structural("commitUnmount", ErrUnknownKind, "%s", f.kind))
	}
}
