package fiber

import "go.uber.org/zap"

// scheduleWork marks f and its ancestors as dirty and requests a render of
// the owning root. The render runs immediately unless the reconciler is
// batching or already flushing.
func (r *Reconciler) scheduleWork(f *Fiber, exp expirationTime) {
	root := markUpdateTimeToRoot(f, exp)
	if root == nil {
		r.logger.Debug("update scheduled on unmounted fiber", zap.String("component", f.name()))
		return
	}

	r.scheduleCallbackForRoot(root)
	if r.context == noContext {
		r.flushSyncCallbackQueue()
	}
}

// markUpdateTimeToRoot records exp on f and childExpirationTime on every
// ancestor, in both buffers. It returns nil when f is no longer attached to
// a root.
func markUpdateTimeToRoot(f *Fiber, exp expirationTime) *Root {
	f.expirationTime = max(f.expirationTime, exp)
	if alt := f.alternate; alt != nil {
		alt.expirationTime = max(alt.expirationTime, exp)
	}

	node := f
	for p := f.parent; p != nil; p = p.parent {
		p.childExpirationTime = max(p.childExpirationTime, exp)
		if alt := p.alternate; alt != nil {
			alt.childExpirationTime = max(alt.childExpirationTime, exp)
		}
		node = p
	}

	if node.kind != HostRootKind {
		return nil
	}
	root, _ := node.stateNode.(*Root)
	return root
}

func (r *Reconciler) scheduleCallbackForRoot(root *Root) {
	if root.callbackPending {
		return
	}
	root.callbackPending = true
	r.syncQueue = append(r.syncQueue, root)
}

// flushSyncCallbackQueue renders every root queued at the time of the call.
// Roots queued while it runs wait for the next flush.
func (r *Reconciler) flushSyncCallbackQueue() {
	if r.flushing || len(r.syncQueue) == 0 {
		return
	}

	queue := r.syncQueue
	r.syncQueue = nil
	r.flushing = true

	i := 0
	defer func() {
		r.flushing = false
		if i < len(queue) {
			// a render panicked, keep the roots that did not get their turn
			r.syncQueue = append(queue[i+1:len(queue):len(queue)], r.syncQueue...)
		}
	}()

	for ; i < len(queue); i++ {
		root := queue[i]
		root.callbackPending = false
		r.renderRoot(root)
	}
}

// Flush renders every root with pending work, including work scheduled by
// lifecycle callbacks of the previous flush.
func (r *Reconciler) Flush() {
	if r.context != noContext {
		return
	}
	r.flushSyncCallbackQueue()
}

// Pending reports whether any root has work waiting for a flush.
func (r *Reconciler) Pending() bool {
	return len(r.syncQueue) > 0
}

// Batch runs fn with rendering deferred, then renders once for every update
// fn scheduled.
func (r *Reconciler) Batch(fn func()) {
	r.batchedUpdates(batchedContext, fn)
}

func (r *Reconciler) batchedUpdates(ctx executionContext, fn func()) {
	prev := r.context
	r.context = ctx
	defer func() { r.context = prev }()
	fn()

	r.context = prev
	if prev == noContext {
		r.flushSyncCallbackQueue()
	}
}
