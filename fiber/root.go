package fiber

import (
	"github.com/delaneyj/fibertree/host"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Root binds a host container to the fiber tree rendered into it.
type Root struct {
	id              uuid.UUID
	container       host.Node
	current         *Fiber
	callbackPending bool
}

func (root *Root) ID() uuid.UUID        { return root.id }
func (root *Root) Container() host.Node { return root.container }
func (root *Root) Current() *Fiber      { return root.current }

func (r *Reconciler) rootFor(container host.Node) *Root {
	if root, ok := r.roots[container]; ok {
		return root
	}

	root := &Root{id: uuid.New(), container: container}
	current := createFiber(HostRootKind, nil, nil)
	current.stateNode = root
	root.current = current
	r.roots[container] = root

	r.logger.Debug("created root", zap.Stringer("root", root.id))
	return root
}

// Mount renders element into container, reusing the root already bound to
// the container if there is one. onComplete, if set, runs after the commit.
func (r *Reconciler) Mount(element Node, container host.Node, onComplete func()) *Root {
	root := r.rootFor(container)
	r.updateContainer(root, element, onComplete)
	return root
}

// Unmount renders nothing into container, running every unmount lifecycle,
// and forgets the root bound to it.
func (r *Reconciler) Unmount(container host.Node) error {
	root, ok := r.roots[container]
	if !ok {
		return ErrNotMounted
	}
	r.updateContainer(root, nil, nil)
	r.Flush()
	delete(r.roots, container)
	return nil
}

func (r *Reconciler) updateContainer(root *Root, element Node, callback func()) {
	u := createUpdate()
	u.Payload = State{rootElementKey: element}
	u.Callback = callback

	enqueueUpdate(root.current, u)
	r.scheduleWork(root.current, sync)
}

// UpdateTarget is a handle that can receive state updates: a class
// component instance, a *Setter or a *Dispatcher.
type UpdateTarget interface {
	enqueue(r *Reconciler, patch any, callback func()) error
}

// EnqueueComponentUpdate applies patch to target. For class components
// patch is a State or an Updater; for hook handles it is the value or
// action the handle accepts, and callback must be nil.
func (r *Reconciler) EnqueueComponentUpdate(target UpdateTarget, patch any, callback func()) error {
	if target == nil {
		return ErrNotMounted
	}
	return target.enqueue(r, patch, callback)
}
